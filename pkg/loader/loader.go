// pkg/loader/loader.go
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/datapraxis/medallion/pkg/model"
)

// FormatError indicates the raw bytes could not be parsed as delimited
// text. It is fatal for the dataset it names; nothing downstream runs.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot parse %q as delimited text: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Load parses a delimited byte stream into a dataset. The first record is
// the header; every cell is read as text or null with no type inference,
// since typing is the cleaner's job. Short records are padded with nulls
// and long records are truncated to the header width.
func Load(source string, data []byte) (*model.Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &FormatError{Source: source, Err: errors.New("empty input")}
		}
		return nil, &FormatError{Source: source, Err: err}
	}

	ds := model.NewDataset(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Source: source, Err: err}
		}

		row := make(model.Row, len(header))
		for i, col := range header {
			if i >= len(record) || record[i] == "" {
				row[col] = model.Null()
				continue
			}
			row[col] = model.Text(record[i])
		}
		ds.AppendRow(row)
	}

	return ds, nil
}

// Serialize renders a dataset as delimited text with a header row. Null
// cells become empty fields.
func Serialize(ds *model.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(ds.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = row.Get(col).String()
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}
