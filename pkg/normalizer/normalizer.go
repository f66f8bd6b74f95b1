// pkg/normalizer/normalizer.go

// Package normalizer projects gold datasets into flat documents ready for
// the document store. A dataset with exactly one id-like column gets that
// column renamed to the canonical key field and coerced to an integer;
// everything else ships keyless.
package normalizer

import (
	"path"
	"strconv"
	"strings"

	"github.com/datapraxis/medallion/pkg/model"
)

// KeyField is the canonical primary-key field name in emitted documents
const KeyField = "_id"

// InferPrimaryKey returns the single column matching the identifier naming
// convention: name ends with "id", starts with "id_", or equals "id", all
// case-insensitive. When zero or more than one column matches, no key
// exists and the second return is false.
func InferPrimaryKey(columns []string) (string, bool) {
	var matches []string
	for _, col := range columns {
		name := strings.ToLower(col)
		if strings.HasSuffix(name, "id") || strings.HasPrefix(name, "id_") || name == "id" {
			matches = append(matches, col)
		}
	}
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

// Normalized is the document-store projection of one gold dataset
type Normalized struct {
	Collection string
	Keyed      bool
	Documents  []map[string]interface{}
}

// Normalize flattens a gold dataset into documents for the collection named
// after the source object (extension stripped). Textual columns loaded from
// delimited blobs are re-typed first: uniformly integer columns become
// integers, uniformly numeric ones floats, and date-named columns parse
// leniently to dates with unparseable cells degrading to null. Every cell
// is then unwrapped to a plain scalar: nulls stay explicit, timestamps
// become strings. When a primary key is inferred its values are coerced to
// integers; a value that fails coercion leaves that document with a null
// key.
func Normalize(objectName string, ds *model.Dataset) *Normalized {
	collection := strings.TrimSuffix(path.Base(objectName), path.Ext(objectName))
	keyCol, keyed := InferPrimaryKey(ds.Columns)

	coercers := make(map[string]func(model.Scalar) model.Scalar, len(ds.Columns))
	for _, col := range ds.Columns {
		if keyed && col == keyCol {
			continue
		}
		coercers[col] = columnCoercer(col, ds)
	}

	docs := make([]map[string]interface{}, 0, ds.Len())
	for _, row := range ds.Rows {
		doc := make(map[string]interface{}, len(ds.Columns))
		for _, col := range ds.Columns {
			value := row.Get(col)
			if keyed && col == keyCol {
				doc[KeyField] = model.CoerceInt(value).Native()
				continue
			}
			if coerce := coercers[col]; coerce != nil {
				value = coerce(value)
			}
			doc[col] = value.Native()
		}
		docs = append(docs, doc)
	}

	return &Normalized{
		Collection: collection,
		Keyed:      keyed,
		Documents:  docs,
	}
}

// columnCoercer classifies a column by its textual cells and returns the
// coercion applied to them. Already-typed cells pass through untouched.
func columnCoercer(col string, ds *model.Dataset) func(model.Scalar) model.Scalar {
	if strings.Contains(strings.ToLower(col), "date") {
		return textOnly(model.CoerceTime)
	}

	allInt := true
	allFloat := true
	sawText := false
	for _, row := range ds.Rows {
		text, ok := row.Get(col).TextValue()
		if !ok {
			continue
		}
		sawText = true
		trimmed := strings.TrimSpace(text)
		if _, err := strconv.ParseInt(trimmed, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			allFloat = false
		}
	}

	switch {
	case !sawText:
		return nil
	case allInt:
		return textOnly(model.CoerceInt)
	case allFloat:
		return textOnly(model.CoerceFloat)
	default:
		return textOnly(trimText)
	}
}

// textOnly restricts a coercion to text cells so typed datasets are not
// re-coerced
func textOnly(coerce func(model.Scalar) model.Scalar) func(model.Scalar) model.Scalar {
	return func(s model.Scalar) model.Scalar {
		if _, ok := s.TextValue(); !ok {
			return s
		}
		return coerce(s)
	}
}

func trimText(s model.Scalar) model.Scalar {
	text, ok := s.TextValue()
	if !ok {
		return s
	}
	return model.Text(strings.TrimSpace(text))
}
