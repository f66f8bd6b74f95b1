// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/model"
)

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestDetectEntityKind(t *testing.T) {
	tests := []struct {
		source string
		want   EntityKind
	}{
		{"clients.csv", EntityCustomer},
		{"CLIENTS_2024.csv", EntityCustomer},
		{"customers.csv", EntityCustomer},
		{"achats.csv", EntityPurchase},
		{"purchases_export.csv", EntityPurchase},
		{"inventory.csv", EntityGeneric},
		{"", EntityGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEntityKind(tt.source))
		})
	}
}

func TestNewDataCleanerRequiresLogger(t *testing.T) {
	_, err := NewDataCleaner(nil)
	assert.Error(t, err)
}

func customerDataset(rows ...model.Row) *model.Dataset {
	ds := model.NewDataset([]string{
		model.ColCustomerID, model.ColCustomerName, model.ColCustomerEmail,
		model.ColCustomerCountry, model.ColRegistrationDate,
	})
	for _, r := range rows {
		ds.AppendRow(r)
	}
	return ds
}

func TestCleanCustomersCanonicalizesCountry(t *testing.T) {
	c := newTestCleaner(t)

	ds := customerDataset(model.Row{
		model.ColCustomerID:      model.Text("1"),
		model.ColCustomerCountry: model.Text("UK"),
	})

	cleaned, _, err := c.Clean(ds, "clients.csv")
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "United Kingdom", cleaned.Rows[0].Get(model.ColCustomerCountry).String())
}

func TestCleanCustomersNormalizesEmailAndName(t *testing.T) {
	c := newTestCleaner(t)

	ds := customerDataset(model.Row{
		model.ColCustomerID:    model.Text("1"),
		model.ColCustomerName:  model.Text("  Alice Martin  "),
		model.ColCustomerEmail: model.Text(" Alice@Example.COM "),
	})

	cleaned, _, err := c.Clean(ds, "clients.csv")
	require.NoError(t, err)
	assert.Equal(t, "Alice Martin", cleaned.Rows[0].Get(model.ColCustomerName).String())
	assert.Equal(t, "alice@example.com", cleaned.Rows[0].Get(model.ColCustomerEmail).String())
}

func TestCleanCustomersDropsNullID(t *testing.T) {
	c := newTestCleaner(t)

	ds := customerDataset(
		model.Row{model.ColCustomerID: model.Null(), model.ColCustomerName: model.Text("ghost")},
		model.Row{model.ColCustomerID: model.Text("not a number")},
		model.Row{model.ColCustomerID: model.Text("2")},
	)

	cleaned, summary, err := c.Clean(ds, "clients.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.Len())
	assert.Equal(t, 2, summary.RemovedRows)
}

func TestCleanCustomersKeepsLatestRegistration(t *testing.T) {
	c := newTestCleaner(t)

	ds := customerDataset(
		model.Row{
			model.ColCustomerID:       model.Text("7"),
			model.ColCustomerEmail:    model.Text("old@example.com"),
			model.ColRegistrationDate: model.Text("2023-01-01"),
		},
		model.Row{
			model.ColCustomerID:       model.Text("7"),
			model.ColCustomerEmail:    model.Text("new@example.com"),
			model.ColRegistrationDate: model.Text("2024-06-01"),
		},
		model.Row{
			model.ColCustomerID:       model.Text("7"),
			model.ColCustomerEmail:    model.Text("undated@example.com"),
			model.ColRegistrationDate: model.Text("garbage date"),
		},
	)

	cleaned, _, err := c.Clean(ds, "clients.csv")
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "new@example.com", cleaned.Rows[0].Get(model.ColCustomerEmail).String())
}

func TestCleanCustomersTieKeepsLastInputRow(t *testing.T) {
	c := newTestCleaner(t)

	ds := customerDataset(
		model.Row{
			model.ColCustomerID:       model.Text("1"),
			model.ColCustomerEmail:    model.Text("first@example.com"),
			model.ColRegistrationDate: model.Text("2024-01-01"),
		},
		model.Row{
			model.ColCustomerID:       model.Text("1"),
			model.ColCustomerEmail:    model.Text("second@example.com"),
			model.ColRegistrationDate: model.Text("2024-01-01"),
		},
	)

	cleaned, _, err := c.Clean(ds, "clients.csv")
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "second@example.com", cleaned.Rows[0].Get(model.ColCustomerEmail).String())
}

func TestCleanGenericDropsNullAndDuplicateRows(t *testing.T) {
	c := newTestCleaner(t)

	ds := model.NewDataset([]string{"a", "b"})
	ds.AppendRow(model.Row{"a": model.Text("1"), "b": model.Text("x")})
	ds.AppendRow(model.Row{"a": model.Null(), "b": model.Null()})
	ds.AppendRow(model.Row{"a": model.Text("1"), "b": model.Text("x")})
	ds.AppendRow(model.Row{"a": model.Text("2"), "b": model.Null()})

	cleaned, _, err := c.Clean(ds, "inventory.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
}
