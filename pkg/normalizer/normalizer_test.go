// pkg/normalizer/normalizer_test.go
package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapraxis/medallion/pkg/model"
)

func TestInferPrimaryKey(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
		found   bool
	}{
		{"bare id", []string{"id", "name"}, "id", true},
		{"id_ prefix", []string{"id_client", "nom", "pays"}, "id_client", true},
		{"id suffix", []string{"product_id", "label"}, "product_id", true},
		{"case insensitive", []string{"ID_CLIENT", "nom"}, "ID_CLIENT", true},
		{"two id columns", []string{"id_achat", "id_client", "montant"}, "", false},
		{"no id columns", []string{"date", "revenue"}, "", false},
		{"id prefix without underscore", []string{"idempotency_token", "value"}, "", false},
		// "paid" ends with "id", so the suffix rule matches it
		{"incidental id suffix", []string{"paid", "value"}, "paid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := InferPrimaryKey(tt.columns)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeKeyedDataset(t *testing.T) {
	ds := model.NewDataset([]string{"id_client", "nom", "pays"})
	ds.AppendRow(model.Row{
		"id_client": model.Text("7"),
		"nom":       model.Text("Alice"),
		"pays":      model.Text("France"),
	})

	got := Normalize("dim_client.csv", ds)

	assert.Equal(t, "dim_client", got.Collection)
	assert.True(t, got.Keyed)
	require.Len(t, got.Documents, 1)

	doc := got.Documents[0]
	assert.Equal(t, int64(7), doc[KeyField])
	assert.Equal(t, "Alice", doc["nom"])
	_, hasOriginal := doc["id_client"]
	assert.False(t, hasOriginal, "key column should be renamed, not duplicated")
}

func TestNormalizeNonCoercibleKeyBecomesNull(t *testing.T) {
	ds := model.NewDataset([]string{"id_client", "nom"})
	ds.AppendRow(model.Row{
		"id_client": model.Text("not-a-number"),
		"nom":       model.Text("Bob"),
	})

	got := Normalize("dim_client.csv", ds)

	require.True(t, got.Keyed)
	assert.Nil(t, got.Documents[0][KeyField])
}

func TestNormalizeTwoIDColumnsIsKeyless(t *testing.T) {
	ds := model.NewDataset([]string{"id_achat", "id_client", "montant"})
	ds.AppendRow(model.Row{
		"id_achat":  model.Int(1),
		"id_client": model.Int(2),
		"montant":   model.Float(9.99),
	})

	got := Normalize("fact_purchases.csv", ds)

	assert.False(t, got.Keyed)
	assert.Equal(t, int64(1), got.Documents[0]["id_achat"])
	assert.Equal(t, int64(2), got.Documents[0]["id_client"])
}

func TestNormalizeEmitsPlainScalarsOnly(t *testing.T) {
	ds := model.NewDataset([]string{"date", "revenue", "transactions", "note"})
	ds.AppendRow(model.Row{
		"date":         model.Time(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		"revenue":      model.Float(120.5),
		"transactions": model.Int(3),
		"note":         model.Null(),
	})

	got := Normalize("agg_daily.csv", ds)

	doc := got.Documents[0]
	assert.Equal(t, "2024-05-01", doc["date"])
	assert.Equal(t, 120.5, doc["revenue"])
	assert.Equal(t, int64(3), doc["transactions"])
	assert.Nil(t, doc["note"])
}

func TestNormalizeRetypesTextualColumns(t *testing.T) {
	// Datasets loaded back from delimited blobs arrive as text; uniform
	// columns are re-typed before emission
	ds := model.NewDataset([]string{"year_month", "revenue", "transactions", "pct_change", "date"})
	ds.AppendRow(model.Row{
		"year_month":   model.Text("2024-01"),
		"revenue":      model.Text("415.0"),
		"transactions": model.Text("5"),
		"pct_change":   model.Null(),
		"date":         model.Text("2024-01-15"),
	})
	ds.AppendRow(model.Row{
		"year_month":   model.Text("2024-02"),
		"revenue":      model.Text("99.5"),
		"transactions": model.Text("2"),
		"pct_change":   model.Text("0.25"),
		"date":         model.Text("garbage"),
	})

	got := Normalize("agg_monthly.csv", ds)
	require.Len(t, got.Documents, 2)

	assert.Equal(t, "2024-01", got.Documents[0]["year_month"])
	assert.Equal(t, 415.0, got.Documents[0]["revenue"])
	assert.Equal(t, int64(5), got.Documents[0]["transactions"])
	assert.Nil(t, got.Documents[0]["pct_change"])
	assert.Equal(t, "2024-01-15", got.Documents[0]["date"])

	assert.Equal(t, 0.25, got.Documents[1]["pct_change"])
	// Date-named columns parse leniently; garbage degrades to null
	assert.Nil(t, got.Documents[1]["date"])
}

func TestNormalizePreservesRowOrder(t *testing.T) {
	ds := model.NewDataset([]string{"pays", "revenue"})
	for _, country := range []string{"France", "Germany", "Spain"} {
		ds.AppendRow(model.Row{"pays": model.Text(country), "revenue": model.Float(1)})
	}

	got := Normalize("revenue_by_country.csv", ds)

	require.Len(t, got.Documents, 3)
	assert.Equal(t, "France", got.Documents[0]["pays"])
	assert.Equal(t, "Germany", got.Documents[1]["pays"])
	assert.Equal(t, "Spain", got.Documents[2]["pays"])
}
