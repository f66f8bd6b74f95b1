// pkg/gold/aggregator.go
package gold

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/model"
	"github.com/datapraxis/medallion/pkg/stats"
)

// Artifact names double as gold object names and document collections
const (
	ArtifactDimClient        = "dim_client"
	ArtifactDimDate          = "dim_date"
	ArtifactFactPurchases    = "fact_purchases"
	ArtifactAggDaily         = "agg_daily"
	ArtifactAggMonthly       = "agg_monthly"
	ArtifactRevenueByCountry = "revenue_by_country"
	ArtifactStatsByProduct   = "stats_by_product"
	ArtifactKpis             = "kpis"
)

// ArtifactNames lists every gold artifact in persistence order
var ArtifactNames = []string{
	ArtifactDimClient,
	ArtifactDimDate,
	ArtifactFactPurchases,
	ArtifactAggDaily,
	ArtifactAggMonthly,
	ArtifactRevenueByCountry,
	ArtifactStatsByProduct,
	ArtifactKpis,
}

// Aggregator derives the gold artifact set from cleaned silver datasets
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Aggregator{logger: logger}, nil
}

// Aggregate computes all eight gold artifacts from the cleaned customer and
// purchase datasets. It is a pure function of its inputs: empty inputs
// produce empty or zero-valued artifacts, never an error. Every derived
// aggregate reads the same fact snapshot, so cross-artifact totals agree.
func (a *Aggregator) Aggregate(customers, purchases *model.Dataset) (map[string]*model.Dataset, error) {
	if customers == nil || purchases == nil {
		return nil, errors.New("input datasets cannot be nil")
	}

	custRows := typedCustomers(customers)
	purchRows := typedPurchases(purchases)

	dimClient := buildDimClient(custRows)
	fact := buildFactPurchases(purchRows, custRows)

	// Unmatched joins are not errors: the fact rows keep a null country.
	// Surface the gap count for observability.
	if gaps := countJoinGaps(fact); gaps > 0 {
		a.logger.Warn("Fact rows reference unknown customers",
			zap.Int("rows", gaps),
		)
	}

	// The fact-derived artifacts are independent pure functions of
	// the same snapshot, so they run concurrently
	artifacts := map[string]*model.Dataset{
		ArtifactDimClient:     dimClient,
		ArtifactFactPurchases: fact,
	}

	type job struct {
		name  string
		build func(*model.Dataset) *model.Dataset
	}
	jobs := []job{
		{ArtifactDimDate, buildDimDate},
		{ArtifactAggDaily, buildAggDaily},
		{ArtifactAggMonthly, buildAggMonthly},
		{ArtifactRevenueByCountry, buildRevenueByCountry},
		{ArtifactStatsByProduct, buildStatsByProduct},
		{ArtifactKpis, buildKpis},
	}

	results := make([]*model.Dataset, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(slot int, build func(*model.Dataset) *model.Dataset) {
			defer wg.Done()
			results[slot] = build(fact)
		}(i, j.build)
	}
	wg.Wait()

	for i, j := range jobs {
		artifacts[j.name] = results[i]
	}

	a.logger.Info("Computed gold artifacts",
		zap.Int("customers", dimClient.Len()),
		zap.Int("fact_rows", fact.Len()),
		zap.Int("artifacts", len(artifacts)),
	)
	return artifacts, nil
}

// typedCustomers enforces gold-layer column types on the silver customer
// dataset. Cells that fail coercion become null.
func typedCustomers(ds *model.Dataset) []model.Row {
	rows := make([]model.Row, 0, ds.Len())
	for _, raw := range ds.Rows {
		row := raw.Clone()
		row[model.ColCustomerID] = model.CoerceInt(row.Get(model.ColCustomerID))
		row[model.ColRegistrationDate] = model.CoerceTime(row.Get(model.ColRegistrationDate))
		rows = append(rows, row)
	}
	return rows
}

// typedPurchases enforces gold-layer column types on the silver purchase
// dataset
func typedPurchases(ds *model.Dataset) []model.Row {
	rows := make([]model.Row, 0, ds.Len())
	for _, raw := range ds.Rows {
		row := raw.Clone()
		row[model.ColPurchaseID] = model.CoerceInt(row.Get(model.ColPurchaseID))
		row[model.ColCustomerID] = model.CoerceInt(row.Get(model.ColCustomerID))
		row[model.ColPurchaseDate] = model.CoerceTime(row.Get(model.ColPurchaseDate))
		row[model.ColAmount] = model.CoerceFloat(row.Get(model.ColAmount))
		rows = append(rows, row)
	}
	return rows
}

// buildDimClient emits one row per customer id with denormalized
// attributes, keeping the first occurrence of each id
func buildDimClient(customers []model.Row) *model.Dataset {
	out := model.NewDataset([]string{
		model.ColCustomerID, model.ColCustomerName, model.ColCustomerEmail,
		model.ColCustomerCountry, model.ColRegistrationDate,
	})

	seen := make(map[int64]bool)
	for _, row := range customers {
		id, ok := row.Get(model.ColCustomerID).IntValue()
		if ok && seen[id] {
			continue
		}
		if ok {
			seen[id] = true
		}
		out.AppendRow(model.Row{
			model.ColCustomerID:       row.Get(model.ColCustomerID),
			model.ColCustomerName:     row.Get(model.ColCustomerName),
			model.ColCustomerEmail:    row.Get(model.ColCustomerEmail),
			model.ColCustomerCountry:  row.Get(model.ColCustomerCountry),
			model.ColRegistrationDate: row.Get(model.ColRegistrationDate),
		})
	}
	return out
}

// buildFactPurchases left-joins purchases to their customer's country.
// Purchases referencing an unknown customer keep a null country rather
// than being dropped. A derived calendar-date column rides along for the
// temporal rollups.
func buildFactPurchases(purchases, customers []model.Row) *model.Dataset {
	countryByID := make(map[int64]model.Scalar, len(customers))
	for _, row := range customers {
		if id, ok := row.Get(model.ColCustomerID).IntValue(); ok {
			if _, exists := countryByID[id]; !exists {
				countryByID[id] = row.Get(model.ColCustomerCountry)
			}
		}
	}

	out := model.NewDataset([]string{
		model.ColPurchaseID, model.ColCustomerID, model.ColPurchaseDate,
		model.ColAmount, model.ColProduct, model.ColCustomerCountry, "date",
	})

	for _, row := range purchases {
		country := model.Null()
		if id, ok := row.Get(model.ColCustomerID).IntValue(); ok {
			if c, found := countryByID[id]; found {
				country = c
			}
		}

		date := model.Null()
		if t, ok := row.Get(model.ColPurchaseDate).TimeValue(); ok {
			date = model.Time(truncateToDay(t))
		}

		out.AppendRow(model.Row{
			model.ColPurchaseID:      row.Get(model.ColPurchaseID),
			model.ColCustomerID:      row.Get(model.ColCustomerID),
			model.ColPurchaseDate:    row.Get(model.ColPurchaseDate),
			model.ColAmount:          row.Get(model.ColAmount),
			model.ColProduct:         row.Get(model.ColProduct),
			model.ColCustomerCountry: country,
			"date":                   date,
		})
	}
	return out
}

// buildDimDate decomposes each distinct purchase date into calendar parts
func buildDimDate(fact *model.Dataset) *model.Dataset {
	out := model.NewDataset([]string{"date", "day", "week", "month", "year"})

	seen := make(map[string]bool)
	for _, row := range fact.Rows {
		t, ok := row.Get("date").TimeValue()
		if !ok {
			continue
		}
		key := t.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true

		_, week := t.ISOWeek()
		out.AppendRow(model.Row{
			"date":  model.Time(t),
			"day":   model.Int(int64(t.Day())),
			"week":  model.Int(int64(week)),
			"month": model.Int(int64(t.Month())),
			"year":  model.Int(int64(t.Year())),
		})
	}
	return out
}

// buildAggDaily rolls the fact table up to per-date transaction count,
// revenue and mean ticket, sorted by date ascending
func buildAggDaily(fact *model.Dataset) *model.Dataset {
	grouped := groupAmounts(fact, "date")

	out := model.NewDataset([]string{"date", "transactions", "revenue", "avg_ticket"})
	for _, g := range grouped {
		out.AppendRow(model.Row{
			"date":         g.key,
			"transactions": model.Int(int64(g.count)),
			"revenue":      model.Float(stats.Sum(g.amounts)),
			"avg_ticket":   meanOrNull(g.amounts),
		})
	}
	return out
}

// buildAggMonthly rolls revenue up to calendar months and computes the
// month-over-month growth rate. The rate is null for the first month,
// for a zero prior month, and wherever the division would not be finite;
// sentinel non-finite values never reach persisted output.
func buildAggMonthly(fact *model.Dataset) *model.Dataset {
	revenueByMonth := make(map[string]float64)
	var months []string
	for _, row := range fact.Rows {
		t, ok := row.Get("date").TimeValue()
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		if _, seen := revenueByMonth[key]; !seen {
			months = append(months, key)
		}
		if v, ok := row.Get(model.ColAmount).FloatValue(); ok {
			revenueByMonth[key] += v
		}
	}
	sort.Strings(months)

	out := model.NewDataset([]string{"year_month", "revenue", "revenue_prev", "pct_change"})
	for i, month := range months {
		revenue := revenueByMonth[month]
		prev := model.Null()
		change := model.Null()
		if i > 0 {
			prevRevenue := revenueByMonth[months[i-1]]
			prev = model.Float(prevRevenue)
			if prevRevenue != 0 {
				rate := (revenue - prevRevenue) / prevRevenue
				if !math.IsNaN(rate) && !math.IsInf(rate, 0) {
					change = model.Float(rate)
				}
			}
		}
		out.AppendRow(model.Row{
			"year_month":   model.Text(month),
			"revenue":      model.Float(revenue),
			"revenue_prev": prev,
			"pct_change":   change,
		})
	}
	return out
}

// buildRevenueByCountry groups fact rows by country. Rows with a null
// country (unmatched joins) are excluded from the grouping.
func buildRevenueByCountry(fact *model.Dataset) *model.Dataset {
	grouped := groupAmounts(fact, model.ColCustomerCountry)

	out := model.NewDataset([]string{model.ColCustomerCountry, "revenue", "transactions"})
	for _, g := range grouped {
		out.AppendRow(model.Row{
			model.ColCustomerCountry: g.key,
			"revenue":                model.Float(stats.Sum(g.amounts)),
			"transactions":           model.Int(int64(g.count)),
		})
	}
	return out
}

// buildStatsByProduct computes per-product distribution statistics. The
// sample standard deviation is null for single-purchase products.
func buildStatsByProduct(fact *model.Dataset) *model.Dataset {
	grouped := groupAmounts(fact, model.ColProduct)

	out := model.NewDataset([]string{model.ColProduct, "count", "revenue", "mean", "median", "std"})
	for _, g := range grouped {
		std := model.Null()
		if len(g.amounts) >= 2 {
			std = model.Float(stats.SampleStdDev(g.amounts))
		}
		out.AppendRow(model.Row{
			model.ColProduct: g.key,
			"count":          model.Int(int64(g.count)),
			"revenue":        model.Float(stats.Sum(g.amounts)),
			"mean":           meanOrNull(g.amounts),
			"median":         medianOrNull(g.amounts),
			"std":            std,
		})
	}
	return out
}

// buildKpis emits the single-row KPI table. An empty purchase set yields
// zeros, not an error.
func buildKpis(fact *model.Dataset) *model.Dataset {
	var amounts []float64
	for _, row := range fact.Rows {
		if v, ok := row.Get(model.ColAmount).FloatValue(); ok {
			amounts = append(amounts, v)
		}
	}

	avg := 0.0
	if len(fact.Rows) > 0 && len(amounts) > 0 {
		avg = stats.Mean(amounts)
	}

	out := model.NewDataset([]string{"total_revenue", "total_transactions", "avg_order_value"})
	out.AppendRow(model.Row{
		"total_revenue":      model.Float(stats.Sum(amounts)),
		"total_transactions": model.Int(int64(len(fact.Rows))),
		"avg_order_value":    model.Float(avg),
	})
	return out
}

// group collects fact amounts per non-null key, preserving deterministic
// ascending key order
type group struct {
	key     model.Scalar
	amounts []float64
	count   int
}

func groupAmounts(fact *model.Dataset, keyCol string) []group {
	byKey := make(map[string]*group)
	var keys []string
	for _, row := range fact.Rows {
		key := row.Get(keyCol)
		if key.IsNull() {
			continue
		}
		ks := key.String()
		g, seen := byKey[ks]
		if !seen {
			g = &group{key: key}
			byKey[ks] = g
			keys = append(keys, ks)
		}
		g.count++
		if v, ok := row.Get(model.ColAmount).FloatValue(); ok {
			g.amounts = append(g.amounts, v)
		}
	}
	sort.Strings(keys)

	out := make([]group, 0, len(keys))
	for _, ks := range keys {
		out = append(out, *byKey[ks])
	}
	return out
}

func meanOrNull(amounts []float64) model.Scalar {
	if len(amounts) == 0 {
		return model.Null()
	}
	return model.Float(stats.Mean(amounts))
}

func medianOrNull(amounts []float64) model.Scalar {
	if len(amounts) == 0 {
		return model.Null()
	}
	return model.Float(stats.Median(amounts))
}

// countJoinGaps counts fact rows whose customer lookup found no country
func countJoinGaps(fact *model.Dataset) int {
	gaps := 0
	for _, row := range fact.Rows {
		if row.Get(model.ColCustomerCountry).IsNull() {
			gaps++
		}
	}
	return gaps
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
