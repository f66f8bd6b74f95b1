// pkg/cleaner/operations.go
package cleaner

import (
	"strings"

	"github.com/datapraxis/medallion/pkg/model"
	"github.com/datapraxis/medallion/pkg/stats"
)

// countryAliases maps known misspellings and abbreviations to canonical
// country names
var countryAliases = map[string]string{
	"UK":         "United Kingdom",
	"Netherland": "Netherlands",
}

// canonicalCountry trims the raw value and resolves it through the alias
// table
func canonicalCountry(s model.Scalar) model.Scalar {
	text, ok := s.TextValue()
	if !ok {
		return s
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Null()
	}
	if canonical, ok := countryAliases[text]; ok {
		return model.Text(canonical)
	}
	return model.Text(text)
}

// trimText trims surrounding whitespace from a text scalar
func trimText(s model.Scalar) model.Scalar {
	text, ok := s.TextValue()
	if !ok {
		return s
	}
	return model.Text(strings.TrimSpace(text))
}

// cleanCustomers applies the customer rule set: normalize name, email and
// country, parse the registration date leniently, drop rows with no
// customer id, and keep the most recently registered row per customer id.
func cleanCustomers(ds *model.Dataset) *model.Dataset {
	out := model.NewDataset(ds.Columns)

	byID := make(map[int64]model.Row)
	var order []int64

	for _, raw := range ds.Rows {
		row := raw.Clone()
		row[model.ColCustomerName] = trimText(row.Get(model.ColCustomerName))

		if email, ok := row.Get(model.ColCustomerEmail).TextValue(); ok {
			row[model.ColCustomerEmail] = model.Text(strings.ToLower(strings.TrimSpace(email)))
		}

		row[model.ColRegistrationDate] = model.CoerceTime(row.Get(model.ColRegistrationDate))
		row[model.ColCustomerCountry] = canonicalCountry(row.Get(model.ColCustomerCountry))

		id := model.CoerceInt(row.Get(model.ColCustomerID))
		if id.IsNull() {
			continue
		}
		row[model.ColCustomerID] = id
		key, _ := id.IntValue()

		incumbent, seen := byID[key]
		if !seen {
			byID[key] = row
			order = append(order, key)
			continue
		}
		if !registeredBefore(row, incumbent) {
			// Later registration date wins; ties keep the later input row
			byID[key] = row
		}
	}

	for _, key := range order {
		out.AppendRow(byID[key])
	}
	return out
}

// registeredBefore reports whether a's registration date is strictly
// earlier than b's. A null date counts as earlier than any real date, so
// dated duplicates win over undated ones.
func registeredBefore(a, b model.Row) bool {
	at, aok := a.Get(model.ColRegistrationDate).TimeValue()
	bt, bok := b.Get(model.ColRegistrationDate).TimeValue()
	if !aok {
		return bok
	}
	if !bok {
		return false
	}
	return at.Before(bt)
}

// cleanPurchases applies the purchase rule set: lenient date and amount
// coercion, mandatory-field validation, negative-amount rejection, IQR
// outlier rejection, and latest-by-date dedup per purchase id.
func cleanPurchases(ds *model.Dataset) *model.Dataset {
	// Coerce and validate each row before any statistics run, so the
	// outlier bounds are computed over surviving amounts only
	var valid []model.Row
	for _, raw := range ds.Rows {
		row := raw.Clone()
		row[model.ColPurchaseDate] = model.CoerceTime(row.Get(model.ColPurchaseDate))
		row[model.ColAmount] = model.CoerceFloat(row.Get(model.ColAmount))
		row[model.ColPurchaseID] = model.CoerceInt(row.Get(model.ColPurchaseID))
		row[model.ColCustomerID] = model.CoerceInt(row.Get(model.ColCustomerID))
		row[model.ColProduct] = trimText(row.Get(model.ColProduct))

		if row.Get(model.ColPurchaseID).IsNull() ||
			row.Get(model.ColCustomerID).IsNull() ||
			row.Get(model.ColPurchaseDate).IsNull() ||
			row.Get(model.ColAmount).IsNull() {
			continue
		}

		amount, _ := row.Get(model.ColAmount).FloatValue()
		if amount < 0 {
			continue
		}
		valid = append(valid, row)
	}

	valid = dropAmountOutliers(valid)

	// Dedup by purchase id, keeping the latest purchase date; ties keep
	// the later input row
	byID := make(map[int64]model.Row)
	var order []int64

	for _, row := range valid {
		key, _ := row.Get(model.ColPurchaseID).IntValue()
		incumbent, seen := byID[key]
		if !seen {
			byID[key] = row
			order = append(order, key)
			continue
		}
		if !purchasedBefore(row, incumbent) {
			byID[key] = row
		}
	}

	out := model.NewDataset(ds.Columns)
	for _, key := range order {
		out.AppendRow(byID[key])
	}
	return out
}

func purchasedBefore(a, b model.Row) bool {
	at, _ := a.Get(model.ColPurchaseDate).TimeValue()
	bt, _ := b.Get(model.ColPurchaseDate).TimeValue()
	return at.Before(bt)
}

// dropAmountOutliers removes rows whose amount falls outside
// [Q1 - 3*IQR, Q3 + 3*IQR] over the surviving amount column. With fewer
// than two data points the IQR is undefined and filtering is skipped.
func dropAmountOutliers(rows []model.Row) []model.Row {
	amounts := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.Get(model.ColAmount).FloatValue(); ok {
			amounts = append(amounts, v)
		}
	}
	if len(amounts) < 2 {
		return rows
	}

	q1 := stats.Quantile(amounts, 0.25)
	q3 := stats.Quantile(amounts, 0.75)
	iqr := q3 - q1
	lower := q1 - 3*iqr
	upper := q3 + 3*iqr

	out := rows[:0]
	for _, row := range rows {
		v, _ := row.Get(model.ColAmount).FloatValue()
		if v >= lower && v <= upper {
			out = append(out, row)
		}
	}
	return out
}

// cleanGeneric drops fully-null rows and exact duplicates, preserving
// input order. No business rules apply.
func cleanGeneric(ds *model.Dataset) *model.Dataset {
	out := model.NewDataset(ds.Columns)

	for _, row := range ds.Rows {
		allNull := true
		for _, col := range ds.Columns {
			if !row.Get(col).IsNull() {
				allNull = false
				break
			}
		}
		if allNull {
			continue
		}

		duplicate := false
		for _, seen := range out.Rows {
			if rowsEqual(row, seen, ds.Columns) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out.AppendRow(row)
		}
	}
	return out
}

func rowsEqual(a, b model.Row, columns []string) bool {
	for _, col := range columns {
		if !a.Get(col).Equal(b.Get(col)) {
			return false
		}
	}
	return true
}
