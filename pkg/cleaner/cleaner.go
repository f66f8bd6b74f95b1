// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/model"
)

// EntityKind selects which rule set applies to a source dataset
type EntityKind int

const (
	EntityGeneric EntityKind = iota
	EntityCustomer
	EntityPurchase
)

// String returns a string representation of the entity kind
func (k EntityKind) String() string {
	switch k {
	case EntityCustomer:
		return "customer"
	case EntityPurchase:
		return "purchase"
	case EntityGeneric:
		return "generic"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// DetectEntityKind inspects a source object name and picks the rule set.
// Matching is case-insensitive substring matching; anything unrecognized
// falls back to the generic cleaner.
func DetectEntityKind(source string) EntityKind {
	name := strings.ToLower(source)
	switch {
	case strings.Contains(name, "client") || strings.Contains(name, "customer"):
		return EntityCustomer
	case strings.Contains(name, "achat") || strings.Contains(name, "purchase"):
		return EntityPurchase
	default:
		return EntityGeneric
	}
}

// DataCleaner applies silver-layer cleaning rules to raw datasets
type DataCleaner struct {
	logger *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &DataCleaner{logger: logger}, nil
}

// Clean applies the rule set selected from the source name and returns the
// cleaned dataset with a summary of what was removed. Malformed cells are
// coerced to null rather than failing the run; Clean errors only on a nil
// input dataset.
func (c *DataCleaner) Clean(ds *model.Dataset, source string) (*model.Dataset, *model.CleaningSummary, error) {
	if ds == nil {
		return nil, nil, errors.New("dataset cannot be nil")
	}

	kind := DetectEntityKind(source)
	originalRows := ds.Len()

	var cleaned *model.Dataset
	switch kind {
	case EntityCustomer:
		cleaned = cleanCustomers(ds)
	case EntityPurchase:
		cleaned = cleanPurchases(ds)
	default:
		cleaned = cleanGeneric(ds)
	}

	summary := &model.CleaningSummary{
		Source:       source,
		EntityKind:   kind.String(),
		OriginalRows: originalRows,
		CleanedRows:  cleaned.Len(),
		RemovedRows:  originalRows - cleaned.Len(),
		NullCounts:   cleaned.NullCounts(),
	}

	c.logger.Info("Cleaned dataset",
		zap.String("source", source),
		zap.String("entity_kind", kind.String()),
		zap.Int("original_rows", summary.OriginalRows),
		zap.Int("cleaned_rows", summary.CleanedRows),
		zap.Int("removed_rows", summary.RemovedRows),
	)
	for col, nulls := range summary.NullCounts {
		if nulls > 0 {
			c.logger.Debug("Nulls remaining after cleaning",
				zap.String("source", source),
				zap.String("column", col),
				zap.Int("count", nulls),
			)
		}
	}

	return cleaned, summary, nil
}
