// pkg/model/cleaning.go
package model

// CleaningSummary reports what a silver cleaning pass did to a dataset.
// It is emitted through the logger for observability and never persisted.
type CleaningSummary struct {
	Source       string         // Source object name
	EntityKind   string         // Rule set applied (customer, purchase, generic)
	OriginalRows int            // Row count before cleaning
	CleanedRows  int            // Row count after cleaning
	RemovedRows  int            // Rows dropped by dedup, validation, or outlier bounds
	NullCounts   map[string]int // Per-column null counts after cleaning
}
