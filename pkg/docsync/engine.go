// pkg/docsync/engine.go

// Package docsync upserts normalized documents into per-artifact
// collections so that repeated pipeline runs converge instead of
// accumulating.
//
// Two behaviors are intentional and should be understood by integrators:
//
//   - A keyed document whose id value failed integer coercion carries a
//     null key. The upsert filter then matches every other null-keyed
//     document in the collection, so all such rows merge into one stored
//     document.
//   - Keyless collections are append-only. Running the sync twice for the
//     same artifact duplicates every document; there is no dedup on this
//     path.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/normalizer"
	"github.com/datapraxis/medallion/pkg/store"
)

// WrittenAtField is the system-assigned write timestamp field. It is not
// business data and is excluded from external reads of the payload.
const WrittenAtField = "_written_at"

// Engine synchronizes documents into the document store
type Engine struct {
	docs   store.DocumentStore
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a new sync engine
func NewEngine(docs store.DocumentStore, logger *zap.Logger) (*Engine, error) {
	if docs == nil {
		return nil, errors.New("document store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Engine{docs: docs, logger: logger, now: time.Now}, nil
}

// Sync writes one artifact's documents to its collection. Keyed documents
// are upserted one atomic replace per key; running Sync twice with the
// same content leaves one logical document per key with only the write
// timestamp advanced. Keyless documents go through a best-effort bulk
// insert that degrades to per-document inserts, skipping individual
// failures.
func (e *Engine) Sync(ctx context.Context, collection string, keyed bool, docs []map[string]interface{}) error {
	if len(docs) == 0 {
		e.logger.Debug("Nothing to sync", zap.String("collection", collection))
		return nil
	}

	// One stamp per sync call: every document written by this call
	// carries this call's execution time, not a prior run's
	stamp := e.now().UTC()
	stamped := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		withStamp := make(map[string]interface{}, len(doc)+1)
		for k, v := range doc {
			withStamp[k] = v
		}
		withStamp[WrittenAtField] = stamp
		stamped[i] = withStamp
	}

	if keyed {
		return e.syncKeyed(ctx, collection, stamped)
	}
	return e.syncKeyless(ctx, collection, stamped)
}

func (e *Engine) syncKeyed(ctx context.Context, collection string, docs []map[string]interface{}) error {
	for _, doc := range docs {
		key := doc[normalizer.KeyField]
		if err := e.docs.Upsert(ctx, collection, normalizer.KeyField, key, doc); err != nil {
			return fmt.Errorf("upsert into %s failed: %w", collection, err)
		}
	}

	e.logger.Info("Synced keyed collection",
		zap.String("collection", collection),
		zap.Int("documents", len(docs)),
	)
	return nil
}

func (e *Engine) syncKeyless(ctx context.Context, collection string, docs []map[string]interface{}) error {
	err := e.docs.InsertMany(ctx, collection, docs)
	if err == nil {
		e.logger.Info("Synced keyless collection",
			zap.String("collection", collection),
			zap.Int("documents", len(docs)),
		)
		return nil
	}

	// Bulk insert failed: degrade to one document at a time, skipping
	// documents that individually fail
	e.logger.Warn("Bulk insert failed, falling back to per-document inserts",
		zap.String("collection", collection),
		zap.Error(err),
	)

	inserted := 0
	for _, doc := range docs {
		if insErr := e.docs.InsertOne(ctx, collection, doc); insErr != nil {
			e.logger.Warn("Skipping document that failed to insert",
				zap.String("collection", collection),
				zap.Error(insErr),
			)
			continue
		}
		inserted++
	}

	e.logger.Info("Synced keyless collection with fallback",
		zap.String("collection", collection),
		zap.Int("documents", len(docs)),
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(docs)-inserted),
	)
	return nil
}
