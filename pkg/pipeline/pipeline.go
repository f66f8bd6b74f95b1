// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/cleaner"
	"github.com/datapraxis/medallion/pkg/config"
	"github.com/datapraxis/medallion/pkg/docsync"
	"github.com/datapraxis/medallion/pkg/gold"
	"github.com/datapraxis/medallion/pkg/loader"
	"github.com/datapraxis/medallion/pkg/model"
	"github.com/datapraxis/medallion/pkg/normalizer"
	"github.com/datapraxis/medallion/pkg/store"
)

// Pipeline wires the silver, gold and sync stages over explicit store
// handles. Stages run sequentially; each run re-derives its layer in full
// from the layer below, so re-running a stage replaces rather than merges.
type Pipeline struct {
	cfg        *config.Config
	blobs      store.BlobStore
	cleaner    *cleaner.DataCleaner
	aggregator *gold.Aggregator
	engine     *docsync.Engine
	logger     *zap.Logger
	runID      string
}

// New creates a pipeline bound to the given stores. A fresh run ID is
// attached to all log output from this pipeline instance. The document
// store may be nil for callers that only run the silver and gold stages;
// RunSync then reports the missing store instead of dialing one.
func New(cfg *config.Config, blobs store.BlobStore, docs store.DocumentStore, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if blobs == nil {
		return nil, errors.New("blob store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	dataCleaner, err := cleaner.NewDataCleaner(logger)
	if err != nil {
		return nil, err
	}
	aggregator, err := gold.NewAggregator(logger)
	if err != nil {
		return nil, err
	}

	var engine *docsync.Engine
	if docs != nil {
		engine, err = docsync.NewEngine(docs, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		cfg:        cfg,
		blobs:      blobs,
		cleaner:    dataCleaner,
		aggregator: aggregator,
		engine:     engine,
		logger:     logger,
		runID:      runID,
	}, nil
}

// RunID returns the identifier attached to this pipeline's log output
func (p *Pipeline) RunID() string { return p.runID }

// Run executes silver, gold and sync in order
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	if err := p.RunSilver(ctx); err != nil {
		return err
	}
	if err := p.RunGold(ctx); err != nil {
		return err
	}
	if err := p.RunSync(ctx); err != nil {
		return err
	}

	p.logger.Info("Pipeline run complete", zap.Duration("duration", time.Since(start)))
	return nil
}

// RunSilver reads each configured source object from the sources bucket,
// cleans it with the rule set matching its name, and writes the result to
// the silver bucket. The silver object fully replaces the previous run's
// version.
func (p *Pipeline) RunSilver(ctx context.Context) error {
	start := time.Now()

	if err := store.EnsureBucket(ctx, p.blobs, p.cfg.SilverBucket); err != nil {
		return fmt.Errorf("silver stage: %w", err)
	}

	for _, object := range p.cfg.SourceObjects {
		data, err := p.blobs.Get(ctx, p.cfg.SourcesBucket, object)
		if err != nil {
			return fmt.Errorf("silver stage: read source %s: %w", object, err)
		}

		ds, err := loader.Load(object, data)
		if err != nil {
			return fmt.Errorf("silver stage: %w", err)
		}

		cleaned, _, err := p.cleaner.Clean(ds, object)
		if err != nil {
			return fmt.Errorf("silver stage: clean %s: %w", object, err)
		}

		out, err := loader.Serialize(cleaned)
		if err != nil {
			return fmt.Errorf("silver stage: serialize %s: %w", object, err)
		}
		if err := p.blobs.Put(ctx, p.cfg.SilverBucket, object, out); err != nil {
			return fmt.Errorf("silver stage: %w", err)
		}
	}

	p.logger.Info("Silver stage complete",
		zap.Int("objects", len(p.cfg.SourceObjects)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// RunGold reads the cleaned silver datasets, computes every gold artifact
// from one consistent snapshot, and only then writes them to the gold
// bucket. No partial artifact set is ever written: a failure while
// computing leaves the gold bucket untouched.
func (p *Pipeline) RunGold(ctx context.Context) error {
	start := time.Now()

	customers, purchases, err := p.readSilver(ctx)
	if err != nil {
		return fmt.Errorf("gold stage: %w", err)
	}

	artifacts, err := p.aggregator.Aggregate(customers, purchases)
	if err != nil {
		return fmt.Errorf("gold stage: %w", err)
	}

	// Serialize everything before the first write so a serialization
	// failure cannot leave a partial artifact set behind
	serialized := make(map[string][]byte, len(artifacts))
	for _, name := range gold.ArtifactNames {
		data, err := loader.Serialize(artifacts[name])
		if err != nil {
			return fmt.Errorf("gold stage: serialize %s: %w", name, err)
		}
		serialized[name] = data
	}

	if err := store.EnsureBucket(ctx, p.blobs, p.cfg.GoldBucket); err != nil {
		return fmt.Errorf("gold stage: %w", err)
	}
	for _, name := range gold.ArtifactNames {
		if err := p.blobs.Put(ctx, p.cfg.GoldBucket, name+".csv", serialized[name]); err != nil {
			return fmt.Errorf("gold stage: write %s: %w", name, err)
		}
	}

	p.logger.Info("Gold stage complete",
		zap.Int("artifacts", len(artifacts)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// readSilver locates the customer and purchase objects among the
// configured sources by the same name-based detection the cleaner uses
func (p *Pipeline) readSilver(ctx context.Context) (customers, purchases *model.Dataset, err error) {
	for _, object := range p.cfg.SourceObjects {
		data, err := p.blobs.Get(ctx, p.cfg.SilverBucket, object)
		if err != nil {
			return nil, nil, fmt.Errorf("read silver %s: %w", object, err)
		}
		ds, err := loader.Load(object, data)
		if err != nil {
			return nil, nil, err
		}

		switch cleaner.DetectEntityKind(object) {
		case cleaner.EntityCustomer:
			customers = ds
		case cleaner.EntityPurchase:
			purchases = ds
		}
	}

	if customers == nil {
		return nil, nil, errors.New("no customer source object configured")
	}
	if purchases == nil {
		return nil, nil, errors.New("no purchase source object configured")
	}
	return customers, purchases, nil
}

// RunSync normalizes each gold artifact into documents and synchronizes
// them into the document store. Artifacts missing from the gold bucket or
// unreadable as delimited text are skipped with a warning; store-level
// failures propagate.
func (p *Pipeline) RunSync(ctx context.Context) error {
	if p.engine == nil {
		return errors.New("sync stage: no document store configured")
	}

	start := time.Now()
	synced := 0

	for _, name := range gold.ArtifactNames {
		object := name + ".csv"
		data, err := p.blobs.Get(ctx, p.cfg.GoldBucket, object)
		if err != nil {
			p.logger.Warn("Skipping gold artifact that could not be read",
				zap.String("object", object),
				zap.Error(err),
			)
			continue
		}

		ds, err := loader.Load(object, data)
		if err != nil {
			p.logger.Warn("Skipping gold artifact that could not be parsed",
				zap.String("object", object),
				zap.Error(err),
			)
			continue
		}

		normalized := normalizer.Normalize(object, ds)
		if err := p.engine.Sync(ctx, normalized.Collection, normalized.Keyed, normalized.Documents); err != nil {
			return fmt.Errorf("sync stage: %w", err)
		}
		synced++
	}

	p.logger.Info("Sync stage complete",
		zap.Int("collections", synced),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
