// cmd/medallion/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/datapraxis/medallion/pkg/config"
	"github.com/datapraxis/medallion/pkg/pipeline"
	"github.com/datapraxis/medallion/pkg/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "medallion",
		Short: "Batch pipeline from raw CSV sources to queryable document collections",
		Long: `medallion ingests raw transactional CSV datasets from object storage,
cleans them into a silver layer, derives gold analytical artifacts, and
synchronizes the results idempotently into MongoDB collections.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newStageCmd("silver", "Clean raw sources into the silver layer", false,
			func(ctx context.Context, p *pipeline.Pipeline) error { return p.RunSilver(ctx) }),
		newStageCmd("gold", "Compute gold artifacts from the silver layer", false,
			func(ctx context.Context, p *pipeline.Pipeline) error { return p.RunGold(ctx) }),
		newStageCmd("sync", "Synchronize gold artifacts into the document store", true,
			func(ctx context.Context, p *pipeline.Pipeline) error { return p.RunSync(ctx) }),
		newStageCmd("run", "Run silver, gold and sync in order", true,
			func(ctx context.Context, p *pipeline.Pipeline) error { return p.Run(ctx) }),
	)
	return root
}

// newStageCmd builds a stage subcommand. MongoDB is only dialed when the
// stage actually writes documents; silver and gold run without it.
func newStageCmd(name, short string, needsDocs bool, run func(context.Context, *pipeline.Pipeline) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// A missing .env file is fine; environment variables win
			_ = godotenv.Load()

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			blobs, err := store.NewMinioStore(cfg.Minio, logger)
			if err != nil {
				return err
			}

			var docs store.DocumentStore
			if needsDocs {
				mongoStore, err := store.NewMongoStore(ctx, cfg.Mongo, logger)
				if err != nil {
					return err
				}
				defer func() {
					if err := mongoStore.Close(context.Background()); err != nil {
						logger.Warn("Failed to disconnect document store", zap.Error(err))
					}
				}()
				docs = mongoStore
			}

			p, err := pipeline.New(cfg, blobs, docs, logger)
			if err != nil {
				return err
			}

			logger.Info("Starting stage",
				zap.String("stage", name),
				zap.String("run_id", p.RunID()),
			)
			return run(ctx, p)
		},
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
