package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"eventScope/internal/config"
	"eventScope/internal/filter"
	"eventScope/internal/indexer"
	"eventScope/internal/processor"
	"eventScope/internal/source"
	"eventScope/internal/storage"
	"eventScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Aptos event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index tracked events from a transaction source",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("source", config.SourceJsonl, "transaction source (jsonl, kafka)")
	runCmd.Flags().String("in", "", "input transactions JSONL (jsonl source)")
	runCmd.Flags().StringSlice("kafka-brokers", nil, "kafka brokers (comma-separated)")
	runCmd.Flags().String("kafka-topic", "", "kafka topic carrying transaction batches")
	runCmd.Flags().Int32("kafka-partition", 0, "kafka partition to consume")
	runCmd.Flags().Int64("kafka-offset", source.OffsetOldest, "first kafka offset (-2 oldest, -1 newest)")
	runCmd.Flags().Uint64("from", 0, "start version (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end version (inclusive), 0 means no bound")
	runCmd.Flags().Uint64("batch-size", 1000, "versions per batch (jsonl source)")
	runCmd.Flags().String("sink", config.SinkPostgres, "event sink (postgres, jsonl)")
	runCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL (jsonl sink)")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Int("chunk-size", processor.DefaultChunkSize, "records per insert statement")
	runCmd.Flags().StringSlice("event-type", nil, "tracked event types address::module::name (comma-separated)")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (jsonl sink)")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts per batch")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("metrics-addr", "", "address for /metrics and /healthz, empty disables")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	eventTypes, err := indexer.ParseEventTypes(cfg.EventTypes)
	if err != nil {
		return err
	}
	eventFilter := filter.New(eventTypes...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store      storage.EventStore
		checkpoint indexer.CheckpointStore = indexer.NopCheckpointStore{}
	)
	switch cfg.Sink {
	case config.SinkPostgres:
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.DBCheckpointStore{Store: pgStore, Name: "event_processor"}
		}
	case config.SinkJsonl:
		store = storage.NewJsonlStorage(cfg.Out)
		if cfg.CheckpointEnabled {
			checkpoint = indexer.NewFileCheckpointStore(cfg.Checkpoint)
		}
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	registry := prometheus.NewRegistry()
	proc := processor.New(processor.Config{ChunkSize: cfg.ChunkSize}, eventFilter, store, processor.NewMetrics(registry), logger)

	runner := indexer.NewRunner(indexer.RunConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, src, proc, checkpoint, logger)

	logger.Info("indexer start",
		zap.String("source", cfg.Source),
		zap.String("sink", cfg.Sink),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("from", cfg.FromVersion),
		zap.Uint64("to", cfg.ToVersion),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Stringers("event_types", eventFilter.Types()),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return runner.Run(runCtx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(runCtx, cfg.MetricsAddr, registry, logger)
		})
	}

	return g.Wait()
}

func newSource(cfg config.Config) (source.Source, error) {
	switch cfg.Source {
	case config.SourceKafka:
		return source.NewKafkaSource(source.KafkaConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.KafkaTopic,
			Partition:   cfg.KafkaPartition,
			Offset:      cfg.KafkaOffset,
			FromVersion: cfg.FromVersion,
			ToVersion:   cfg.ToVersion,
		})
	default:
		return source.NewJsonlSource(source.JsonlConfig{
			Path:        cfg.In,
			FromVersion: cfg.FromVersion,
			ToVersion:   cfg.ToVersion,
			BatchSize:   cfg.BatchSize,
		})
	}
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
