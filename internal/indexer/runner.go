package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"eventScope/internal/model"
	"eventScope/internal/source"
)

// BatchProcessor persists one version range atomically.
type BatchProcessor interface {
	Name() string
	ProcessTransactions(ctx context.Context, txns []model.RawTransaction, startVersion, endVersion uint64) (model.ProcessingResult, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner pulls batches from a source, hands them to the processor and
// advances the checkpoint after each committed range.
type Runner struct {
	cfg        RunConfig
	source     source.Source
	processor  BatchProcessor
	checkpoint CheckpointStore
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, src source.Source, processor BatchProcessor, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkpoint == nil {
		checkpoint = NopCheckpointStore{}
	}
	return &Runner{
		cfg:        cfg,
		source:     src,
		processor:  processor,
		checkpoint: checkpoint,
		logger:     logger,
	}
}

// Run executes the indexing loop until the source is exhausted or ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("source is nil")
	}
	if r.processor == nil {
		return fmt.Errorf("processor is nil")
	}

	last, resumed, err := r.checkpoint.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if resumed {
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last))
	}

	var batches, skipped int
	for {
		batch, err := r.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("next batch: %w", err)
		}

		if resumed && batch.EndVersion <= last {
			skipped++
			r.logger.Debug("skip processed batch",
				zap.Uint64("start_version", batch.StartVersion),
				zap.Uint64("end_version", batch.EndVersion),
				zap.Uint64("last_processed", last),
			)
			continue
		}
		if resumed && batch.StartVersion <= last {
			batch = trimProcessed(batch, last)
			r.logger.Debug("trim processed versions",
				zap.Uint64("start_version", batch.StartVersion),
				zap.Uint64("end_version", batch.EndVersion),
				zap.Uint64("last_processed", last),
			)
		}

		result, err := r.processWithRetry(ctx, batch)
		if err != nil {
			return fmt.Errorf("process versions [%d, %d]: %w", batch.StartVersion, batch.EndVersion, err)
		}

		if err := r.checkpoint.Save(ctx, result.EndVersion); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		last, resumed = result.EndVersion, true
		batches++

		r.logger.Info("batch complete",
			zap.String("processor", r.processor.Name()),
			zap.Uint64("start_version", result.StartVersion),
			zap.Uint64("end_version", result.EndVersion),
			zap.Int("transactions", len(batch.Transactions)),
		)
	}

	r.logger.Info("source exhausted", zap.Int("batches", batches), zap.Int("skipped", skipped))
	return nil
}

// trimProcessed drops the versions at or below last from a batch that
// straddles the checkpoint.
func trimProcessed(batch model.TransactionBatch, last uint64) model.TransactionBatch {
	txns := make([]model.RawTransaction, 0, len(batch.Transactions))
	for _, txn := range batch.Transactions {
		if txn.Version > last {
			txns = append(txns, txn)
		}
	}
	return model.TransactionBatch{
		StartVersion: last + 1,
		EndVersion:   batch.EndVersion,
		Transactions: txns,
	}
}

func (r *Runner) processWithRetry(ctx context.Context, batch model.TransactionBatch) (model.ProcessingResult, error) {
	var result model.ProcessingResult
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		result, err = r.processor.ProcessTransactions(ctx, batch.Transactions, batch.StartVersion, batch.EndVersion)
		return err
	}, func(attempt int, wait time.Duration, err error) {
		r.logger.Warn("process batch failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Uint64("start_version", batch.StartVersion),
			zap.Uint64("end_version", batch.EndVersion),
		)
	})
	return result, err
}
