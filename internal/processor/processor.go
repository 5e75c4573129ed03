package processor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"eventScope/internal/filter"
	"eventScope/internal/model"
	"eventScope/internal/storage"
)

// DefaultChunkSize keeps one insert statement well under the store's
// bind parameter limit.
const DefaultChunkSize = 100

// Config controls batch persistence.
type Config struct {
	ChunkSize int
}

// Processor extracts tracked events from transaction batches and persists
// each batch atomically.
type Processor struct {
	cfg     Config
	filter  *filter.Filter
	store   storage.EventStore
	metrics *Metrics
	logger  *zap.Logger
}

func New(cfg Config, eventFilter *filter.Filter, store storage.EventStore, metrics *Metrics, logger *zap.Logger) *Processor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if eventFilter == nil {
		eventFilter = filter.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		cfg:     cfg,
		filter:  eventFilter,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

func (p *Processor) Name() string {
	return "event_processor"
}

// ProcessTransactions persists the tracked events of one version range.
// Either every extracted event of the batch is committed or none is; on
// success the input bounds are returned unchanged.
func (p *Processor) ProcessTransactions(ctx context.Context, txns []model.RawTransaction, startVersion, endVersion uint64) (model.ProcessingResult, error) {
	if p.store == nil {
		return model.ProcessingResult{}, fmt.Errorf("store is nil")
	}

	start := time.Now()
	events, err := p.Extract(txns)
	if err != nil {
		p.observe("error", start)
		return model.ProcessingResult{}, fmt.Errorf("extract versions [%d, %d]: %w", startVersion, endVersion, err)
	}

	var chunks int
	err = p.store.InTx(ctx, func(ctx context.Context, w storage.EventWriter) error {
		counted := &countingWriter{EventWriter: w, chunks: &chunks}
		return storage.WriteChunks(ctx, counted, events, p.cfg.ChunkSize)
	})
	if err != nil {
		p.observe("error", start)
		return model.ProcessingResult{}, fmt.Errorf("persist versions [%d, %d]: %w", startVersion, endVersion, err)
	}

	p.observe("ok", start)
	p.metrics.transactions.Add(float64(len(txns)))
	p.metrics.events.Add(float64(len(events)))
	p.metrics.chunks.Add(float64(chunks))
	p.metrics.lastVersion.Set(float64(endVersion))

	p.logger.Debug("batch persisted",
		zap.String("processor", p.Name()),
		zap.Uint64("start_version", startVersion),
		zap.Uint64("end_version", endVersion),
		zap.Int("transactions", len(txns)),
		zap.Int("events", len(events)),
		zap.Int("chunks", chunks),
	)

	return model.ProcessingResult{StartVersion: startVersion, EndVersion: endVersion}, nil
}

// Extract maps tracked events to records in transaction order, then in
// filtered order within each transaction. Non-user transactions are skipped.
func (p *Processor) Extract(txns []model.RawTransaction) ([]model.Event, error) {
	var out []model.Event
	for _, txn := range txns {
		if txn.Type != model.TransactionTypeUser {
			continue
		}
		if txn.User == nil {
			return nil, fmt.Errorf("user transaction %d has no payload", txn.Version)
		}

		version := strconv.FormatUint(txn.Version, 10)
		blockHeight := strconv.FormatUint(txn.BlockHeight, 10)
		insertedAt := txn.Timestamp.Time()

		index := 0
		for i, ev := range txn.User.Events {
			if !p.filter.Included(ev.TypeStr) {
				continue
			}
			if ev.Key == nil {
				return nil, fmt.Errorf("event %d of transaction %d has no key", i, txn.Version)
			}
			out = append(out, model.Event{
				TransactionVersion:     version,
				EventIndex:             strconv.Itoa(index),
				SequenceNumber:         strconv.FormatUint(ev.SequenceNumber, 10),
				CreationNumber:         strconv.FormatUint(ev.Key.CreationNumber, 10),
				AccountAddress:         model.NormalizeAddress(ev.Key.AccountAddress),
				Type:                   ev.TypeStr,
				Data:                   ev.Data,
				TransactionBlockHeight: blockHeight,
				InsertedAt:             insertedAt,
			})
			index++
		}
	}
	return out, nil
}

func (p *Processor) observe(status string, start time.Time) {
	p.metrics.batches.WithLabelValues(status).Inc()
	p.metrics.batchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

type countingWriter struct {
	storage.EventWriter
	chunks *int
}

func (w *countingWriter) InsertEvents(ctx context.Context, events []model.Event) error {
	if err := w.EventWriter.InsertEvents(ctx, events); err != nil {
		return err
	}
	*w.chunks++
	return nil
}
