package source

import (
	"context"

	"eventScope/internal/model"
)

// Source delivers ordered transaction batches. Next returns io.EOF once the
// configured range is exhausted.
type Source interface {
	Next(ctx context.Context) (model.TransactionBatch, error)
	Close() error
}
