package storage

import (
	"context"

	"eventScope/internal/model"
)

// EventWriter writes one bounded chunk of events inside an open transaction.
type EventWriter interface {
	InsertEvents(ctx context.Context, events []model.Event) error
}

// EventStore runs fn inside a single transaction. The transaction commits
// only if fn returns nil and is rolled back on any error or panic.
type EventStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, w EventWriter) error) error
}
