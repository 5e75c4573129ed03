package storage

import (
	"context"
	"fmt"

	"eventScope/internal/model"
)

// WriteChunks writes events through w in sequential chunks of at most size
// records, preserving order. It stops at the first failing chunk.
func WriteChunks(ctx context.Context, w EventWriter, events []model.Event, size int) error {
	if size <= 0 {
		return fmt.Errorf("chunk size must be greater than zero")
	}

	for start := 0; start < len(events); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + size
		if end > len(events) {
			end = len(events)
		}
		if err := w.InsertEvents(ctx, events[start:end]); err != nil {
			return fmt.Errorf("write chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}
