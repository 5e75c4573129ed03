package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventScope/internal/model"
	"eventScope/internal/storage"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
	transaction_version      NUMERIC     NOT NULL,
	event_index              NUMERIC     NOT NULL,
	sequence_number          NUMERIC     NOT NULL,
	creation_number          NUMERIC     NOT NULL,
	account_address          TEXT        NOT NULL,
	type                     TEXT        NOT NULL,
	data                     JSONB       NOT NULL,
	transaction_block_height NUMERIC     NOT NULL,
	inserted_at              TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (transaction_version, event_index)
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_account_address ON events(account_address);

CREATE TABLE IF NOT EXISTS indexer_state (
	name                   TEXT        PRIMARY KEY,
	last_processed_version NUMERIC     NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var eventColumns = []string{
	"transaction_version",
	"event_index",
	"sequence_number",
	"creation_number",
	"account_address",
	"type",
	"data",
	"transaction_block_height",
	"inserted_at",
}

// Store provides Postgres persistence for extracted events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the events and indexer_state tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InTx runs fn in one database transaction. pgx.BeginFunc rolls back when fn
// returns an error or panics and commits otherwise.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, w storage.EventWriter) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txWriter{tx: tx})
	})
}

type txWriter struct {
	tx pgx.Tx
}

// InsertEvents inserts one chunk with a single multi-row statement.
// Rows already present for (transaction_version, event_index) are left as is,
// so replaying a range is a no-op.
func (w *txWriter) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	sql, args := buildInsertEvents(events)
	_, err := w.tx.Exec(ctx, sql, args...)
	return err
}

func buildInsertEvents(events []model.Event) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO events (")
	b.WriteString(strings.Join(eventColumns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(events)*len(eventColumns))
	for i, ev := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		base := i * len(eventColumns)
		for j := range eventColumns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", base+j+1)
		}
		b.WriteByte(')')

		args = append(args,
			ev.TransactionVersion,
			ev.EventIndex,
			ev.SequenceNumber,
			ev.CreationNumber,
			ev.AccountAddress,
			ev.Type,
			ev.Data,
			ev.TransactionBlockHeight,
			ev.InsertedAt,
		)
	}
	b.WriteString(" ON CONFLICT (transaction_version, event_index) DO NOTHING")
	return b.String(), args
}

// LoadState returns last_processed_version for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var version uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_version FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return version, true, nil
}

// SaveState upserts last_processed_version for a name.
func (s *Store) SaveState(ctx context.Context, name string, version uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_version, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_version = EXCLUDED.last_processed_version, updated_at = now()
	`, name, version)
	return err
}
