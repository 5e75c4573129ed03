package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"eventScope/internal/model"
	"eventScope/internal/storage"
)

// execTx records Exec calls; the other pgx.Tx methods are not used by txWriter.
type execTx struct {
	pgx.Tx
	sqls    []string
	argLens []int
	err     error
}

func (tx *execTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.sqls = append(tx.sqls, sql)
	tx.argLens = append(tx.argLens, len(args))
	if tx.err != nil {
		return pgconn.CommandTag{}, tx.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestBuildInsertEvents(t *testing.T) {
	insertedAt := time.Unix(1700000000, 0).UTC()
	events := []model.Event{
		{TransactionVersion: "10", EventIndex: "0", SequenceNumber: "1", CreationNumber: "2", AccountAddress: "0xabc", Type: "t", Data: "{}", TransactionBlockHeight: "5", InsertedAt: insertedAt},
		{TransactionVersion: "10", EventIndex: "1", SequenceNumber: "3", CreationNumber: "2", AccountAddress: "0xabc", Type: "t", Data: "{}", TransactionBlockHeight: "5", InsertedAt: insertedAt},
	}

	sql, args := buildInsertEvents(events)

	if len(args) != 2*len(eventColumns) {
		t.Fatalf("arg count mismatch: %d", len(args))
	}
	if !strings.Contains(sql, "($1, $2, $3, $4, $5, $6, $7, $8, $9), ($10, $11, $12, $13, $14, $15, $16, $17, $18)") {
		t.Fatalf("placeholders mismatch: %s", sql)
	}
	if !strings.HasSuffix(sql, "ON CONFLICT (transaction_version, event_index) DO NOTHING") {
		t.Fatalf("missing conflict clause: %s", sql)
	}
	if args[9] != "10" || args[10] != "1" || args[11] != "3" {
		t.Fatalf("second row args mismatch: %v", args[9:12])
	}
	if args[17] != insertedAt {
		t.Fatalf("inserted_at mismatch: %v", args[17])
	}
}

func TestBuildInsertEventsChunkFitsParamLimit(t *testing.T) {
	events := make([]model.Event, 100)
	_, args := buildInsertEvents(events)
	if len(args) > 65535 {
		t.Fatalf("chunk exceeds postgres parameter limit: %d", len(args))
	}
}

func TestTxWriterInsertEvents(t *testing.T) {
	tx := &execTx{}
	w := &txWriter{tx: tx}
	ctx := context.Background()

	if err := w.InsertEvents(ctx, nil); err != nil {
		t.Fatalf("empty chunk: %v", err)
	}
	if len(tx.sqls) != 0 {
		t.Fatalf("empty chunk should not reach the database, got %d execs", len(tx.sqls))
	}

	if err := storage.WriteChunks(ctx, w, make([]model.Event, 250), 100); err != nil {
		t.Fatalf("write chunks: %v", err)
	}
	if len(tx.sqls) != 3 {
		t.Fatalf("expected one exec per chunk, got %d", len(tx.sqls))
	}
	want := []int{100 * len(eventColumns), 100 * len(eventColumns), 50 * len(eventColumns)}
	for i, n := range want {
		if tx.argLens[i] != n {
			t.Fatalf("exec %d arg count mismatch: %d != %d", i, tx.argLens[i], n)
		}
		if !strings.HasPrefix(tx.sqls[i], "INSERT INTO events") {
			t.Fatalf("exec %d unexpected sql: %s", i, tx.sqls[i])
		}
	}
}

func TestTxWriterInsertEventsError(t *testing.T) {
	tx := &execTx{err: errors.New("too many parameters")}
	w := &txWriter{tx: tx}

	if err := w.InsertEvents(context.Background(), make([]model.Event, 1)); err == nil {
		t.Fatalf("expected exec error")
	}
}
