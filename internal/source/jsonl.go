package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"eventScope/internal/model"
)

// JsonlConfig configures a JSONL transaction replay.
type JsonlConfig struct {
	Path        string
	FromVersion uint64
	// ToVersion bounds the replay inclusively; 0 reads to end of file.
	ToVersion uint64
	BatchSize uint64
}

// JsonlSource reads one RawTransaction per line and groups the transactions
// into batches of BatchSize versions aligned on FromVersion.
type JsonlSource struct {
	cfg     JsonlConfig
	file    *os.File
	scanner *bufio.Scanner
	line    int

	pending *model.RawTransaction
	last    uint64
	seen    bool
	done    bool
}

func NewJsonlSource(cfg JsonlConfig) (*JsonlSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.ToVersion != 0 && cfg.ToVersion < cfg.FromVersion {
		return nil, fmt.Errorf("to version must be >= from version")
	}

	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	return &JsonlSource{cfg: cfg, file: file, scanner: scanner}, nil
}

func (s *JsonlSource) Close() error {
	return s.file.Close()
}

// Next implements Source.
func (s *JsonlSource) Next(ctx context.Context) (model.TransactionBatch, error) {
	first, err := s.nextInRange(ctx)
	if err != nil {
		return model.TransactionBatch{}, err
	}

	window, err := WindowOf(first.Version, s.cfg.FromVersion, s.cfg.BatchSize)
	if err != nil {
		return model.TransactionBatch{}, err
	}
	if s.cfg.ToVersion != 0 && window.To > s.cfg.ToVersion {
		window.To = s.cfg.ToVersion
	}

	batch := model.TransactionBatch{
		StartVersion: window.From,
		EndVersion:   window.To,
		Transactions: []model.RawTransaction{first},
	}
	for {
		txn, err := s.nextInRange(ctx)
		if err == io.EOF {
			// A trailing partial window only covers what the file holds.
			if s.cfg.ToVersion == 0 || s.last < window.To {
				batch.EndVersion = s.last
			}
			return batch, nil
		}
		if err != nil {
			return model.TransactionBatch{}, err
		}
		if !window.Contains(txn.Version) {
			s.pending = &txn
			return batch, nil
		}
		batch.Transactions = append(batch.Transactions, txn)
	}
}

func (s *JsonlSource) nextInRange(ctx context.Context) (model.RawTransaction, error) {
	if s.pending != nil {
		txn := *s.pending
		s.pending = nil
		return txn, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.RawTransaction{}, err
		}
		txn, err := s.read()
		if err != nil {
			return model.RawTransaction{}, err
		}
		if txn.Version < s.cfg.FromVersion {
			continue
		}
		if s.cfg.ToVersion != 0 && txn.Version > s.cfg.ToVersion {
			s.done = true
			return model.RawTransaction{}, io.EOF
		}
		return txn, nil
	}
}

func (s *JsonlSource) read() (model.RawTransaction, error) {
	if s.done {
		return model.RawTransaction{}, io.EOF
	}
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var txn model.RawTransaction
		if err := json.Unmarshal(line, &txn); err != nil {
			return model.RawTransaction{}, fmt.Errorf("decode line %d: %w", s.line, err)
		}
		if s.seen && txn.Version <= s.last {
			return model.RawTransaction{}, fmt.Errorf("line %d: version %d is not after %d", s.line, txn.Version, s.last)
		}
		s.seen = true
		s.last = txn.Version
		return txn, nil
	}
	if err := s.scanner.Err(); err != nil {
		return model.RawTransaction{}, fmt.Errorf("scan input: %w", err)
	}
	s.done = true
	return model.RawTransaction{}, io.EOF
}
