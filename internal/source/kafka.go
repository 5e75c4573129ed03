package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/IBM/sarama"

	"eventScope/internal/model"
)

// Offsets understood by KafkaConfig besides absolute ones.
const (
	OffsetOldest = sarama.OffsetOldest
	OffsetNewest = sarama.OffsetNewest
)

// KafkaConfig configures a Kafka transaction batch feed.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	Partition int32
	// Offset is the first offset to consume: an absolute offset,
	// OffsetOldest or OffsetNewest.
	Offset      int64
	FromVersion uint64
	// ToVersion stops the feed after the batch covering it; 0 means unbounded.
	ToVersion uint64
}

// KafkaSource consumes one partition whose messages each carry a JSON
// encoded TransactionBatch. Delivery is at-least-once.
type KafkaSource struct {
	cfg      KafkaConfig
	consumer sarama.Consumer
	pc       sarama.PartitionConsumer
	errs     <-chan *sarama.ConsumerError
	done     bool
}

func NewKafkaSource(cfg KafkaConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no brokers")
	}

	scfg := sarama.NewConfig()
	scfg.Version = sarama.V2_1_0_0
	scfg.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumer(cfg.Brokers, scfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	src, err := newKafkaSource(cfg, consumer)
	if err != nil {
		consumer.Close()
		return nil, err
	}
	return src, nil
}

func newKafkaSource(cfg KafkaConfig, consumer sarama.Consumer) (*KafkaSource, error) {
	if cfg.Topic == "" {
		return nil, errors.New("topic empty")
	}
	if cfg.ToVersion != 0 && cfg.ToVersion < cfg.FromVersion {
		return nil, fmt.Errorf("to version must be >= from version")
	}
	if cfg.Offset < 0 && cfg.Offset != OffsetOldest && cfg.Offset != OffsetNewest {
		return nil, fmt.Errorf("invalid offset %d", cfg.Offset)
	}

	pc, err := consumer.ConsumePartition(cfg.Topic, cfg.Partition, cfg.Offset)
	if err != nil {
		return nil, fmt.Errorf("consume %s/%d: %w", cfg.Topic, cfg.Partition, err)
	}
	return &KafkaSource{cfg: cfg, consumer: consumer, pc: pc, errs: pc.Errors()}, nil
}

func (s *KafkaSource) Close() error {
	pcErr := s.pc.Close()
	if err := s.consumer.Close(); err != nil {
		return err
	}
	return pcErr
}

// Next implements Source. Batches entirely before FromVersion are dropped.
func (s *KafkaSource) Next(ctx context.Context) (model.TransactionBatch, error) {
	for {
		if s.done {
			return model.TransactionBatch{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return model.TransactionBatch{}, ctx.Err()
		case cerr, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			return model.TransactionBatch{}, fmt.Errorf("consume: %w", cerr)
		case msg, ok := <-s.pc.Messages():
			if !ok {
				s.done = true
				return model.TransactionBatch{}, io.EOF
			}
			batch, err := decodeBatch(msg.Value)
			if err != nil {
				return model.TransactionBatch{}, fmt.Errorf("offset %d: %w", msg.Offset, err)
			}
			if batch.EndVersion < s.cfg.FromVersion {
				continue
			}
			if s.cfg.ToVersion != 0 {
				if batch.StartVersion > s.cfg.ToVersion {
					s.done = true
					return model.TransactionBatch{}, io.EOF
				}
				if batch.EndVersion >= s.cfg.ToVersion {
					s.done = true
				}
			}
			return batch, nil
		}
	}
}

func decodeBatch(value []byte) (model.TransactionBatch, error) {
	var batch model.TransactionBatch
	if err := json.Unmarshal(value, &batch); err != nil {
		return model.TransactionBatch{}, fmt.Errorf("decode batch: %w", err)
	}
	if batch.EndVersion < batch.StartVersion {
		return model.TransactionBatch{}, fmt.Errorf("batch end version %d before start %d", batch.EndVersion, batch.StartVersion)
	}
	return batch, nil
}
