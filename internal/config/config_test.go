package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"eventScope/internal/source"
)

func TestLoadFromFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	content := `
source: kafka
kafka-brokers:
  - localhost:9092
  - localhost:9093
kafka-topic: aptos-txns
kafka-offset: 0
event-type:
  - 0x1::coin::DepositEvent
pg-dsn: postgres://localhost/events
chunk-size: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("from", 0, "")
	if err := flags.Parse([]string{"--from", "100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Source != SourceKafka || cfg.KafkaTopic != "aptos-txns" {
		t.Fatalf("source mismatch: %+v", cfg)
	}
	if cfg.KafkaOffset != 0 {
		t.Fatalf("explicit offset 0 must be kept: %d", cfg.KafkaOffset)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"localhost:9092", "localhost:9093"}) {
		t.Fatalf("brokers mismatch: %v", cfg.KafkaBrokers)
	}
	if !reflect.DeepEqual(cfg.EventTypes, []string{"0x1::coin::DepositEvent"}) {
		t.Fatalf("event types mismatch: %v", cfg.EventTypes)
	}
	if cfg.FromVersion != 100 || cfg.ChunkSize != 50 || cfg.Sink != SinkPostgres {
		t.Fatalf("values mismatch: %+v", cfg)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || cfg.BatchSize != 1000 {
		t.Fatalf("defaults mismatch: %s %d", cfg.RetryBackoff, cfg.BatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Source: SourceJsonl, In: "txns.jsonl", Sink: SinkJsonl, Out: "events.jsonl", BatchSize: 10, ChunkSize: 100}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(c *Config){
		"unknown source":   func(c *Config) { c.Source = "grpc" },
		"missing input":    func(c *Config) { c.In = "" },
		"kafka no brokers": func(c *Config) { c.Source = SourceKafka; c.KafkaTopic = "t" },
		"unknown sink":     func(c *Config) { c.Sink = "s3" },
		"postgres no dsn":  func(c *Config) { c.Sink = SinkPostgres },
		"zero batch":       func(c *Config) { c.BatchSize = 0 },
		"zero chunk":       func(c *Config) { c.ChunkSize = 0 },
		"inverted range":   func(c *Config) { c.FromVersion = 10; c.ToVersion = 5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadKafkaOffsetDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source", SourceKafka, "")
	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KafkaOffset != source.OffsetOldest {
		t.Fatalf("default offset mismatch: %d", cfg.KafkaOffset)
	}
}
