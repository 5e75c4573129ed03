package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"eventScope/internal/source"
)

const (
	SourceJsonl = "jsonl"
	SourceKafka = "kafka"

	SinkPostgres = "postgres"
	SinkJsonl    = "jsonl"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Source            string
	In                string
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaPartition    int32
	KafkaOffset       int64
	FromVersion       uint64
	ToVersion         uint64
	BatchSize         uint64
	Sink              string
	Out               string
	PGDSN             string
	ChunkSize         int
	EventTypes        []string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceJsonl)
	v.SetDefault("kafka-offset", source.OffsetOldest)
	v.SetDefault("batch-size", uint64(1000))
	v.SetDefault("sink", SinkPostgres)
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("chunk-size", 100)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Source:            v.GetString("source"),
		In:                v.GetString("in"),
		KafkaBrokers:      getStringSlice(v, "kafka-brokers"),
		KafkaTopic:        v.GetString("kafka-topic"),
		KafkaPartition:    v.GetInt32("kafka-partition"),
		KafkaOffset:       v.GetInt64("kafka-offset"),
		FromVersion:       v.GetUint64("from"),
		ToVersion:         v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Sink:              v.GetString("sink"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		ChunkSize:         v.GetInt("chunk-size"),
		EventTypes:        getStringSlice(v, "event-type"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks option combinations that flags alone cannot express.
func (c Config) Validate() error {
	switch c.Source {
	case SourceJsonl:
		if c.In == "" {
			return fmt.Errorf("input path is required for jsonl source")
		}
	case SourceKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("kafka brokers and topic are required for kafka source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch c.Sink {
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for postgres sink")
		}
	case SinkJsonl:
		if c.Out == "" {
			return fmt.Errorf("output path is required for jsonl sink")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than zero")
	}
	if c.ToVersion != 0 && c.ToVersion < c.FromVersion {
		return fmt.Errorf("to version must be >= from version")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
