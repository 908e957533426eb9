package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Book struct {
		// TickScale is the number of decimal places a price tick
		// represents when prices are rendered.
		TickScale          int32 `yaml:"tick_scale"`
		OrderCapacity      int   `yaml:"order_capacity"`
		LevelCapacity      int   `yaml:"level_capacity"`
		LimitSampleMin     int   `yaml:"limit_sample_min"`
		StopSampleMin      int   `yaml:"stop_sample_min"`
		StopLimitSampleMin int   `yaml:"stop_limit_sample_min"`
	} `yaml:"book"`
	WAL struct {
		EntryDir        string        `yaml:"entry_dir"`
		ExitDir         string        `yaml:"exit_dir"`
		SegmentSize     int64         `yaml:"segment_size"`
		SegmentDuration time.Duration `yaml:"segment_duration"`
	} `yaml:"wal"`
	Snapshot struct {
		Dir      string        `yaml:"dir"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"snapshot"`
	Kafka struct {
		Enabled    bool          `yaml:"enabled"`
		Client     string        `yaml:"client"`
		Brokers    []string      `yaml:"brokers"`
		Topic      string        `yaml:"topic"`
		Interval   time.Duration `yaml:"interval"`
		MaxRetries uint32        `yaml:"max_retries"`
	} `yaml:"kafka"`
	GRPC struct {
		Addr string `yaml:"addr"`
	} `yaml:"grpc"`
	HTTP struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"http"`
}

const (
	ClientSarama  = "sarama"
	ClientKafkaGo = "kafka-go"
)

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Book.TickScale = 2
	c.Book.OrderCapacity = 1 << 16
	c.Book.LevelCapacity = 1 << 12
	c.Book.LimitSampleMin = 10000
	c.Book.StopSampleMin = 500
	c.Book.StopLimitSampleMin = 500
	c.WAL.EntryDir = "./wal_entry"
	c.WAL.ExitDir = "./wal_exit"
	c.WAL.SegmentSize = 2 << 20
	c.WAL.SegmentDuration = time.Minute
	c.Snapshot.Dir = "./snapshots"
	c.Snapshot.Interval = 30 * time.Second
	c.Kafka.Enabled = false
	c.Kafka.Client = ClientSarama
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.Topic = "matchbook.executions"
	c.Kafka.Interval = 250 * time.Millisecond
	c.Kafka.MaxRetries = 5
	c.GRPC.Addr = ":50051"
	c.HTTP.Addr = ":8080"
	c.HTTP.ReadTimeout = 5 * time.Second
	c.HTTP.WriteTimeout = 10 * time.Second
	return c
}

// Load starts from the defaults, applies the YAML file named by
// MATCHBOOK_CONFIG if any, then the environment overrides.
func Load() (Config, error) {
	c := defaultConfig()
	if path := os.Getenv("MATCHBOOK_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("MATCHBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MATCHBOOK_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("MATCHBOOK_GRPC_ADDR"); v != "" {
		c.GRPC.Addr = v
	}
	if v := os.Getenv("MATCHBOOK_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("MATCHBOOK_WAL_DIR"); v != "" {
		c.WAL.EntryDir = v
	}
	if v := os.Getenv("MATCHBOOK_OUTBOX_DIR"); v != "" {
		c.WAL.ExitDir = v
	}
	if v := os.Getenv("MATCHBOOK_SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_ENABLED"); v == "1" || v == "true" {
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_CLIENT"); v != "" {
		c.Kafka.Client = v
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("MATCHBOOK_TICK_SCALE"); v != "" {
		var n int32
		if _, err := fmt.Sscan(v, &n); err == nil {
			c.Book.TickScale = n
		}
	}
	return c, nil
}

// Validate reports every setting that cannot work, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Book.TickScale < 0 || c.Book.TickScale > 8 {
		errs = append(errs, fmt.Errorf("book.tick_scale %d out of range [0,8]", c.Book.TickScale))
	}
	if c.WAL.EntryDir == "" || c.WAL.ExitDir == "" {
		errs = append(errs, errors.New("wal.entry_dir and wal.exit_dir are required"))
	}
	if c.WAL.SegmentSize <= 0 {
		errs = append(errs, fmt.Errorf("wal.segment_size must be positive, got %d", c.WAL.SegmentSize))
	}
	if c.Snapshot.Interval <= 0 {
		errs = append(errs, fmt.Errorf("snapshot.interval must be positive, got %s", c.Snapshot.Interval))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.brokers and kafka.topic are required when kafka is enabled"))
		}
		if c.Kafka.Client != ClientSarama && c.Kafka.Client != ClientKafkaGo {
			errs = append(errs, fmt.Errorf("kafka.client must be %q or %q, got %q", ClientSarama, ClientKafkaGo, c.Kafka.Client))
		}
	}
	if c.GRPC.Addr == "" && c.HTTP.Addr == "" {
		errs = append(errs, errors.New("at least one of grpc.addr and http.addr is required"))
	}
	return errors.Join(errs...)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
