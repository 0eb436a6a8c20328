// Package config loads the backend configuration of an event store and
// opens the configured collection.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "EVENTSTORAGE_"

// Supported backends.
const (
	BackendMemory    = "memory"
	BackendDisk      = "disk"
	BackendMongoDB   = "mongodb"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendKurrentDB = "kurrentdb"
)

var backends = []string{BackendMemory, BackendDisk, BackendMongoDB, BackendPostgres, BackendSQLite, BackendKurrentDB}

// Config selects and configures the collection records are stored in.
type Config struct {
	// Backend is one of memory, disk, mongodb, postgres, sqlite or kurrentdb.
	Backend string `yaml:"backend" env:"BACKEND"`
	// URI is the MongoDB URI, the PostgreSQL DSN, the SQLite file path or the
	// KurrentDB connection string.
	URI string `yaml:"uri" env:"URI"`
	// Database is the MongoDB database name.
	Database string `yaml:"database" env:"DATABASE"`
	// Collection is the collection, table, directory or stream category of
	// the aggregate category.
	Collection string `yaml:"collection" env:"COLLECTION"`
	// Dir is the base directory of the disk backend.
	Dir string `yaml:"dir" env:"DIR"`
	// Timeout bounds connecting to the backend.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	Kafka Kafka `yaml:"kafka" envPrefix:"KAFKA_"`
	Log   Log   `yaml:"log" envPrefix:"LOG_"`
}

// Kafka enables publishing persisted records when Brokers is not empty.
type Kafka struct {
	Brokers []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"TOPIC"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:    BackendMemory,
		Database:   "eventStore",
		Collection: "events",
		Dir:        "data",
		Timeout:    10 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// EVENTSTORAGE_* environment variables. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q: want one of %s", c.Backend, strings.Join(backends, ", ")))
	}
	if strings.TrimSpace(c.Collection) == "" {
		errs = append(errs, errors.New("collection is required"))
	}

	switch c.Backend {
	case BackendMongoDB:
		if c.URI == "" {
			errs = append(errs, errors.New("uri is required for mongodb"))
		}
		if c.Database == "" {
			errs = append(errs, errors.New("database is required for mongodb"))
		}
	case BackendPostgres, BackendSQLite, BackendKurrentDB:
		if c.URI == "" {
			errs = append(errs, fmt.Errorf("uri is required for %s", c.Backend))
		}
	case BackendDisk:
		if c.Dir == "" {
			errs = append(errs, errors.New("dir is required for disk"))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s must not be negative", c.Timeout))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
