// Package config loads the content store configuration from YAML files with
// environment-variable overrides. Every subsystem (store files, persistence
// retries, Postgres, Kafka, Redis, logging, metrics) has its own typed struct.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Server      ServerConfig      `yaml:"server"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// Backend names accepted by StoreConfig.Backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// StoreConfig describes where records live and how the in-memory side
// structures are bounded. A zero limit means unbounded.
type StoreConfig struct {
	Backend           string `yaml:"backend"`
	DataDir           string `yaml:"dataDir"`
	UsersFile         string `yaml:"usersFile"`
	PostsFile         string `yaml:"postsFile"`
	CommentsFile      string `yaml:"commentsFile"`
	LikesFile         string `yaml:"likesFile"`
	ActivityLog       string `yaml:"activityLog"`
	UndoLimit         int    `yaml:"undoLimit"`
	NotificationLimit int    `yaml:"notificationLimit"`
}

// Path joins name onto the data directory.
func (s StoreConfig) Path(name string) string {
	return filepath.Join(s.DataDir, name)
}

// PersistenceConfig controls retries around snapshot writes.
type PersistenceConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server settings for the activity service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	SnapshotEvery   time.Duration `yaml:"snapshotEvery"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker, topic, and batching settings.
type KafkaConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics"`
	BufferSize    int           `yaml:"bufferSize"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Activity string `yaml:"activity"`
}

// RedisConfig holds Redis connection and ranking cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles span logging around CLI commands.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus admin server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Store.Backend)
	}
	if c.Store.UndoLimit < 0 || c.Store.NotificationLimit < 0 {
		return fmt.Errorf("store limits must not be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.enabled requires at least one broker")
	}
	return nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:      BackendFile,
			DataDir:      "data",
			UsersFile:    "users.txt",
			PostsFile:    "posts.txt",
			CommentsFile: "comments.txt",
			LikesFile:    "likes.txt",
			ActivityLog:  "log.txt",
		},
		Persistence: PersistenceConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Timeout:      5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "contentstore",
			User:            "contentstore",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			SnapshotEvery:   time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "contentstore-activity",
			Topics: KafkaTopics{
				Activity: "content-activity",
			},
			BufferSize:    1024,
			BatchSize:     50,
			FlushInterval: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 5,
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("CS_STORE_DATA_DIR"); v != "" {
		cfg.Store.DataDir = v
	}
	if v, ok := envInt("CS_STORE_UNDO_LIMIT"); ok {
		cfg.Store.UndoLimit = v
	}
	if v, ok := envInt("CS_STORE_NOTIFICATION_LIMIT"); ok {
		cfg.Store.NotificationLimit = v
	}
	if v, ok := envInt("CS_SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v, ok := envInt("CS_POSTGRES_PORT"); ok {
		cfg.Postgres.Port = v
	}
	if v := os.Getenv("CS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v, ok := envBool("CS_KAFKA_ENABLED"); ok {
		cfg.Kafka.Enabled = v
	}
	if v := os.Getenv("CS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := envBool("CS_REDIS_ENABLED"); ok {
		cfg.Redis.Enabled = v
	}
	if v := os.Getenv("CS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := envBool("CS_METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = v
	}
	if v, ok := envInt("CS_METRICS_PORT"); ok {
		cfg.Metrics.Port = v
	}
	if v, ok := envBool("CS_TRACING_ENABLED"); ok {
		cfg.Tracing.Enabled = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
