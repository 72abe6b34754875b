package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Cache      CacheConfig      `yaml:"cache"`
	Queue      QueueConfig      `yaml:"queue"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Scoreboard ScoreboardConfig `yaml:"scoreboard"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	Namespace      string        `yaml:"namespace"`
	PoolSize       int           `yaml:"pool_size"`
	MinIdleConns   int           `yaml:"min_idle_conns"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ConnectRetries int           `yaml:"connect_retries"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectRetries  int           `yaml:"connect_retries"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds configuration for the game event consumer
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"group_id"`
	Enabled      bool          `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// CacheConfig holds derived-data cache configuration
type CacheConfig struct {
	Backend        string        `yaml:"backend"`
	ScoreboardTTL  time.Duration `yaml:"scoreboard_ttl"`
	BasicInfoTTL   time.Duration `yaml:"basic_info_ttl"`
	ComputeTimeout time.Duration `yaml:"compute_timeout"`
}

// QueueConfig holds invalidation queue configuration
type QueueConfig struct {
	Capacity       int           `yaml:"capacity"`
	Coalesce       bool          `yaml:"coalesce"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
}

// RefreshConfig holds configuration for the periodic scoreboard rebuild
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	WarmUp   bool          `yaml:"warm_up"`
}

// ScoreboardConfig holds ranking presentation settings
type ScoreboardConfig struct {
	TimelineTopN int `yaml:"timeline_top_n"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Queue: QueueConfig{Coalesce: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = "ctf:"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 50
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.ConnectRetries == 0 {
		c.Redis.ConnectRetries = 5
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "ctf"
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 20
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}
	if c.Postgres.ConnectRetries == 0 {
		c.Postgres.ConnectRetries = 5
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "scoreboard-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "scoreboard-invalidator"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 500 * time.Millisecond
	}
	if c.Kafka.ReadyTimeout == 0 {
		c.Kafka.ReadyTimeout = 30 * time.Second
	}

	// Cache defaults
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendRedis
	}
	if c.Cache.ScoreboardTTL == 0 {
		c.Cache.ScoreboardTTL = 7 * 24 * time.Hour
	}
	if c.Cache.BasicInfoTTL == 0 {
		c.Cache.BasicInfoTTL = 2 * time.Hour
	}
	if c.Cache.ComputeTimeout == 0 {
		c.Cache.ComputeTimeout = 30 * time.Second
	}

	// Queue defaults
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 256
	}
	if c.Queue.RequestTimeout == 0 {
		c.Queue.RequestTimeout = 30 * time.Second
	}
	if c.Queue.EnqueueTimeout == 0 {
		c.Queue.EnqueueTimeout = 5 * time.Second
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Minute
	}

	// Scoreboard defaults
	if c.Scoreboard.TimelineTopN == 0 {
		c.Scoreboard.TimelineTopN = 10
	}
}

// Validate rejects configuration the service cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Cache.Backend != CacheBackendRedis && c.Cache.Backend != CacheBackendMemory {
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of %q, %q",
			c.Cache.Backend, CacheBackendRedis, CacheBackendMemory))
	}
	if c.Cache.ScoreboardTTL < 0 || c.Cache.BasicInfoTTL < 0 {
		errs = append(errs, errors.New("cache TTLs must not be negative"))
	}
	if c.Queue.Capacity < 0 {
		errs = append(errs, fmt.Errorf("queue.capacity %d must not be negative", c.Queue.Capacity))
	}
	if c.Refresh.Interval < 0 {
		errs = append(errs, errors.New("refresh.interval must not be negative"))
	}
	if c.Scoreboard.TimelineTopN < 0 {
		errs = append(errs, fmt.Errorf("scoreboard.timeline_top_n %d must not be negative", c.Scoreboard.TimelineTopN))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Queue.Coalesce = true
	cfg.Refresh.Enabled = true
	cfg.Refresh.WarmUp = true
	return cfg
}
