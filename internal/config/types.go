package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Privacy    PrivacyConfig    `yaml:"privacy" mapstructure:"privacy"`
	Backends   BackendsConfig   `yaml:"backends" mapstructure:"backends"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	BenchStore BenchStoreConfig `yaml:"bench_store" mapstructure:"bench_store"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	WebSocket  WebSocketConfig  `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	RequestBurst   int           `yaml:"request_burst" mapstructure:"request_burst"`
}

// PipelineConfig contains summarization pipeline configuration
type PipelineConfig struct {
	ChunkWords       int           `yaml:"chunk_words" mapstructure:"chunk_words"`
	SnapshotInterval int           `yaml:"snapshot_interval" mapstructure:"snapshot_interval"`
	DefaultMode      string        `yaml:"default_mode" mapstructure:"default_mode"`
	CallTimeout      time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
}

// PrivacyConfig contains PII anonymization configuration
type PrivacyConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
}

// BackendConfig describes a single completion backend
type BackendConfig struct {
	Kind    string        `yaml:"kind" mapstructure:"kind"` // ollama or openai
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Requests per second toward the backend; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// BackendsConfig contains the local and cloud backend pair
type BackendsConfig struct {
	Local BackendConfig `yaml:"local" mapstructure:"local"`
	Cloud BackendConfig `yaml:"cloud" mapstructure:"cloud"`
}

// CacheConfig contains summary cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// BenchStoreConfig contains benchmark history database configuration
type BenchStoreConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Path           string        `yaml:"path" mapstructure:"path"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	PingInterval   time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	Events         struct {
		BroadcastAnonymization bool `yaml:"broadcast_anonymization" mapstructure:"broadcast_anonymization"`
		BroadcastBenchmarks    bool `yaml:"broadcast_benchmarks" mapstructure:"broadcast_benchmarks"`
		BroadcastPhases        bool `yaml:"broadcast_phases" mapstructure:"broadcast_phases"`
		BroadcastConnections   bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	} `yaml:"events" mapstructure:"events"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			IdleTimeout:    60 * time.Second,
			RequestsPerSec: 10,
			RequestBurst:   20,
		},
		Pipeline: PipelineConfig{
			ChunkWords:       500,
			SnapshotInterval: 5,
			DefaultMode:      "plain",
			CallTimeout:      5 * time.Minute,
		},
		Privacy: PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"all"},
		},
		Backends: BackendsConfig{
			Local: BackendConfig{
				Kind:    "ollama",
				BaseURL: "http://localhost:11434",
				Model:   "llama3.2:3b",
				Timeout: 2 * time.Minute,
			},
			Cloud: BackendConfig{
				Kind:      "openai",
				BaseURL:   "https://api.openai.com",
				Model:     "gpt-4o-mini",
				Timeout:   2 * time.Minute,
				RateLimit: 2,
				RateBurst: 4,
			},
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     time.Hour,
			KeyPrefix:      "summarizer",
		},
		BenchStore: BenchStoreConfig{
			Enabled:         false,
			DatabaseURL:     "postgres://localhost:5432/summarizer?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			Path:           "/ws",
			MaxConnections: 100,
			PingInterval:   54 * time.Second,
			PongTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
		},
	}

	cfg.Logging.File.Path = "logs/summarizer.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true

	cfg.WebSocket.Events.BroadcastAnonymization = true
	cfg.WebSocket.Events.BroadcastBenchmarks = true
	cfg.WebSocket.Events.BroadcastPhases = true
	cfg.WebSocket.Events.BroadcastConnections = true

	return cfg
}
