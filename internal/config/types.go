package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Privacy   PrivacyConfig   `yaml:"privacy" mapstructure:"privacy"`
	Sessions  SessionsConfig  `yaml:"sessions" mapstructure:"sessions"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Events    EventsConfig    `yaml:"events" mapstructure:"events"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// PrivacyConfig contains PII detection and masking configuration
type PrivacyConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
}

// SessionsConfig contains session mapping store configuration
type SessionsConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"` // memory or redis
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	Redis         struct {
		URL            string `yaml:"url" mapstructure:"url"`
		KeyPrefix      string `yaml:"key_prefix" mapstructure:"key_prefix"`
		MaxConnections int    `yaml:"max_connections" mapstructure:"max_connections"`
		MinIdleConns   int    `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	} `yaml:"redis" mapstructure:"redis"`
}

// PipelineConfig contains pipeline document configuration
type PipelineConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// LLMConfig contains upstream completion service configuration
type LLMConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RateLimitConfig contains request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// EventsConfig contains WebSocket event streaming configuration
type EventsConfig struct {
	Enabled             bool     `yaml:"enabled" mapstructure:"enabled"`
	Path                string   `yaml:"path" mapstructure:"path"`
	BroadcastDetections bool     `yaml:"broadcast_detections" mapstructure:"broadcast_detections"`
	BroadcastRuns       bool     `yaml:"broadcast_runs" mapstructure:"broadcast_runs"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Privacy: PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"all"},
		},
		Sessions: SessionsConfig{
			Backend:       "memory",
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Pipeline: PipelineConfig{
			ConfigPath: "configs/pipeline.json",
		},
		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Events: EventsConfig{
			Enabled:             true,
			Path:                "/ws",
			BroadcastDetections: true,
			BroadcastRuns:       true,
			AllowedOrigins:      []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	cfg.Sessions.Redis.URL = "redis://localhost:6379/0"
	cfg.Sessions.Redis.KeyPrefix = "maskrelay:session"
	cfg.Sessions.Redis.MaxConnections = 10
	cfg.Sessions.Redis.MinIdleConns = 2

	return cfg
}
