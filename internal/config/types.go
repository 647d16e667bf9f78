package config

// Config is the root configuration for maitred.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	LLM     LLMConfig     `yaml:"llm,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket gateway.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty"`
	Bind string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host string `yaml:"host,omitempty"` // used when bind: custom
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider       string   `yaml:"provider,omitempty"` // "mistral" | "mock"
	APIKey         string   `yaml:"apiKey,omitempty"`   // supports ${ENV_VAR}
	Model          string   `yaml:"model,omitempty"`
	Endpoint       string   `yaml:"endpoint,omitempty"` // override for self-hosted gateways
	Temperature    *float64 `yaml:"temperature,omitempty"`
	MaxTokens      int      `yaml:"maxTokens,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"` // per-request budget for classify + handler calls
}

// SessionConfig defines conversation session behavior.
type SessionConfig struct {
	Store       string `yaml:"store,omitempty"` // "memory" | "sqlite"
	WindowSize  int    `yaml:"windowSize,omitempty"`
	IdleMinutes int    `yaml:"idleMinutes,omitempty"`
}

// StoreConfig configures the document store database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // empty → <data dir>/maitred.db
	Seed bool   `yaml:"seed,omitempty"` // load demo restaurant data on first open
}

// MetricsConfig controls timing instrumentation output.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"` // empty → <logs dir>
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}
