// Package config loads stategraph settings from defaults, an optional
// stategraph.yaml, STATEGRAPH_* environment variables and bound CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STATEGRAPH_STORE_BACKEND.
const EnvPrefix = "STATEGRAPH"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config is the complete configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	MCP        MCPConfig        `mapstructure:"mcp"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type NavigationConfig struct {
	MaxSteps    int `mapstructure:"max_steps"`
	SearchLimit int `mapstructure:"search_limit"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key; snapshots are sealed when set.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// New returns a viper instance carrying the defaults and environment binding.
// Callers bind their flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("navigation.max_steps", 10)
	v.SetDefault("navigation.search_limit", 10)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.dir", ".stategraph/sessions")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "stategraph:session:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("http.port", 8080)
	v.SetDefault("mcp.transport", TransportStdio)
	v.SetDefault("mcp.port", 8081)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the merged settings.
// An explicit file must exist; otherwise stategraph.yaml is looked up in the
// working directory and in home/.stategraph, and its absence is not an error.
func Load(v *viper.Viper, file, home string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("stategraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".stategraph"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and bounds.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return &Error{Field: "store.backend", Message: fmt.Sprintf("unknown backend %q", c.Store.Backend)}
	}
	switch c.MCP.Transport {
	case TransportStdio, TransportSSE:
	default:
		return &Error{Field: "mcp.transport", Message: fmt.Sprintf("unknown transport %q", c.MCP.Transport)}
	}
	if c.Navigation.MaxSteps <= 0 {
		return &Error{Field: "navigation.max_steps", Message: "must be positive"}
	}
	if c.Navigation.SearchLimit <= 0 {
		return &Error{Field: "navigation.search_limit", Message: "must be positive"}
	}
	return nil
}

// Error represents a configuration error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
