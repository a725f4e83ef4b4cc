package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session persistence backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type APIConfig struct {
	BaseURL string `env:"FLEET_API_URL, default=http://127.0.0.1:5000"`
	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration `env:"FLEET_API_TIMEOUT, default=0s"`
}

type SessionConfig struct {
	Backend   string `env:"SESSION_BACKEND,    default=memory"`
	Profile   string `env:"SESSION_PROFILE,    default=default"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX, default=fleet:session"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fleet_client"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Pretty reports whether logs should use the human-friendly console writer.
func (c *Config) Pretty() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through the given lookuper and rejects unknown
// session backends.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	switch cfg.Session.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
	return &cfg, nil
}
