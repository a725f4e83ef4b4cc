// Package redis backs session credentials with a Redis server shared by the
// client installations of one site.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Config selects the server and the key namespace.
type Config struct {
	Addr      string
	DB        int
	KeyPrefix string
	Profile   string
	// Timeout bounds the connectivity check; zero uses pingTimeout.
	Timeout time.Duration
}

// Open connects, verifies the server answers a ping and returns a credential
// store for cfg.Profile. The caller owns the returned client.
func Open(ctx context.Context, cfg Config) (*CredentialStore, *redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewCredentialStore(client, cfg.KeyPrefix, cfg.Profile), client, nil
}
