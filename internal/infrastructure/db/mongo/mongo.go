// Package mongo backs session credentials with a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Config selects the deployment, database and client profile.
type Config struct {
	URI      string
	Database string
	Profile  string
	// Timeout bounds connect and ping; zero uses connectTimeout.
	Timeout time.Duration
}

// Open connects, pings the primary and returns a credential repository for
// cfg.Profile. The caller disconnects the returned client.
func Open(ctx context.Context, cfg Config) (*CredentialRepository, *mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = connectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return NewCredentialRepository(client.Database(cfg.Database), cfg.Profile), client, nil
}
