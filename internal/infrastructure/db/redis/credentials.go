package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// CredentialStore persists session credentials as two plain keys:
//
//	<prefix>:<profile>:auth_token
//	<prefix>:<profile>:username
//
// Keys carry no TTL; the server decides when a token stops working.
type CredentialStore struct {
	client  *redis.Client
	prefix  string
	profile string
}

// NewCredentialStore creates a CredentialStore wrapping the given Redis client.
func NewCredentialStore(client *redis.Client, prefix, profile string) *CredentialStore {
	return &CredentialStore{client: client, prefix: prefix, profile: profile}
}

// Load reads both keys. Missing keys yield empty fields.
func (s *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	vals, err := s.client.MGet(ctx, s.key("auth_token"), s.key("username")).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	var creds domain.Credentials
	if len(vals) == 2 {
		creds.Token, _ = vals[0].(string)
		creds.Username, _ = vals[1].(string)
	}
	return creds, nil
}

// Save writes both keys in one transaction.
func (s *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("auth_token"), creds.Token, 0)
		pipe.Set(ctx, s.key("username"), creds.Username, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes both keys.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key("auth_token"), s.key("username")).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) key(name string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, s.profile, name)
}
