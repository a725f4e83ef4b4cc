// Package memory keeps session credentials in process memory. It is the
// default backend and the one used by tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// CredentialStore is a mutex-guarded ports.CredentialStore.
type CredentialStore struct {
	mu    sync.Mutex
	creds domain.Credentials
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Load(_ context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *CredentialStore) Save(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = domain.Credentials{}
	return nil
}
