package ports

import (
	"context"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// CredentialStore persists the bearer token and the username it was issued
// for. Only the session service writes it.
type CredentialStore interface {
	// Load returns empty credentials, not an error, when nothing is stored.
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}
