package ports

import "github.com/railfleet/fleet-state/internal/core/domain"

// RoleSource answers the current role without blocking.
type RoleSource interface {
	Role() domain.Role
}
