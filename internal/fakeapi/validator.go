package fakeapi

import (
	"fmt"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// entityValidator lets Echo call c.Validate(entity) with the same rules the
// client stores apply before sending. Employee payloads are validated without
// a password; the create handler checks it separately.
type entityValidator struct{}

// Validate satisfies the echo.Validator interface.
func (entityValidator) Validate(i any) error {
	switch v := i.(type) {
	case *domain.Train:
		return domain.ValidateTrain(*v)
	case *domain.Carriage:
		return domain.ValidateCarriage(*v)
	case *domain.Maintenance:
		return domain.ValidateMaintenance(*v)
	case *domain.Employee:
		return domain.ValidateEmployee(*v, false)
	case *loginRequest:
		if v.Username == "" || v.Password == "" {
			return echoBadRequest("Username and password are required")
		}
		return nil
	default:
		return fmt.Errorf("no validator for %T", i)
	}
}
