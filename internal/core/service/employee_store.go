package service

import (
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
)

const employeesPath = "/employees"

// EmployeeStore caches staff records. Only admins may mutate them; the check
// runs locally before any request is sent.
type EmployeeStore struct {
	*EntityStore[domain.Employee]
}

func NewEmployeeStore(api ports.FleetAPI, roles ports.RoleSource, log zerolog.Logger) *EmployeeStore {
	return &EmployeeStore{EntityStore: newEntityStore(api, entitySpec[domain.Employee]{
		name: "employees",
		path: employeesPath,
		id:   func(e domain.Employee) domain.ID { return domain.ID(e.SSN) },
		validate: func(e domain.Employee, op mutation) error {
			return domain.ValidateEmployee(e, op == opCreate)
		},
		normalize: domain.Employee.Redacted,
		authorize: func() error {
			if roles.Role() != domain.RoleAdmin {
				return domain.ErrForbidden
			}
			return nil
		},
	}, log)}
}

// BySSN returns the cached employee with the given SSN.
func (s *EmployeeStore) BySSN(ssn string) (domain.Employee, bool) {
	return s.Get(domain.ID(ssn))
}

// MaintenanceStaff returns the cached employees of the Maintenance department,
// the only ones the server accepts on a maintenance window.
func (s *EmployeeStore) MaintenanceStaff() []domain.Employee {
	var out []domain.Employee
	for _, e := range s.Items() {
		if e.Department == domain.DepartmentMaintenance {
			out = append(out, e)
		}
	}
	return out
}

// Roles lists the assignable roles.
func (s *EmployeeStore) Roles() []domain.Option {
	return []domain.Option{
		{Label: "Employee", Value: string(domain.RoleEmployee)},
		{Label: "Administrator", Value: string(domain.RoleAdmin)},
	}
}

// Departments lists the departments.
func (s *EmployeeStore) Departments() []domain.Option {
	return []domain.Option{
		{Label: "Maintenance", Value: string(domain.DepartmentMaintenance)},
		{Label: "Crew", Value: string(domain.DepartmentCrew)},
	}
}
