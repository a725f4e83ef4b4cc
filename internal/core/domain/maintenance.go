package domain

import "time"

// Maintenance takes a train out of service between From and To, both inclusive.
// Each window is assigned to exactly one employee.
type Maintenance struct {
	MaintenanceID ID        `json:"maintenanceID,omitempty"`
	EmployeeSSN   string    `json:"employeeSSN" validate:"required"`
	TrainID       ID        `json:"trainID"     validate:"required"`
	From          Timestamp `json:"from_time"`
	To            Timestamp `json:"to_time"`
}

// Covers reports whether t lies within [From, To].
func (m Maintenance) Covers(t time.Time) bool {
	return !t.Before(m.From.Time) && !t.After(m.To.Time)
}
