package domain

// Role is the access class of an authenticated actor.
type Role string

const (
	RoleGuest    Role = "Guest"
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// Department groups employees by the work they may be assigned.
type Department string

const (
	DepartmentMaintenance Department = "Maintenance"
	DepartmentCrew        Department = "Crew"
)

// Employee is both a staff record and a login identity. SSN is the primary key.
type Employee struct {
	SSN        string     `json:"ssn"        validate:"required,numeric,len=10"`
	Username   string     `json:"username,omitempty"`
	FirstName  string     `json:"firstName"  validate:"required"`
	LastName   string     `json:"lastName"   validate:"required"`
	Department Department `json:"department" validate:"required,oneof=Maintenance Crew"`
	Role       Role       `json:"role"       validate:"required,oneof=Employee Admin"`
	// Password is write-only: it travels on create/update and is never cached.
	Password string `json:"password,omitempty"`
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Redacted returns a copy without the credential.
func (e Employee) Redacted() Employee {
	e.Password = ""
	return e
}
