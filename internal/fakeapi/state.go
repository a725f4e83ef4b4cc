package fakeapi

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

var errNotFound = errors.New("not found")

// ruleError is a business-rule rejection reported with its status code.
type ruleError struct {
	status int
	msg    string
}

func (e *ruleError) Error() string { return e.msg }

func reject(status int, format string, args ...any) error {
	return &ruleError{status: status, msg: fmt.Sprintf(format, args...)}
}

type employeeRecord struct {
	domain.Employee
	hash []byte
}

// state is the in-memory fleet database. All methods lock.
type state struct {
	mu           sync.Mutex
	nextID       int
	employees    map[string]*employeeRecord // by SSN
	carriages    map[domain.ID]domain.Carriage
	trains       map[domain.ID]domain.Train
	maintenances map[domain.ID]domain.Maintenance
}

func newState() *state {
	return &state{
		employees:    make(map[string]*employeeRecord),
		carriages:    make(map[domain.ID]domain.Carriage),
		trains:       make(map[domain.ID]domain.Train),
		maintenances: make(map[domain.ID]domain.Maintenance),
	}
}

func (s *state) newIDLocked() domain.ID {
	s.nextID++
	return domain.ID(strconv.Itoa(s.nextID))
}

// ── Employees ─────────────────────────────────────────────────────────────────

func (s *state) authenticate(username, password string) (domain.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.byUsernameLocked(username)
	if rec == nil || bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return domain.Employee{}, false
	}
	return rec.Employee, true
}

func (s *state) byUsernameLocked(username string) *employeeRecord {
	for _, rec := range s.employees {
		if rec.Username == username {
			return rec
		}
	}
	return nil
}

func (s *state) employee(username string) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.byUsernameLocked(username); rec != nil {
		return rec.Employee, nil
	}
	if rec, ok := s.employees[username]; ok {
		return rec.Employee, nil
	}
	return domain.Employee{}, errNotFound
}

func (s *state) listEmployees() []domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Employee, 0, len(s.employees))
	for _, rec := range s.employees {
		out = append(out, rec.Employee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SSN < out[j].SSN })
	return out
}

func (s *state) putEmployee(e domain.Employee, create bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Username == "" {
		e.Username = e.SSN
	}
	existing, exists := s.employees[e.SSN]
	switch {
	case create && exists:
		return reject(400, "SSN or username must be unique")
	case !create && !exists:
		return reject(404, "Employee '%s' not found", e.SSN)
	}
	if other := s.byUsernameLocked(e.Username); other != nil && other.SSN != e.SSN {
		return reject(400, "SSN or username must be unique")
	}

	rec := &employeeRecord{Employee: e.Redacted()}
	switch {
	case e.Password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.MinCost)
		if err != nil {
			return err
		}
		rec.hash = hash
	case exists:
		rec.hash = existing.hash
	}
	s.employees[e.SSN] = rec
	return nil
}

func (s *state) deleteEmployee(ssn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[ssn]; !ok {
		return reject(404, "Employee '%s' not found", ssn)
	}
	for _, m := range s.maintenances {
		if m.EmployeeSSN == ssn {
			return reject(400, "Employee is assigned to a maintenance")
		}
	}
	delete(s.employees, ssn)
	return nil
}

// ── Carriages ─────────────────────────────────────────────────────────────────

func (s *state) listCarriages() []domain.Carriage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Carriage, 0, len(s.carriages))
	for _, c := range s.carriages {
		out = append(out, c)
	}
	sortByID(out, func(c domain.Carriage) domain.ID { return c.CarriageID })
	return out
}

func (s *state) createCarriage(c domain.Carriage) domain.Carriage {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CarriageID = s.newIDLocked()
	s.carriages[c.CarriageID] = c
	return c
}

func (s *state) updateCarriage(c domain.Carriage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carriages[c.CarriageID]; !ok {
		return reject(404, "Carriage %s not found", c.CarriageID)
	}
	if s.assignedLocked(c.CarriageID, "") {
		return reject(400, "Cannot edit carriage assigned to a train")
	}
	s.carriages[c.CarriageID] = c
	return nil
}

func (s *state) deleteCarriage(id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carriages[id]; !ok {
		return reject(404, "Carriage %s not found", id)
	}
	if s.assignedLocked(id, "") {
		return reject(400, "Cannot delete carriage assigned to a train")
	}
	delete(s.carriages, id)
	return nil
}

func (s *state) assignedLocked(carriageID, exceptTrain domain.ID) bool {
	for _, t := range s.trains {
		if t.TrainID != exceptTrain && t.References(carriageID) {
			return true
		}
	}
	return false
}

// ── Trains ────────────────────────────────────────────────────────────────────

func (s *state) listTrains() []domain.Train {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Train, 0, len(s.trains))
	for _, t := range s.trains {
		out = append(out, t.Clone())
	}
	sortByID(out, func(t domain.Train) domain.ID { return t.TrainID })
	return out
}

func (s *state) putTrain(t domain.Train, create bool) (domain.Train, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if create {
		t.TrainID = s.newIDLocked()
	} else if _, ok := s.trains[t.TrainID]; !ok {
		return domain.Train{}, reject(404, "Train %s not found", t.TrainID)
	}

	railcar, ok := s.carriages[t.RailcarID]
	if !ok || !railcar.IsRailcar() {
		return domain.Train{}, reject(404, "Railcar %s does not exist", t.RailcarID)
	}
	for _, other := range s.trains {
		if other.TrainID != t.TrainID && other.RailcarID == t.RailcarID {
			return domain.Train{}, reject(400, "Railcar %s is already assigned to a train", t.RailcarID)
		}
	}
	for _, id := range t.PassengerCarIDs {
		if pc, ok := s.carriages[id]; !ok || !pc.IsPassengerCar() {
			return domain.Train{}, reject(404, "Some passengerCarIDs do not exist")
		}
	}
	s.trains[t.TrainID] = t.Clone()
	return t, nil
}

func (s *state) deleteTrain(id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trains[id]; !ok {
		return reject(404, "Train %s not found", id)
	}
	delete(s.trains, id)
	for mid, m := range s.maintenances {
		if m.TrainID == id {
			delete(s.maintenances, mid)
		}
	}
	return nil
}

// ── Maintenances ──────────────────────────────────────────────────────────────

func (s *state) listMaintenances() []domain.Maintenance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Maintenance, 0, len(s.maintenances))
	for _, m := range s.maintenances {
		out = append(out, m)
	}
	sortByID(out, func(m domain.Maintenance) domain.ID { return m.MaintenanceID })
	return out
}

func (s *state) putMaintenance(m domain.Maintenance, create bool) (domain.Maintenance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if create {
		m.MaintenanceID = s.newIDLocked()
	} else if _, ok := s.maintenances[m.MaintenanceID]; !ok {
		return domain.Maintenance{}, reject(404, "Maintenance with ID %s not found", m.MaintenanceID)
	}
	if !m.From.Before(m.To.Time) {
		return domain.Maintenance{}, reject(400, "from_time must be strictly before to_time")
	}
	emp, ok := s.employees[m.EmployeeSSN]
	if !ok {
		return domain.Maintenance{}, reject(404, "Employee not found")
	}
	if emp.Department != domain.DepartmentMaintenance {
		return domain.Maintenance{}, reject(400, "Only Maintenance department employees can perform maintenances")
	}
	if _, ok := s.trains[m.TrainID]; !ok {
		return domain.Maintenance{}, reject(404, "Train not found")
	}
	for _, other := range s.maintenances {
		if other.MaintenanceID == m.MaintenanceID || other.EmployeeSSN != m.EmployeeSSN {
			continue
		}
		if m.From.Before(other.To.Time) && other.From.Before(m.To.Time) {
			return domain.Maintenance{}, reject(400, "Employee already assigned to overlapping maintenance time")
		}
	}
	s.maintenances[m.MaintenanceID] = m
	return m, nil
}

func (s *state) deleteMaintenance(id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maintenances[id]; !ok {
		return reject(404, "Maintenance with ID %s not found", id)
	}
	delete(s.maintenances, id)
	return nil
}

// sortByID orders numerically when both ids are numbers.
func sortByID[T any](items []T, id func(T) domain.ID) {
	sort.Slice(items, func(i, j int) bool {
		a, errA := strconv.Atoi(id(items[i]).String())
		b, errB := strconv.Atoi(id(items[j]).String())
		if errA == nil && errB == nil {
			return a < b
		}
		return id(items[i]) < id(items[j])
	})
}
