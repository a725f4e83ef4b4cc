package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// ---- helpers ----

func seeded(t *testing.T) *Server {
	t.Helper()
	s := New(zerolog.Nop())
	for _, e := range []domain.Employee{
		{SSN: "1234567890", Username: "admin", FirstName: "Ada", LastName: "Admin", Department: domain.DepartmentCrew, Role: domain.RoleAdmin, Password: "pw"},
		{SSN: "2234567890", Username: "mech", FirstName: "Max", LastName: "Mech", Department: domain.DepartmentMaintenance, Role: domain.RoleEmployee, Password: "pw"},
		{SSN: "3234567890", Username: "crew", FirstName: "Cora", LastName: "Crew", Department: domain.DepartmentCrew, Role: domain.RoleEmployee, Password: "pw"},
	} {
		if err := s.AddEmployee(e); err != nil {
			t.Fatalf("seed employee %s: %v", e.Username, err)
		}
	}
	return s
}

func call(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, s *Server, username string) string {
	t.Helper()
	rec := call(t, s, http.MethodPost, "/employees/login", "", `{"username":"`+username+`","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Token
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp.Message
}

func seedFleet(t *testing.T, s *Server) (railcar, pc1, pc2 domain.Carriage, train domain.Train) {
	t.Helper()
	var err error
	if railcar, err = s.AddCarriage(domain.Carriage{Type: domain.CarriageRailcar, TrackGauge: domain.GaugeStandard, MaxTractiveForce: 300}); err != nil {
		t.Fatalf("railcar: %v", err)
	}
	if pc1, err = s.AddCarriage(domain.Carriage{Type: domain.CarriagePassengerCar, TrackGauge: domain.GaugeStandard, NumberOfSeats: 50, MaxWeight: 10000}); err != nil {
		t.Fatalf("pc1: %v", err)
	}
	if pc2, err = s.AddCarriage(domain.Carriage{Type: domain.CarriagePassengerCar, TrackGauge: domain.GaugeStandard, NumberOfSeats: 40, MaxWeight: 9000}); err != nil {
		t.Fatalf("pc2: %v", err)
	}
	if train, err = s.AddTrain(domain.Train{Name: "IC 1", RailcarID: railcar.CarriageID, PassengerCarIDs: []domain.ID{pc1.CarriageID}}); err != nil {
		t.Fatalf("train: %v", err)
	}
	return
}

// ---- auth ----

func TestLogin_BadPassword(t *testing.T) {
	s := seeded(t)
	rec := call(t, s, http.MethodPost, "/employees/login", "", `{"username":"admin","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := message(t, rec); got != "Incorrect username or password" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	s := seeded(t)
	rec := call(t, s, http.MethodPost, "/employees/login", "", `{"username":"admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetEmployee_ByUsername(t *testing.T) {
	s := seeded(t)
	token := loginAs(t, s, "crew")

	rec := call(t, s, http.MethodGet, "/employees/mech", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var e domain.Employee
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if e.SSN != "2234567890" || e.Department != domain.DepartmentMaintenance {
		t.Fatalf("unexpected employee %+v", e)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}
}

func TestRoutes_RequireToken(t *testing.T) {
	s := seeded(t)
	rec := call(t, s, http.MethodGet, "/fleet/trains", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := message(t, rec); got != "Authorization header missing" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRevokeTokens(t *testing.T) {
	s := seeded(t)
	token := loginAs(t, s, "crew")
	if rec := call(t, s, http.MethodGet, "/fleet/trains", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before revoke, got %d", rec.Code)
	}

	s.RevokeTokens()

	if rec := call(t, s, http.MethodGet, "/fleet/trains", token, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revoke, got %d", rec.Code)
	}
}

func TestExpiredToken(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	s := New(zerolog.Nop(), WithClock(func() time.Time { return past }), WithTokenTTL(time.Hour))
	token, err := s.IssueToken(domain.Employee{Username: "x", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec := call(t, s, http.MethodGet, "/fleet/trains", token, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMutations_AdminOnly(t *testing.T) {
	s := seeded(t)
	token := loginAs(t, s, "crew")
	rec := call(t, s, http.MethodPost, "/fleet/carriages", token, `{"type":"Railcar","trackGauge":"1435","maxTractiveForce":10}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := message(t, rec); got != "Forbidden" {
		t.Fatalf("unexpected message %q", got)
	}
}

// ---- fleet rules ----

func TestCreateTrain_EchoesEntityWithNumericID(t *testing.T) {
	s := seeded(t)
	_, pc1, pc2, _ := seedFleet(t, s)
	other, err := s.AddCarriage(domain.Carriage{Type: domain.CarriageRailcar, TrackGauge: domain.GaugeNarrow, MaxTractiveForce: 100})
	if err != nil {
		t.Fatalf("railcar: %v", err)
	}
	token := loginAs(t, s, "admin")

	body := `{"name":"RE 2","railcarID":` + other.CarriageID.String() + `,"passengerCarIDs":[` + pc1.CarriageID.String() + `,` + pc2.CarriageID.String() + `]}`
	rec := call(t, s, http.MethodPost, "/fleet/trains", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Train
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.TrainID == "" || created.RailcarID != other.CarriageID || len(created.PassengerCarIDs) != 2 {
		t.Fatalf("unexpected train %+v", created)
	}
}

func TestCreateTrain_RailcarAlreadyAssigned(t *testing.T) {
	s := seeded(t)
	railcar, _, pc2, _ := seedFleet(t, s)
	_, err := s.AddTrain(domain.Train{Name: "dup", RailcarID: railcar.CarriageID, PassengerCarIDs: []domain.ID{pc2.CarriageID}})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	var re *ruleError
	if !errors.As(err, &re) || re.status != http.StatusBadRequest {
		t.Fatalf("expected 400 rule error, got %v", err)
	}
}

func TestCreateTrain_UnknownPassengerCar(t *testing.T) {
	s := seeded(t)
	_, _, _, train := seedFleet(t, s)
	token := loginAs(t, s, "admin")

	body := `{"name":"IC 1","railcarID":"` + train.RailcarID.String() + `","passengerCarIDs":["999"]}`
	rec := call(t, s, http.MethodPut, "/fleet/trains/"+train.TrainID.String(), token, body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := message(t, rec); got != "Some passengerCarIDs do not exist" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCreateTrain_InvalidPayload(t *testing.T) {
	s := seeded(t)
	token := loginAs(t, s, "admin")
	rec := call(t, s, http.MethodPost, "/fleet/trains", token, `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAssignedCarriage_CannotBeEditedOrDeleted(t *testing.T) {
	s := seeded(t)
	_, pc1, pc2, _ := seedFleet(t, s)
	token := loginAs(t, s, "admin")

	rec := call(t, s, http.MethodDelete, "/fleet/carriages/"+pc1.CarriageID.String(), token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 deleting assigned carriage, got %d", rec.Code)
	}

	rec = call(t, s, http.MethodDelete, "/fleet/carriages/"+pc2.CarriageID.String(), token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting free carriage, got %d", rec.Code)
	}
}

func TestMaintenance_Rules(t *testing.T) {
	s := seeded(t)
	_, _, _, train := seedFleet(t, s)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		m    domain.Maintenance
		code int
	}{
		{"crew employee", domain.Maintenance{EmployeeSSN: "3234567890", TrainID: train.TrainID, From: domain.At(base), To: domain.At(base.Add(time.Hour))}, http.StatusBadRequest},
		{"equal bounds", domain.Maintenance{EmployeeSSN: "2234567890", TrainID: train.TrainID, From: domain.At(base), To: domain.At(base)}, http.StatusBadRequest},
		{"unknown train", domain.Maintenance{EmployeeSSN: "2234567890", TrainID: "404", From: domain.At(base), To: domain.At(base.Add(time.Hour))}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddMaintenance(tc.m)
			var re *ruleError
			if !errors.As(err, &re) || re.status != tc.code {
				t.Fatalf("expected %d, got %v", tc.code, err)
			}
		})
	}

	if _, err := s.AddMaintenance(domain.Maintenance{EmployeeSSN: "2234567890", TrainID: train.TrainID, From: domain.At(base), To: domain.At(base.Add(4 * time.Hour))}); err != nil {
		t.Fatalf("first window: %v", err)
	}
	_, err := s.AddMaintenance(domain.Maintenance{EmployeeSSN: "2234567890", TrainID: train.TrainID, From: domain.At(base.Add(2 * time.Hour)), To: domain.At(base.Add(6 * time.Hour))})
	var re *ruleError
	if !errors.As(err, &re) || re.status != http.StatusBadRequest {
		t.Fatalf("expected overlap rejection, got %v", err)
	}
}

func TestMaintenance_NaiveTimestampsOverHTTP(t *testing.T) {
	s := seeded(t)
	_, _, _, train := seedFleet(t, s)
	token := loginAs(t, s, "admin")

	body := `{"employeeSSN":"2234567890","trainID":` + train.TrainID.String() + `,"from_time":"2024-05-01T10:00:00","to_time":"2024-05-01T14:00:00"}`
	if rec := call(t, s, http.MethodPost, "/fleet/maintenances", token, body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := call(t, s, http.MethodGet, "/fleet/maintenances", token, "")
	var list []domain.Maintenance
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(list) != 1 || list[0].From.Hour() != 10 || list[0].To.Hour() != 14 {
		t.Fatalf("unexpected maintenances %+v", list)
	}
}

func TestDeleteTrain_CascadesMaintenances(t *testing.T) {
	s := seeded(t)
	_, _, _, train := seedFleet(t, s)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.AddMaintenance(domain.Maintenance{EmployeeSSN: "2234567890", TrainID: train.TrainID, From: domain.At(base), To: domain.At(base.Add(time.Hour))}); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	token := loginAs(t, s, "admin")

	if rec := call(t, s, http.MethodDelete, "/fleet/trains/"+train.TrainID.String(), token, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := s.state.listMaintenances(); len(got) != 0 {
		t.Fatalf("expected maintenances removed, got %+v", got)
	}
}

func TestDeleteEmployee_WithMaintenance(t *testing.T) {
	s := seeded(t)
	_, _, _, train := seedFleet(t, s)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.AddMaintenance(domain.Maintenance{EmployeeSSN: "2234567890", TrainID: train.TrainID, From: domain.At(base), To: domain.At(base.Add(time.Hour))}); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	token := loginAs(t, s, "admin")
	if rec := call(t, s, http.MethodDelete, "/employees/2234567890", token, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := New(zerolog.Nop())
	rec := call(t, s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
