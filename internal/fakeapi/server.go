// Package fakeapi is an in-process fleet API used to exercise the client
// state layer end to end. It keeps all data in memory.
package fakeapi

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/fakeapi/middleware"
)

const defaultTokenTTL = 24 * time.Hour

// Option customises a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithClock overrides the time source used for token issue.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server serves the fleet API routes over in-memory state.
type Server struct {
	e     *echo.Echo
	state *state
	log   zerolog.Logger
	ttl   time.Duration
	now   func() time.Time

	keyMu  sync.RWMutex
	secret []byte
}

// New builds the Echo instance with all routes registered.
func New(log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		state:  newState(),
		log:    log.With().Str("component", "fakeapi").Logger(),
		ttl:    defaultTokenTTL,
		now:    time.Now,
		secret: newSecret(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = entityValidator{}
	e.HTTPErrorHandler = newHTTPErrorHandler(s.log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	auth := middleware.Auth(s.currentSecret)
	staff := middleware.RBAC(string(domain.RoleEmployee), string(domain.RoleAdmin))
	admin := middleware.RBAC(string(domain.RoleAdmin))

	e.GET("/health", s.liveness)

	// --- Employees ---
	emp := e.Group("/employees")
	emp.POST("/login", s.login)
	emp.GET("", s.listEmployees, auth, staff)
	emp.GET("/:id", s.getEmployee, auth, staff)
	emp.POST("", s.createEmployee, auth, admin)
	emp.PUT("/:id", s.updateEmployee, auth, admin)
	emp.DELETE("/:id", s.deleteEmployee, auth, admin)

	// --- Fleet ---
	fleet := e.Group("/fleet", auth)
	fleet.GET("/trains", s.listTrains, staff)
	fleet.POST("/trains", s.createTrain, admin)
	fleet.PUT("/trains/:id", s.updateTrain, admin)
	fleet.DELETE("/trains/:id", s.deleteTrain, admin)

	fleet.GET("/carriages", s.listCarriages, staff)
	fleet.POST("/carriages", s.createCarriage, admin)
	fleet.PUT("/carriages/:id", s.updateCarriage, admin)
	fleet.DELETE("/carriages/:id", s.deleteCarriage, admin)

	fleet.GET("/maintenances", s.listMaintenances, staff)
	fleet.POST("/maintenances", s.createMaintenance, admin)
	fleet.PUT("/maintenances/:id", s.updateMaintenance, admin)
	fleet.DELETE("/maintenances/:id", s.deleteMaintenance, admin)

	s.e = e
	return s
}

// ServeHTTP makes Server usable with httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Echo returns the underlying router.
func (s *Server) Echo() *echo.Echo { return s.e }

// IssueToken signs an HS256 token carrying the employee's username and role.
func (s *Server) IssueToken(e domain.Employee) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"username": e.Username,
		"role":     string(e.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.currentSecret())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RevokeTokens rotates the signing secret; every token issued so far is
// answered with 401 from now on.
func (s *Server) RevokeTokens() {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.secret = newSecret()
}

func (s *Server) currentSecret() []byte {
	s.keyMu.RLock()
	defer s.keyMu.RUnlock()
	return s.secret
}

// AddEmployee stores e with a hashed password. Username defaults to the SSN.
func (s *Server) AddEmployee(e domain.Employee) error {
	if err := domain.ValidateEmployee(e, true); err != nil {
		return err
	}
	return s.state.putEmployee(e, true)
}

// AddCarriage stores c under a fresh id and returns it.
func (s *Server) AddCarriage(c domain.Carriage) (domain.Carriage, error) {
	if err := domain.ValidateCarriage(c); err != nil {
		return domain.Carriage{}, err
	}
	return s.state.createCarriage(c), nil
}

// AddTrain stores t under a fresh id, applying the composition rules.
func (s *Server) AddTrain(t domain.Train) (domain.Train, error) {
	if err := domain.ValidateTrain(t); err != nil {
		return domain.Train{}, err
	}
	return s.state.putTrain(t, true)
}

// AddMaintenance stores m under a fresh id, applying the scheduling rules.
func (s *Server) AddMaintenance(m domain.Maintenance) (domain.Maintenance, error) {
	return s.state.putMaintenance(m, true)
}

func newSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}
