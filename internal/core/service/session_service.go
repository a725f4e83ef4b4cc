package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
	"github.com/railfleet/fleet-state/internal/infrastructure/metrics"
)

const loginPath = "/employees/login"

var (
	// ErrSessionExpired is reported by RestoreSession when the persisted
	// token carries an expiry that has already passed.
	ErrSessionExpired = errors.New("persisted session expired")
	// ErrSessionChanged is reported by RestoreSession when the session was
	// replaced or cleared while the employee record was loading.
	ErrSessionChanged = errors.New("session changed during restore")
)

// EventType names a session transition.
type EventType string

const (
	EventLoggedIn    EventType = "logged_in"
	EventLoggedOut   EventType = "logged_out"
	EventRestored    EventType = "restored"
	EventUserLoaded  EventType = "user_loaded"
	EventInvalidated EventType = "invalidated"
)

// Event is delivered to subscribers after the session state changed.
type Event struct {
	Type     EventType
	Username string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Option customises a SessionService.
type Option func(*SessionService)

// WithClock overrides the time source used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

// SessionService owns the bearer token and the current employee. It is the
// only writer of the credential store. The zero session is a guest.
type SessionService struct {
	api   ports.FleetAPI
	creds ports.CredentialStore
	log   zerolog.Logger
	now   func() time.Time

	mu    sync.RWMutex
	token string
	user  *domain.Employee
	// gen changes with every token change so that a late employee fetch can
	// tell whether the session it was started for still exists.
	gen uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

var _ ports.RoleSource = (*SessionService)(nil)

func NewSessionService(api ports.FleetAPI, creds ports.CredentialStore, log zerolog.Logger, opts ...Option) *SessionService {
	s := &SessionService{
		api:   api,
		creds: creds,
		log:   log.With().Str("component", "session").Logger(),
		now:   time.Now,
		subs:  make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach registers the bearer interceptor and the 401 hook on the shared API
// client. It is called once per process.
func (s *SessionService) Attach(client ports.Interceptable) {
	client.UseRequest(s.AuthorizeRequest)
	client.OnUnauthorized(s.HandleUnauthorized)
}

// Login exchanges credentials for a token, persists it with the username and
// loads the employee record. Every failure leaves a cleared session and
// reports false.
func (s *SessionService) Login(ctx context.Context, username, password string) bool {
	var resp loginResponse
	if err := s.api.Post(ctx, loginPath, loginRequest{Username: username, Password: password}, &resp); err != nil {
		s.failLogin(ctx, username, err)
		return false
	}
	if resp.Token == "" {
		s.failLogin(ctx, username, errors.New("login response without token"))
		return false
	}

	gen := s.setToken(resp.Token)
	if err := s.creds.Save(ctx, domain.Credentials{Token: resp.Token, Username: username}); err != nil {
		s.failLogin(ctx, username, err)
		return false
	}

	user, err := s.fetchEmployee(ctx, username)
	if err != nil {
		s.failLogin(ctx, username, err)
		return false
	}
	if !s.setUser(gen, user) {
		s.failLogin(ctx, username, ErrSessionChanged)
		return false
	}

	metrics.SessionEventsTotal.WithLabelValues(string(EventLoggedIn)).Inc()
	s.log.Info().Str("username", username).Str("role", string(user.Role)).Msg("logged in")
	s.emit(Event{Type: EventLoggedIn, Username: username})
	return true
}

func (s *SessionService) failLogin(ctx context.Context, username string, cause error) {
	s.clear()
	if err := s.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted credentials")
	}
	metrics.SessionEventsTotal.WithLabelValues("login_failed").Inc()
	s.log.Warn().Err(cause).Str("username", username).Msg("login failed")
}

// Logout clears the session and the persisted credentials. No request is sent.
func (s *SessionService) Logout(ctx context.Context) {
	username := s.username()
	s.clear()
	if err := s.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted credentials")
	}
	metrics.SessionEventsTotal.WithLabelValues(string(EventLoggedOut)).Inc()
	s.log.Info().Str("username", username).Msg("logged out")
	s.emit(Event{Type: EventLoggedOut, Username: username})
}

// RestoreSession reinstates a persisted session once at startup. The token is
// set before RestoreSession returns; the employee record is fetched in the
// background and the returned channel yields that outcome, then closes. When
// the refetch fails the session keeps its token without a user.
func (s *SessionService) RestoreSession(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	creds, err := s.creds.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read persisted credentials")
		done <- err
		close(done)
		return done
	}
	if creds.Token == "" {
		close(done)
		return done
	}
	if tokenExpired(creds.Token, s.now()) {
		if err := s.creds.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear expired credentials")
		}
		s.log.Info().Str("username", creds.Username).Msg("persisted token expired, not restoring")
		done <- ErrSessionExpired
		close(done)
		return done
	}

	gen := s.setToken(creds.Token)
	metrics.SessionEventsTotal.WithLabelValues(string(EventRestored)).Inc()
	s.log.Info().Str("username", creds.Username).Msg("session restored")
	s.emit(Event{Type: EventRestored, Username: creds.Username})

	if creds.Username == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		user, err := s.fetchEmployee(ctx, creds.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", creds.Username).Msg("employee refetch failed, session has no user")
			done <- err
			return
		}
		if !s.setUser(gen, user) {
			done <- ErrSessionChanged
			return
		}
		s.emit(Event{Type: EventUserLoaded, Username: creds.Username})
		done <- nil
	}()
	return done
}

// AuthorizeRequest attaches the bearer token, if any.
func (s *SessionService) AuthorizeRequest(req *http.Request) {
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// HandleUnauthorized clears the session after any 401 response. Subscribers
// receive EventInvalidated when a session existed and should send the user
// back to the entry page.
func (s *SessionService) HandleUnauthorized(ctx context.Context) {
	s.mu.Lock()
	had := s.token != ""
	username := ""
	if s.user != nil {
		username = s.user.Username
	}
	s.clearLocked()
	s.mu.Unlock()

	if err := s.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted credentials")
	}
	if !had {
		return
	}
	metrics.SessionEventsTotal.WithLabelValues(string(EventInvalidated)).Inc()
	s.log.Warn().Str("username", username).Msg("session invalidated by 401 response")
	s.emit(Event{Type: EventInvalidated, Username: username})
}

// Subscribe registers fn for session events and returns a cancel function.
// fn runs on the goroutine that changed the session and must not block.
func (s *SessionService) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SessionService) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Role returns the current user's role, or Guest without one.
func (s *SessionService) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.RoleGuest
	}
	return s.user.Role
}

// IsAuthenticated reports whether a token is set.
func (s *SessionService) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current employee, nil when none is loaded.
func (s *SessionService) User() *domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionService) SSN() string {
	if u := s.User(); u != nil {
		return u.SSN
	}
	return ""
}

func (s *SessionService) FullName() string {
	if u := s.User(); u != nil {
		return u.FullName()
	}
	return ""
}

func (s *SessionService) username() string {
	if u := s.User(); u != nil {
		return u.Username
	}
	return ""
}

func (s *SessionService) fetchEmployee(ctx context.Context, username string) (domain.Employee, error) {
	var e domain.Employee
	if err := s.api.Get(ctx, employeesPath+"/"+url.PathEscape(username), &e); err != nil {
		return domain.Employee{}, err
	}
	if e.Username == "" {
		e.Username = username
	}
	return e.Redacted(), nil
}

// setToken installs a new token, drops any user and returns the new generation.
func (s *SessionService) setToken(token string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = nil
	s.gen++
	return s.gen
}

// setUser installs user if the token generation is still gen.
func (s *SessionService) setUser(gen uint64, user domain.Employee) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.token == "" {
		return false
	}
	s.user = &user
	return true
}

func (s *SessionService) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *SessionService) clearLocked() {
	s.token = ""
	s.user = nil
	s.gen++
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side; the server decides with a 401.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
