package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// stubAPI is a ports.FleetAPI whose behaviour is set per test. Unset
// functions fail the call with a server error.
type stubAPI struct {
	getFn    func(ctx context.Context, path string, out any) error
	postFn   func(ctx context.Context, path string, body, out any) error
	putFn    func(ctx context.Context, path string, body, out any) error
	deleteFn func(ctx context.Context, path string, out any) error

	mu    sync.Mutex
	calls []string
}

func (s *stubAPI) record(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, method+" "+path)
}

func (s *stubAPI) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubAPI) Get(ctx context.Context, path string, out any) error {
	s.record(http.MethodGet, path)
	if s.getFn == nil {
		return serverError(http.MethodGet, path)
	}
	return s.getFn(ctx, path, out)
}

func (s *stubAPI) Post(ctx context.Context, path string, body, out any) error {
	s.record(http.MethodPost, path)
	if s.postFn == nil {
		return serverError(http.MethodPost, path)
	}
	return s.postFn(ctx, path, body, out)
}

func (s *stubAPI) Put(ctx context.Context, path string, body, out any) error {
	s.record(http.MethodPut, path)
	if s.putFn == nil {
		return serverError(http.MethodPut, path)
	}
	return s.putFn(ctx, path, body, out)
}

func (s *stubAPI) Delete(ctx context.Context, path string, out any) error {
	s.record(http.MethodDelete, path)
	if s.deleteFn == nil {
		return serverError(http.MethodDelete, path)
	}
	return s.deleteFn(ctx, path, out)
}

// reply decodes v into out the way the HTTP client would.
func reply(out, v any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func serverError(method, path string) error {
	return &domain.RequestError{Kind: domain.KindServer, Method: method, Path: path, Status: http.StatusInternalServerError}
}

func rejected(method, path, msg string) error {
	return &domain.RequestError{
		Kind:    domain.KindRejected,
		Method:  method,
		Path:    path,
		Status:  http.StatusBadRequest,
		Message: msg,
		Payload: json.RawMessage(`{"message":"` + msg + `"}`),
	}
}

// fixedRole is a ports.RoleSource.
type fixedRole domain.Role

func (r fixedRole) Role() domain.Role { return domain.Role(r) }
