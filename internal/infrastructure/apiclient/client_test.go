package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/"}, zerolog.Nop())
}

func TestClient_Get_DecodesJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fleet/trains" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"trainID":1,"name":"Alpha","railcarID":7,"passengerCarIDs":[3,"4"]}]`))
	})

	var trains []domain.Train
	if err := c.Get(context.Background(), "/fleet/trains", &trains); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(trains) != 1 {
		t.Fatalf("expected 1 train, got %d", len(trains))
	}
	got := trains[0]
	if got.TrainID != "1" || got.RailcarID != "7" {
		t.Errorf("numeric ids not decoded: %+v", got)
	}
	if len(got.PassengerCarIDs) != 2 || got.PassengerCarIDs[0] != "3" || got.PassengerCarIDs[1] != "4" {
		t.Errorf("passenger cars not decoded in order: %v", got.PassengerCarIDs)
	}
}

func TestClient_RequestInterceptorsRunInOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-2" {
			t.Errorf("expected last interceptor to win, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected json content type, got %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	})
	c.UseRequest(func(req *http.Request) { req.Header.Set("Authorization", "Bearer tok-1") })
	c.UseRequest(func(req *http.Request) { req.Header.Set("Authorization", "Bearer tok-2") })

	if err := c.Post(context.Background(), "/fleet/trains", map[string]string{"name": "x"}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestClient_Unauthorized_FiresHooks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid or expired token"}`))
	})
	var fired atomic.Int32
	c.OnUnauthorized(func(context.Context) { fired.Add(1) })

	err := c.Get(context.Background(), "/fleet/carriages", nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if fired.Load() != 1 {
		t.Fatalf("expected hook to fire once, fired %d", fired.Load())
	}
}

func TestClient_Rejected_CarriesServerPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Cannot delete carriage assigned to a train"}`))
	})
	var fired atomic.Int32
	c.OnUnauthorized(func(context.Context) { fired.Add(1) })

	err := c.Delete(context.Background(), "/fleet/carriages/3", nil)
	var rerr *domain.RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if rerr.Kind != domain.KindRejected || rerr.Status != http.StatusBadRequest {
		t.Errorf("unexpected kind/status: %s %d", rerr.Kind, rerr.Status)
	}
	if rerr.Message != "Cannot delete carriage assigned to a train" {
		t.Errorf("unexpected message %q", rerr.Message)
	}
	if len(rerr.Payload) == 0 {
		t.Error("expected raw payload to be kept")
	}
	if !errors.Is(err, domain.ErrRejected) {
		t.Error("expected errors.Is ErrRejected")
	}
	if fired.Load() != 0 {
		t.Error("401 hook must not fire for 400")
	}
}

func TestClient_ServerError_IsGeneric(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	err := c.Get(context.Background(), "/fleet/maintenances", nil)
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	var rerr *domain.RequestError
	errors.As(err, &rerr)
	if rerr.Message != "" || len(rerr.Payload) != 0 {
		t.Errorf("non-json body must not be surfaced: %+v", rerr)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url}, zerolog.Nop())
	err := c.Get(context.Background(), "/fleet/trains", nil)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClient_EmptySuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	var out map[string]any
	if err := c.Put(context.Background(), "/fleet/trains/1", map[string]string{}, &out); err != nil {
		t.Fatalf("expected empty body to be accepted, got %v", err)
	}
}
