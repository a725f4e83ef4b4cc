package ports

import (
	"context"
	"net/http"
)

// FleetAPI is the HTTP boundary every store and the session talk through.
// Implementations decode JSON responses into out (when non-nil) and return a
// *domain.RequestError for every failed call.
type FleetAPI interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// RequestInterceptor may mutate every outgoing request before it is sent.
type RequestInterceptor func(req *http.Request)

// UnauthorizedHook runs once for every response carrying status 401.
type UnauthorizedHook func(ctx context.Context)

// Interceptable is implemented by API clients that accept process-wide hooks.
type Interceptable interface {
	UseRequest(RequestInterceptor)
	OnUnauthorized(UnauthorizedHook)
}
