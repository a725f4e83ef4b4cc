package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrRejected           = errors.New("request rejected")
	ErrServer             = errors.New("server failure")
	ErrTransport          = errors.New("transport failure")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidEntity      = errors.New("invalid entity")
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindRejected     ErrorKind = "rejected"
	KindServer       ErrorKind = "server"
)

// RequestError reports a failed call to the fleet API. Message and Payload
// carry the server's error body when one was returned.
type RequestError struct {
	Kind    ErrorKind
	Method  string
	Path    string
	Status  int
	Message string
	Payload json.RawMessage
	Err     error
}

// KindForStatus maps an HTTP status code to an ErrorKind. Callers only pass
// non-2xx codes.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindRejected
	}
}

func (e *RequestError) Error() string {
	switch {
	case e.Kind == KindTransport:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
}

// Unwrap lets errors.Is match the sentinel for the kind as well as the
// underlying transport error.
func (e *RequestError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case KindTransport:
		sentinel = ErrTransport
	case KindUnauthorized:
		sentinel = ErrUnauthorized
	case KindForbidden:
		sentinel = ErrForbidden
	case KindNotFound:
		sentinel = ErrNotFound
	case KindServer:
		sentinel = ErrServer
	default:
		sentinel = ErrRejected
	}
	if e.Err != nil {
		return []error{sentinel, e.Err}
	}
	return []error{sentinel}
}

// ValidationError lists the fields that failed local validation.
type ValidationError struct {
	Entity string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Fields, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEntity }
