package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
	"github.com/railfleet/fleet-state/internal/infrastructure/metrics"
)

// ErrReloadFailed wraps the fetch error when a mutation succeeded on the
// server but the collection could not be reloaded afterwards.
var ErrReloadFailed = errors.New("collection reload failed")

type mutation int

const (
	opCreate mutation = iota
	opUpdate
	opDelete
)

// entitySpec describes one server-backed collection.
type entitySpec[T any] struct {
	// name labels logs and metrics, e.g. "trains".
	name string
	// path is the collection resource, e.g. "/fleet/trains".
	path string
	id   func(T) domain.ID
	// validate runs before create and update; nil skips local validation.
	validate func(T, mutation) error
	// normalize is applied to every entity entering or leaving the store.
	normalize func(T) T
	// authorize gates mutations before any network call; nil allows all.
	authorize func() error
}

// EntityStore owns one collection fetched from the fleet API. Mutations are
// write-through-then-reload: the server is changed first, then the whole
// collection is fetched again.
type EntityStore[T any] struct {
	spec entitySpec[T]
	api  ports.FleetAPI
	coll Collection[T]
	log  zerolog.Logger
}

func newEntityStore[T any](api ports.FleetAPI, spec entitySpec[T], log zerolog.Logger) *EntityStore[T] {
	if spec.normalize == nil {
		spec.normalize = func(v T) T { return v }
	}
	return &EntityStore[T]{
		spec: spec,
		api:  api,
		log:  log.With().Str("component", "store."+spec.name).Logger(),
	}
}

// Name returns the store's collection name.
func (s *EntityStore[T]) Name() string { return s.spec.name }

// FetchAll replaces the local collection with the server's. A response that
// resolves after a later fetch has been applied is discarded and the newer
// snapshot is returned instead. On failure the previous collection stays.
func (s *EntityStore[T]) FetchAll(ctx context.Context) ([]T, error) {
	seq := s.coll.Begin()
	defer s.coll.Done()

	var items []T
	if err := s.api.Get(ctx, s.spec.path, &items); err != nil {
		metrics.StoreFetchTotal.WithLabelValues(s.spec.name, "error").Inc()
		s.log.Warn().Err(err).Uint64("seq", seq).Msg("fetch failed, keeping previous collection")
		return nil, err
	}
	for i := range items {
		items[i] = s.spec.normalize(items[i])
	}

	if !s.coll.Apply(seq, items) {
		metrics.StoreFetchTotal.WithLabelValues(s.spec.name, "stale").Inc()
		metrics.StaleResponsesTotal.WithLabelValues(s.spec.name).Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("applied", s.coll.Applied()).Msg("discarded stale response")
		return s.Items(), nil
	}

	metrics.StoreFetchTotal.WithLabelValues(s.spec.name, "applied").Inc()
	metrics.StoreItems.WithLabelValues(s.spec.name).Set(float64(len(items)))
	s.log.Debug().Uint64("seq", seq).Int("count", len(items)).Msg("collection applied")
	return s.Items(), nil
}

// Create posts v and reloads the collection. When the server does not echo
// the created entity, v itself is returned.
func (s *EntityStore[T]) Create(ctx context.Context, v T) (T, error) {
	return s.write(ctx, opCreate, v)
}

// Update puts v to its resource and reloads the collection.
func (s *EntityStore[T]) Update(ctx context.Context, v T) (T, error) {
	return s.write(ctx, opUpdate, v)
}

// Delete removes the entity with the given id and reloads the collection.
func (s *EntityStore[T]) Delete(ctx context.Context, id domain.ID) error {
	if err := s.authorize(); err != nil {
		return err
	}
	if id == "" {
		return &domain.ValidationError{Entity: s.spec.name, Fields: []string{"id is required"}}
	}
	if err := s.api.Delete(ctx, s.itemPath(id), nil); err != nil {
		s.log.Warn().Err(err).Str("id", id.String()).Msg("delete failed")
		return err
	}
	s.log.Info().Str("id", id.String()).Msg("deleted")
	return s.reload(ctx)
}

func (s *EntityStore[T]) write(ctx context.Context, op mutation, v T) (T, error) {
	var zero T
	if err := s.authorize(); err != nil {
		return zero, err
	}
	if s.spec.validate != nil {
		if err := s.spec.validate(v, op); err != nil {
			return zero, err
		}
	}

	var (
		reply json.RawMessage
		err   error
	)
	switch op {
	case opCreate:
		err = s.api.Post(ctx, s.spec.path, v, &reply)
	default:
		id := s.spec.id(v)
		if id == "" {
			return zero, &domain.ValidationError{Entity: s.spec.name, Fields: []string{"id is required"}}
		}
		err = s.api.Put(ctx, s.itemPath(id), v, &reply)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("op", opName(op)).Msg("mutation failed")
		return zero, err
	}

	out := s.echoed(reply, v)
	s.log.Info().Str("op", opName(op)).Str("id", s.spec.id(out).String()).Msg("saved")
	return out, s.reload(ctx)
}

// echoed decodes the server reply as an entity when it carries an id.
func (s *EntityStore[T]) echoed(reply json.RawMessage, fallback T) T {
	if len(reply) > 0 {
		var v T
		if json.Unmarshal(reply, &v) == nil && s.spec.id(v) != "" {
			return s.spec.normalize(v)
		}
	}
	return s.spec.normalize(fallback)
}

func (s *EntityStore[T]) reload(ctx context.Context) error {
	if _, err := s.FetchAll(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", s.spec.name, ErrReloadFailed, err)
	}
	return nil
}

func (s *EntityStore[T]) authorize() error {
	if s.spec.authorize == nil {
		return nil
	}
	return s.spec.authorize()
}

func (s *EntityStore[T]) itemPath(id domain.ID) string {
	return s.spec.path + "/" + url.PathEscape(id.String())
}

// Items returns a copy of the current collection.
func (s *EntityStore[T]) Items() []T {
	items := s.coll.Snapshot()
	for i := range items {
		items[i] = s.spec.normalize(items[i])
	}
	return items
}

// Get returns the cached entity with the given id.
func (s *EntityStore[T]) Get(id domain.ID) (T, bool) {
	for _, v := range s.coll.Snapshot() {
		if s.spec.id(v) == id {
			return s.spec.normalize(v), true
		}
	}
	var zero T
	return zero, false
}

// Loading reports whether a fetch is in flight.
func (s *EntityStore[T]) Loading() bool { return s.coll.Loading() }

// Version is the sequence number of the applied snapshot; zero means the
// collection was never loaded.
func (s *EntityStore[T]) Version() uint64 { return s.coll.Applied() }

func opName(op mutation) string {
	switch op {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}
