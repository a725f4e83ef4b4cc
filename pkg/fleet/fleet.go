// Package fleet wires the fleet state layer: one API client shared by the
// session and the four entity stores, a credential backend chosen by
// configuration, and the navigation that follows the session role.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
	"github.com/railfleet/fleet-state/internal/core/service"
	"github.com/railfleet/fleet-state/internal/infrastructure/apiclient"
	"github.com/railfleet/fleet-state/internal/infrastructure/db/memory"
	mongostore "github.com/railfleet/fleet-state/internal/infrastructure/db/mongo"
	redisstore "github.com/railfleet/fleet-state/internal/infrastructure/db/redis"
	"github.com/railfleet/fleet-state/internal/pkg/config"
	"github.com/railfleet/fleet-state/pkg/logger"
)

type (
	Employee    = domain.Employee
	Train       = domain.Train
	Carriage    = domain.Carriage
	Maintenance = domain.Maintenance
	Role        = domain.Role
	ID          = domain.ID

	TrainStatus      = service.TrainStatus
	CarriageStatus   = service.CarriageStatus
	TrainComposition = service.TrainComposition
	NavItem          = service.NavItem
	Event            = service.Event
)

// Fleet is the state layer handed to a view layer.
type Fleet struct {
	Session      *service.SessionService
	Trains       *service.TrainStore
	Carriages    *service.CarriageStore
	Maintenances *service.MaintenanceStore
	Employees    *service.EmployeeStore
	Navigator    *service.Navigator

	log     zerolog.Logger
	closers []func(context.Context) error
}

// Deps are the collaborators NewWithDeps assembles a Fleet from.
type Deps struct {
	API         *apiclient.Client
	Credentials ports.CredentialStore
	Logger      zerolog.Logger
	// Catalog overrides the navigation; nil uses service.DefaultCatalog.
	Catalog []service.NavItem
	// Now overrides the session clock.
	Now func() time.Time
}

// New builds a Fleet from cfg. It initialises the process logger and opens
// the configured credential backend; call Close when done.
func New(ctx context.Context, cfg *config.Config) (*Fleet, error) {
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty()})

	creds, closer, err := openCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger.Component(log, "apiclient"))

	f := NewWithDeps(Deps{API: client, Credentials: creds, Logger: log})
	if closer != nil {
		f.closers = append(f.closers, closer)
	}
	log.Info().
		Str("api", cfg.API.BaseURL).
		Str("session_backend", cfg.Session.Backend).
		Str("profile", cfg.Session.Profile).
		Msg("fleet state initialised")
	return f, nil
}

// NewWithDeps wires a Fleet around an existing client and credential store.
// The session's interceptors are attached to deps.API.
func NewWithDeps(deps Deps) *Fleet {
	log := deps.Logger
	var opts []service.Option
	if deps.Now != nil {
		opts = append(opts, service.WithClock(deps.Now))
	}

	session := service.NewSessionService(deps.API, deps.Credentials, log, opts...)
	session.Attach(deps.API)

	return &Fleet{
		Session:      session,
		Trains:       service.NewTrainStore(deps.API, log),
		Carriages:    service.NewCarriageStore(deps.API, log),
		Maintenances: service.NewMaintenanceStore(deps.API, log),
		Employees:    service.NewEmployeeStore(deps.API, session, log),
		Navigator:    service.NewNavigator(session, deps.Catalog),
		log:          log,
	}
}

func openCredentials(ctx context.Context, cfg *config.Config) (ports.CredentialStore, func(context.Context) error, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		store, client, err := redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Session.KeyPrefix,
			Profile:   cfg.Session.Profile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session backend: %w", err)
		}
		return store, func(context.Context) error { return client.Close() }, nil
	case config.BackendMongo:
		repo, client, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Profile:  cfg.Session.Profile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session backend: %w", err)
		}
		return repo, client.Disconnect, nil
	default:
		return memory.NewCredentialStore(), nil, nil
	}
}

// RefreshAll fetches the collections concurrently and independently: one
// failing fetch does not cancel the others, and each store keeps its previous
// collection on failure. The first error is returned once all fetches have
// finished. The employee collection is skipped for non-admins.
func (f *Fleet) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { _, err := f.Trains.FetchAll(ctx); return err })
	g.Go(func() error { _, err := f.Carriages.FetchAll(ctx); return err })
	g.Go(func() error { _, err := f.Maintenances.FetchAll(ctx); return err })
	if f.Session.Role() == domain.RoleAdmin {
		g.Go(func() error { _, err := f.Employees.FetchAll(ctx); return err })
	}
	if err := g.Wait(); err != nil {
		f.log.Warn().Err(err).Msg("refresh incomplete")
		return err
	}
	return nil
}

// Overview is a consistent read of the current snapshots with the derived
// views computed at one instant.
type Overview struct {
	At           time.Time
	Trains       []TrainStatus
	Carriages    []CarriageStatus
	Compositions []TrainComposition
	Active       []Maintenance
	// Shared maps carriages referenced by more than one train to those trains.
	Shared map[ID][]ID
}

// Overview joins the cached collections at now.
func (f *Fleet) Overview(now time.Time) Overview {
	trains := f.Trains.Items()
	carriages := f.Carriages.Items()
	maintenances := f.Maintenances.Items()
	return Overview{
		At:           now,
		Trains:       service.TrainsWithStatus(trains, maintenances, now),
		Carriages:    service.CarriagesWithStatus(carriages, trains),
		Compositions: service.Compositions(trains, carriages),
		Active:       service.ActiveMaintenances(maintenances, now),
		Shared:       service.SharedCarriages(trains),
	}
}

// Close stops the navigator and releases the credential backend.
func (f *Fleet) Close(ctx context.Context) error {
	f.Navigator.Close()
	var errs []error
	for _, c := range f.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
