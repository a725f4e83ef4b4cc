package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
)

const maintenancesPath = "/fleet/maintenances"

// MaintenanceStore caches maintenance windows.
type MaintenanceStore struct {
	*EntityStore[domain.Maintenance]
}

func NewMaintenanceStore(api ports.FleetAPI, log zerolog.Logger) *MaintenanceStore {
	return &MaintenanceStore{EntityStore: newEntityStore(api, entitySpec[domain.Maintenance]{
		name: "maintenances",
		path: maintenancesPath,
		id:   func(m domain.Maintenance) domain.ID { return m.MaintenanceID },
		validate: func(m domain.Maintenance, _ mutation) error {
			return domain.ValidateMaintenance(m)
		},
	}, log)}
}

// ForTrain returns the cached windows scheduled for trainID.
func (s *MaintenanceStore) ForTrain(trainID domain.ID) []domain.Maintenance {
	var out []domain.Maintenance
	for _, m := range s.Items() {
		if m.TrainID == trainID {
			out = append(out, m)
		}
	}
	return out
}

// Active returns the cached windows covering now.
func (s *MaintenanceStore) Active(now time.Time) []domain.Maintenance {
	return ActiveMaintenances(s.Items(), now)
}
