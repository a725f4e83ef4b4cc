package service

import (
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
)

const trainsPath = "/fleet/trains"

// TrainStore caches the train collection.
type TrainStore struct {
	*EntityStore[domain.Train]
}

func NewTrainStore(api ports.FleetAPI, log zerolog.Logger) *TrainStore {
	return &TrainStore{EntityStore: newEntityStore(api, entitySpec[domain.Train]{
		name: "trains",
		path: trainsPath,
		id:   func(t domain.Train) domain.ID { return t.TrainID },
		validate: func(t domain.Train, _ mutation) error {
			return domain.ValidateTrain(t)
		},
		normalize: domain.Train.Clone,
	}, log)}
}

// Compositions joins the cached trains with the given carriages.
func (s *TrainStore) Compositions(carriages []domain.Carriage) []TrainComposition {
	return Compositions(s.Items(), carriages)
}
