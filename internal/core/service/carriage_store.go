package service

import (
	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
)

const carriagesPath = "/fleet/carriages"

// CarriageStore caches railcars and passenger cars in one collection.
type CarriageStore struct {
	*EntityStore[domain.Carriage]
}

func NewCarriageStore(api ports.FleetAPI, log zerolog.Logger) *CarriageStore {
	return &CarriageStore{EntityStore: newEntityStore(api, entitySpec[domain.Carriage]{
		name: "carriages",
		path: carriagesPath,
		id:   func(c domain.Carriage) domain.ID { return c.CarriageID },
		validate: func(c domain.Carriage, _ mutation) error {
			return domain.ValidateCarriage(c)
		},
	}, log)}
}

// Railcars returns the cached carriages of type Railcar.
func (s *CarriageStore) Railcars() []domain.Carriage {
	railcars, _ := SplitByType(s.Items())
	return railcars
}

// PassengerCars returns the cached carriages of type PassengerCar.
func (s *CarriageStore) PassengerCars() []domain.Carriage {
	_, passengerCars := SplitByType(s.Items())
	return passengerCars
}

// TrackGauges lists the gauges the fleet API accepts.
func (s *CarriageStore) TrackGauges() []domain.Option {
	return []domain.Option{
		{Label: "Standard gauge", Value: domain.GaugeStandard},
		{Label: "Narrow gauge", Value: domain.GaugeNarrow},
	}
}

// CarriageTypes lists the carriage kinds.
func (s *CarriageStore) CarriageTypes() []domain.Option {
	return []domain.Option{
		{Label: "Railcar", Value: string(domain.CarriageRailcar)},
		{Label: "Passenger car", Value: string(domain.CarriagePassengerCar)},
	}
}
