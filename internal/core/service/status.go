package service

import (
	"time"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

// The functions in this file are pure: they join the snapshots they are given
// and keep no state. Snapshots from different stores may lag each other.

// TrainStatus is a train with its service state at a given instant.
type TrainStatus struct {
	domain.Train
	// Active is false while any maintenance window for the train covers the
	// instant.
	Active bool `json:"active"`
}

// CarriageStatus is a carriage with its assignment state.
type CarriageStatus struct {
	domain.Carriage
	// Active is true when any train references the carriage, regardless of
	// that train's maintenance state.
	Active bool `json:"active"`
}

// TrainComposition aggregates a train's passenger cars.
type TrainComposition struct {
	TrainID     domain.ID `json:"trainID"`
	TotalWeight int       `json:"totalWeight"`
	TotalSeats  int       `json:"totalSeats"`
	// Missing lists referenced carriages absent from the carriage snapshot.
	Missing []domain.ID `json:"missing,omitempty"`
}

// TrainsWithStatus marks each train inactive when now falls inside one of its
// maintenance windows, bounds inclusive.
func TrainsWithStatus(trains []domain.Train, maintenances []domain.Maintenance, now time.Time) []TrainStatus {
	down := make(map[domain.ID]struct{})
	for _, m := range maintenances {
		if m.Covers(now) {
			down[m.TrainID] = struct{}{}
		}
	}
	out := make([]TrainStatus, 0, len(trains))
	for _, t := range trains {
		_, inMaintenance := down[t.TrainID]
		out = append(out, TrainStatus{Train: t.Clone(), Active: !inMaintenance})
	}
	return out
}

// CarriagesWithStatus marks each carriage active when some train references it
// as railcar or passenger car.
func CarriagesWithStatus(carriages []domain.Carriage, trains []domain.Train) []CarriageStatus {
	assigned := assignments(trains)
	out := make([]CarriageStatus, 0, len(carriages))
	for _, c := range carriages {
		_, ok := assigned[c.CarriageID]
		out = append(out, CarriageStatus{Carriage: c, Active: ok})
	}
	return out
}

// UnderMaintenance reports whether trainID has a window covering now.
func UnderMaintenance(trainID domain.ID, maintenances []domain.Maintenance, now time.Time) bool {
	for _, m := range maintenances {
		if m.TrainID == trainID && m.Covers(now) {
			return true
		}
	}
	return false
}

// ActiveMaintenances returns the windows covering now, in input order.
func ActiveMaintenances(maintenances []domain.Maintenance, now time.Time) []domain.Maintenance {
	var out []domain.Maintenance
	for _, m := range maintenances {
		if m.Covers(now) {
			out = append(out, m)
		}
	}
	return out
}

// Compositions sums seats and weight over each train's passenger cars. A car
// listed twice counts twice.
func Compositions(trains []domain.Train, carriages []domain.Carriage) []TrainComposition {
	byID := make(map[domain.ID]domain.Carriage, len(carriages))
	for _, c := range carriages {
		byID[c.CarriageID] = c
	}
	out := make([]TrainComposition, 0, len(trains))
	for _, t := range trains {
		comp := TrainComposition{TrainID: t.TrainID}
		for _, id := range t.PassengerCarIDs {
			c, ok := byID[id]
			if !ok {
				comp.Missing = append(comp.Missing, id)
				continue
			}
			comp.TotalWeight += c.MaxWeight
			comp.TotalSeats += c.NumberOfSeats
		}
		if t.RailcarID != "" {
			if _, ok := byID[t.RailcarID]; !ok {
				comp.Missing = append(comp.Missing, t.RailcarID)
			}
		}
		out = append(out, comp)
	}
	return out
}

// SplitByType partitions carriages into railcars and passenger cars, keeping
// input order.
func SplitByType(carriages []domain.Carriage) (railcars, passengerCars []domain.Carriage) {
	for _, c := range carriages {
		switch c.Type {
		case domain.CarriageRailcar:
			railcars = append(railcars, c)
		case domain.CarriagePassengerCar:
			passengerCars = append(passengerCars, c)
		}
	}
	return railcars, passengerCars
}

// AvailableCarriages returns the carriages no train references, ignoring the
// train being edited (exceptTrainID may be empty).
func AvailableCarriages(carriages []domain.Carriage, trains []domain.Train, exceptTrainID domain.ID) []domain.Carriage {
	others := make([]domain.Train, 0, len(trains))
	for _, t := range trains {
		if exceptTrainID != "" && t.TrainID == exceptTrainID {
			continue
		}
		others = append(others, t)
	}
	assigned := assignments(others)
	var out []domain.Carriage
	for _, c := range carriages {
		if _, ok := assigned[c.CarriageID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// SharedCarriages maps each carriage referenced by more than one train to the
// referencing train ids, in train order. The data model allows this; callers
// decide whether to flag it.
func SharedCarriages(trains []domain.Train) map[domain.ID][]domain.ID {
	assigned := assignments(trains)
	out := make(map[domain.ID][]domain.ID)
	for id, owners := range assigned {
		if len(owners) > 1 {
			out[id] = owners
		}
	}
	return out
}

// assignments maps carriage id to the ids of trains referencing it. A train
// appears at most once per carriage.
func assignments(trains []domain.Train) map[domain.ID][]domain.ID {
	out := make(map[domain.ID][]domain.ID)
	add := func(carriageID, trainID domain.ID) {
		if carriageID == "" {
			return
		}
		owners := out[carriageID]
		if len(owners) > 0 && owners[len(owners)-1] == trainID {
			return
		}
		out[carriageID] = append(owners, trainID)
	}
	for _, t := range trains {
		add(t.RailcarID, t.TrainID)
		for _, id := range t.PassengerCarIDs {
			add(id, t.TrainID)
		}
	}
	return out
}
