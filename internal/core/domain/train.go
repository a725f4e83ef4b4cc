package domain

// Train is a composition of at most one railcar and an ordered list of
// passenger cars. A passenger car id may appear in several trains; the data
// model does not enforce exclusive assignment.
type Train struct {
	TrainID         ID     `json:"trainID,omitempty"`
	Name            string `json:"name"      validate:"required"`
	RailcarID       ID     `json:"railcarID" validate:"required"`
	PassengerCarIDs []ID   `json:"passengerCarIDs"`
}

// References reports whether the carriage is this train's railcar or one of
// its passenger cars.
func (t Train) References(carriageID ID) bool {
	if carriageID == "" {
		return false
	}
	if t.RailcarID == carriageID {
		return true
	}
	for _, id := range t.PassengerCarIDs {
		if id == carriageID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t.
func (t Train) Clone() Train {
	if t.PassengerCarIDs != nil {
		t.PassengerCarIDs = append([]ID(nil), t.PassengerCarIDs...)
	}
	return t
}
