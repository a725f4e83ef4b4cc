package domain

// CarriageType discriminates the type-specific carriage attributes.
type CarriageType string

const (
	CarriageRailcar      CarriageType = "Railcar"
	CarriagePassengerCar CarriageType = "PassengerCar"
)

// Track gauges accepted by the fleet API, in millimetres.
const (
	GaugeStandard = "1435"
	GaugeNarrow   = "1000"
)

// Carriage is a railcar (self-propelled) or a passenger car.
type Carriage struct {
	CarriageID ID           `json:"carriageID,omitempty"`
	Type       CarriageType `json:"type"       validate:"required,oneof=Railcar PassengerCar"`
	TrackGauge string       `json:"trackGauge" validate:"required,oneof=1435 1000"`

	// Railcar only.
	MaxTractiveForce int `json:"maxTractiveForce,omitempty" validate:"required_if=Type Railcar,gte=0"`

	// PassengerCar only.
	NumberOfSeats int `json:"numberOfSeats,omitempty" validate:"required_if=Type PassengerCar,gte=0"`
	MaxWeight     int `json:"maxWeight,omitempty"     validate:"required_if=Type PassengerCar,gte=0"`
}

func (c Carriage) IsRailcar() bool      { return c.Type == CarriageRailcar }
func (c Carriage) IsPassengerCar() bool { return c.Type == CarriagePassengerCar }

// Option is a value/label pair offered to selection inputs.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
