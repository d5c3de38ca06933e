package domain

import "time"

type StopAction string

const (
	StopActionPickup   StopAction = "pickup"
	StopActionDelivery StopAction = "delivery"
	StopActionOther    StopAction = "other"
)

type StopRole string

const (
	StopRoleFree        StopRole = "free"
	StopRoleOrigin      StopRole = "origin"
	StopRoleDestination StopRole = "destination"
)

// AppointmentWindow bounds the acceptable arrival time at a stop.
// Either bound may be nil.
type AppointmentWindow struct {
	Earliest *time.Time `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// Stop is an immutable input to a single planning run.
type Stop struct {
	ID                string             `json:"id" yaml:"id"`
	LoadID            string             `json:"load_id,omitempty" yaml:"load_id,omitempty"`
	Name              string             `json:"name,omitempty" yaml:"name,omitempty"`
	Address           string             `json:"address,omitempty" yaml:"address,omitempty"`
	Point             Coordinates        `json:"point" yaml:"point"`
	Action            StopAction         `json:"action" yaml:"action"`
	DockHours         float64            `json:"dock_hours" yaml:"dock_hours"`
	Window            *AppointmentWindow `json:"window,omitempty" yaml:"window,omitempty"`
	Role              StopRole           `json:"role,omitempty" yaml:"role,omitempty"`
	CustomerReference string             `json:"customer_reference,omitempty" yaml:"customer_reference,omitempty"`
}

// Place returns the stop as a timeline place.
func (s Stop) Place() Place {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	return Place{Name: name, StopID: s.ID, Point: s.Point}
}
