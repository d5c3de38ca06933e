package domain

import "time"

type SegmentType string

const (
	SegmentDrive SegmentType = "drive"
	SegmentDock  SegmentType = "dock"
	SegmentRest  SegmentType = "rest"
	SegmentFuel  SegmentType = "fuel"
)

type RestType string

const (
	RestFull           RestType = "full_rest"
	RestPartial        RestType = "partial_rest"
	RestMandatoryBreak RestType = "mandatory_break"
	RestRestart34h     RestType = "restart_34h"
)

// DriveDetail is populated when the segment type is drive.
type DriveDetail struct {
	DistanceMiles     float64 `json:"distance_miles"`
	DriveTimeHours    float64 `json:"drive_time_hours"`
	WeatherMultiplier float64 `json:"weather_multiplier"`
	Source            string  `json:"source"`
}

// RestDetail is populated when the segment type is rest.
type RestDetail struct {
	Type          RestType `json:"rest_type"`
	DurationHours float64  `json:"duration_hours"`
	RestAreaID    string   `json:"rest_area_id,omitempty"`
}

// FuelDetail is populated when the segment type is fuel.
type FuelDetail struct {
	Gallons        float64 `json:"gallons"`
	Cost           float64 `json:"cost"`
	PricePerGallon float64 `json:"price_per_gallon"`
	StationID      string  `json:"station_id"`
	StationName    string  `json:"station_name"`
	DurationHours  float64 `json:"duration_hours"`
}

// DockDetail is populated when the segment type is dock.
type DockDetail struct {
	DurationHours     float64 `json:"duration_hours"`
	WaitHours         float64 `json:"wait_hours,omitempty"`
	StopID            string  `json:"stop_id"`
	CustomerReference string  `json:"customer_reference,omitempty"`
}

// RouteSegment is one atomic unit of the plan timeline.
//
// Segments are appended in order and never modified afterwards. Exactly one of
// the detail pointers matching Type is non-nil.
type RouteSegment struct {
	SequenceOrder int          `json:"sequence_order"`
	Type          SegmentType  `json:"segment_type"`
	From          Place        `json:"from"`
	To            Place        `json:"to"`
	Drive         *DriveDetail `json:"drive,omitempty"`
	Rest          *RestDetail  `json:"rest,omitempty"`
	Fuel          *FuelDetail  `json:"fuel,omitempty"`
	Dock          *DockDetail  `json:"dock,omitempty"`
	HOSAfter      HOSState     `json:"hos_after"`
	FuelAfter     float64      `json:"fuel_after_gallons"`
	ArriveAt      time.Time    `json:"estimated_arrival"`
	DepartAt      time.Time    `json:"estimated_departure"`
}

// DistanceMiles returns the driven distance, or zero for non-drive segments.
func (s RouteSegment) DistanceMiles() float64 {
	if s.Drive == nil {
		return 0
	}
	return s.Drive.DistanceMiles
}
