package services

import (
	"errors"
	"time"
)

// PlannerConfig holds the tunables of the route planning engine.
type PlannerConfig struct {
	FuelSafetyMargin       float64       `yaml:"fuel_safety_margin"`
	FuelingHours           float64       `yaml:"fueling_hours"`
	AvgSpeedMph            float64       `yaml:"avg_speed_mph"`
	RoadFactor             float64       `yaml:"road_factor"`
	RestCorridorWidthMiles float64       `yaml:"rest_corridor_width_miles"`
	FuelCorridorWidthMiles float64       `yaml:"fuel_corridor_width_miles"`
	NearPointRadiusMiles   float64       `yaml:"near_point_radius_miles"`
	RestSearchWindow       float64       `yaml:"rest_search_window"`
	MinDriveBeforeRest     float64       `yaml:"min_drive_before_rest_hours"`
	MaxCandidates          int           `yaml:"max_candidates"`
	WeatherTimeout         time.Duration `yaml:"weather_timeout"`
	Cost                   CostModel     `yaml:"cost"`
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		FuelSafetyMargin:       1.2,
		FuelingHours:           0.25,
		AvgSpeedMph:            55,
		RoadFactor:             1.2,
		RestCorridorWidthMiles: 5,
		FuelCorridorWidthMiles: 10,
		NearPointRadiusMiles:   25,
		RestSearchWindow:       0.4,
		MinDriveBeforeRest:     1,
		MaxCandidates:          3,
		WeatherTimeout:         3 * time.Second,
		Cost:                   DefaultCostModel(),
	}
}

func (c PlannerConfig) Validate() error {
	switch {
	case c.FuelSafetyMargin < 1:
		return errors.New("planner config: fuel safety margin must be >= 1")
	case c.FuelingHours < 0:
		return errors.New("planner config: fueling hours must be >= 0")
	case c.AvgSpeedMph <= 0:
		return errors.New("planner config: average speed must be positive")
	case c.RoadFactor < 1:
		return errors.New("planner config: road factor must be >= 1")
	case c.RestCorridorWidthMiles <= 0 || c.FuelCorridorWidthMiles <= 0 || c.NearPointRadiusMiles <= 0:
		return errors.New("planner config: search widths must be positive")
	case c.RestSearchWindow <= 0 || c.RestSearchWindow > 1:
		return errors.New("planner config: rest search window must be in (0, 1]")
	case c.MaxCandidates < 1:
		return errors.New("planner config: max candidates must be >= 1")
	}
	return nil
}
