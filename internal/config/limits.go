package config

import (
	"fmt"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/services"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadHOSLimitsFile reads a YAML rule set. Fields missing from the file keep
// their default values.
func LoadHOSLimitsFile(path string) (hos.Limits, error) {
	limits := hos.DefaultLimits()

	data, err := os.ReadFile(path)
	if err != nil {
		return hos.Limits{}, fmt.Errorf("read hos limits %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return hos.Limits{}, fmt.Errorf("parse hos limits %q: %w", path, err)
	}
	if err := limits.Validate(); err != nil {
		return hos.Limits{}, err
	}
	return limits, nil
}

// HOSLimitsFromEnv starts from HOS_LIMITS_FILE (or the default rule set) and
// applies the HOS_* overrides.
func HOSLimitsFromEnv() (hos.Limits, error) {
	limits := hos.DefaultLimits()
	if path := Get("HOS_LIMITS_FILE", ""); path != "" {
		var err error
		if limits, err = LoadHOSLimitsFile(path); err != nil {
			return hos.Limits{}, err
		}
	}

	err := floatFields(map[string]*float64{
		"HOS_MAX_DRIVE_HOURS":      &limits.MaxDriveHours,
		"HOS_MAX_DUTY_HOURS":       &limits.MaxDutyHours,
		"HOS_BREAK_TRIGGER_HOURS":  &limits.BreakTriggerHours,
		"HOS_BREAK_HOURS":          &limits.RequiredBreakHours,
		"HOS_MIN_REST_HOURS":       &limits.MinRestHours,
		"HOS_CYCLE_LIMIT_HOURS":    &limits.CycleLimitHours,
		"HOS_RESTART_HOURS":        &limits.RestartHours,
		"HOS_WARNING_MARGIN_HOURS": &limits.WarningMarginHours,
	})
	if err != nil {
		return hos.Limits{}, err
	}

	if limits.CycleDays, err = GetInt("HOS_CYCLE_DAYS", limits.CycleDays); err != nil {
		return hos.Limits{}, err
	}

	if err := limits.Validate(); err != nil {
		return hos.Limits{}, err
	}
	return limits, nil
}

// PlannerFromEnv returns the planner tunables with PLANNER_* and COST_*
// overrides applied.
func PlannerFromEnv() (services.PlannerConfig, error) {
	cfg := services.DefaultPlannerConfig()

	err := floatFields(map[string]*float64{
		"PLANNER_FUEL_SAFETY_MARGIN":      &cfg.FuelSafetyMargin,
		"PLANNER_FUELING_HOURS":           &cfg.FuelingHours,
		"PLANNER_AVG_SPEED_MPH":           &cfg.AvgSpeedMph,
		"PLANNER_ROAD_FACTOR":             &cfg.RoadFactor,
		"PLANNER_REST_CORRIDOR_MILES":     &cfg.RestCorridorWidthMiles,
		"PLANNER_FUEL_CORRIDOR_MILES":     &cfg.FuelCorridorWidthMiles,
		"PLANNER_NEAR_POINT_RADIUS_MILES": &cfg.NearPointRadiusMiles,
		"PLANNER_REST_SEARCH_WINDOW":      &cfg.RestSearchWindow,
		"PLANNER_MIN_DRIVE_BEFORE_REST":   &cfg.MinDriveBeforeRest,
		"COST_OPERATING_PER_MILE":         &cfg.Cost.OperatingCostPerMile,
		"COST_DRIVER_PER_HOUR":            &cfg.Cost.DriverCostPerHour,
		"COST_LATE_PENALTY_PER_HOUR":      &cfg.Cost.LatePenaltyPerHour,
	})
	if err != nil {
		return services.PlannerConfig{}, err
	}

	if cfg.MaxCandidates, err = GetInt("PLANNER_MAX_CANDIDATES", cfg.MaxCandidates); err != nil {
		return services.PlannerConfig{}, err
	}
	if cfg.WeatherTimeout, err = GetDuration("WEATHER_TIMEOUT", cfg.WeatherTimeout); err != nil {
		return services.PlannerConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return services.PlannerConfig{}, err
	}
	return cfg, nil
}
