package hos

import (
	"errors"
	"fmt"
)

// Limits are the regulatory thresholds the engine enforces, in hours.
// They are plain configuration so tenants and tests can run different rule sets
// side by side.
type Limits struct {
	MaxDriveHours      float64 `yaml:"max_drive_hours"`
	MaxDutyHours       float64 `yaml:"max_duty_hours"`
	BreakTriggerHours  float64 `yaml:"break_trigger_hours"`
	RequiredBreakHours float64 `yaml:"required_break_hours"`
	MinRestHours       float64 `yaml:"min_rest_hours"`
	CycleLimitHours    float64 `yaml:"cycle_limit_hours"`
	CycleDays          int     `yaml:"cycle_days"`
	RestartHours       float64 `yaml:"restart_hours"`
	SplitLongHours     float64 `yaml:"split_long_hours"`
	SplitShortHours    float64 `yaml:"split_short_hours"`
	WarningMarginHours float64 `yaml:"warning_margin_hours"`
}

// DefaultLimits returns the US property-carrying 70-hour/8-day rule set.
func DefaultLimits() Limits {
	return Limits{
		MaxDriveHours:      11,
		MaxDutyHours:       14,
		BreakTriggerHours:  8,
		RequiredBreakHours: 0.5,
		MinRestHours:       10,
		CycleLimitHours:    70,
		CycleDays:          8,
		RestartHours:       34,
		SplitLongHours:     7,
		SplitShortHours:    2,
		WarningMarginHours: 1,
	}
}

func (l Limits) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"max_drive_hours", l.MaxDriveHours},
		{"max_duty_hours", l.MaxDutyHours},
		{"break_trigger_hours", l.BreakTriggerHours},
		{"required_break_hours", l.RequiredBreakHours},
		{"min_rest_hours", l.MinRestHours},
		{"cycle_limit_hours", l.CycleLimitHours},
		{"restart_hours", l.RestartHours},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("hos limits: %s must be greater than 0, got %v", p.name, p.v)
		}
	}

	if l.CycleDays <= 0 {
		return errors.New("hos limits: cycle_days must be greater than 0")
	}
	if l.MaxDriveHours > l.MaxDutyHours {
		return fmt.Errorf("hos limits: max_drive_hours (%v) exceeds max_duty_hours (%v)", l.MaxDriveHours, l.MaxDutyHours)
	}
	if l.WarningMarginHours < 0 {
		return errors.New("hos limits: warning_margin_hours must not be negative")
	}
	if l.SplitLongHours < 0 || l.SplitShortHours < 0 {
		return errors.New("hos limits: split sleeper periods must not be negative")
	}

	return nil
}
