package domain

import (
	"fmt"
	"math"
)

// HOSState is a driver's Hours-of-Service counters at a point in time.
//
// It is a value type: every transition in the hos package returns a new state.
// All counters are non-negative hours.
type HOSState struct {
	HoursDriven     float64            `json:"hours_driven" yaml:"hours_driven"`
	OnDutyTime      float64            `json:"on_duty_time" yaml:"on_duty_time"`
	HoursSinceBreak float64            `json:"hours_since_break" yaml:"hours_since_break"`
	CycleHoursUsed  float64            `json:"cycle_hours_used" yaml:"cycle_hours_used"`
	SplitSleeper    *SplitSleeperState `json:"split_sleeper,omitempty" yaml:"split_sleeper,omitempty"`
}

// SplitSleeperState holds the first logged period of a sleeper-berth split
// until its qualifying partner period is logged.
type SplitSleeperState struct {
	FirstPeriodHours float64 `json:"first_period_hours" yaml:"first_period_hours"`
}

// Clone returns a copy that shares no pointers with s.
func (s HOSState) Clone() HOSState {
	out := s
	if s.SplitSleeper != nil {
		ss := *s.SplitSleeper
		out.SplitSleeper = &ss
	}
	return out
}

// maxDailyHours bounds the counters that reset with a daily rest.
const maxDailyHours = 24

// Validate rejects counters that no real duty log can produce: negative or
// non-finite values, daily counters above 24h, or a pending split period
// outside [0, 24].
func (s HOSState) Validate() error {
	daily := []struct {
		name string
		v    float64
	}{
		{"hours_driven", s.HoursDriven},
		{"on_duty_time", s.OnDutyTime},
		{"hours_since_break", s.HoursSinceBreak},
	}
	for _, c := range daily {
		if math.IsNaN(c.v) || c.v < 0 || c.v > maxDailyHours {
			return fmt.Errorf("%s must be within [0, %d], got %v", c.name, maxDailyHours, c.v)
		}
	}
	if math.IsNaN(s.CycleHoursUsed) || math.IsInf(s.CycleHoursUsed, 0) || s.CycleHoursUsed < 0 {
		return fmt.Errorf("cycle_hours_used must be a non-negative number, got %v", s.CycleHoursUsed)
	}
	if ss := s.SplitSleeper; ss != nil {
		if math.IsNaN(ss.FirstPeriodHours) || ss.FirstPeriodHours < 0 || ss.FirstPeriodHours > maxDailyHours {
			return fmt.Errorf("split_sleeper.first_period_hours must be within [0, %d], got %v", maxDailyHours, ss.FirstPeriodHours)
		}
	}
	return nil
}
