// Package hos implements the Hours-of-Service rule engine.
//
// Every function is pure: states go in, new states come out, and nothing
// touches an external resource.
package hos

import (
	"fmt"
	"hos-route-service/internal/domain"
	"math"
)

// maxInputHours bounds every hour value accepted by the guarded operations.
const maxInputHours = 24

// InputError is raised for hour inputs outside [0, 24]. It signals a caller
// bug, not a compliance finding.
type InputError struct {
	Field string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("hos: %s must be within [0, %d] hours, got %v", e.Field, maxInputHours, e.Value)
}

func checkHours(field string, v float64) error {
	if v < 0 || v > maxInputHours || math.IsNaN(v) {
		return &InputError{Field: field, Value: v}
	}
	return nil
}

// Engine evaluates and advances HOS state under one set of limits.
// It is safe for concurrent use.
type Engine struct {
	limits Limits
}

func NewEngine(limits Limits) (*Engine, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Engine{limits: limits}, nil
}

func (e *Engine) Limits() Limits { return e.limits }

// HoursUntilRestRequired is the smaller of the hours left before the drive
// limit and before the duty-window limit.
func (e *Engine) HoursUntilRestRequired(hoursDriven, onDutyTime float64) float64 {
	drive := math.Max(0, e.limits.MaxDriveHours-hoursDriven)
	duty := math.Max(0, e.limits.MaxDutyHours-onDutyTime)
	return math.Min(drive, duty)
}

// HoursUntilBreakRequired is the driving time left before a 30-minute break is due.
func (e *Engine) HoursUntilBreakRequired(s domain.HOSState) float64 {
	return math.Max(0, e.limits.BreakTriggerHours-s.HoursSinceBreak)
}

// CycleHoursRemaining is the on-duty time left in the rolling cycle.
func (e *Engine) CycleHoursRemaining(s domain.HOSState) float64 {
	return math.Max(0, e.limits.CycleLimitHours-s.CycleHoursUsed)
}

// DrivingAvailable is the look-ahead budget for continuous driving: the daily
// limits and the cycle, whichever binds first. Breaks are handled separately.
func (e *Engine) DrivingAvailable(s domain.HOSState) float64 {
	return math.Min(e.HoursUntilRestRequired(s.HoursDriven, s.OnDutyTime), e.CycleHoursRemaining(s))
}

// NeedsRestart reports whether the cycle, rather than the daily limits, is
// what stops the driver. A 10-hour rest cannot help in that case.
func (e *Engine) NeedsRestart(s domain.HOSState) bool {
	const eps = 1e-9
	cycle := e.CycleHoursRemaining(s)
	if cycle <= eps {
		return true
	}
	return cycle < e.HoursUntilRestRequired(s.HoursDriven, s.OnDutyTime)-eps
}

// SimulateAfterDriving advances the state across a leg. Non-driving on-duty
// work bundled into the leg is accounted by taking the larger of the two.
func (e *Engine) SimulateAfterDriving(s domain.HOSState, driveHours, onDutyHours float64) domain.HOSState {
	out := s.Clone()
	duty := math.Max(driveHours, onDutyHours)
	out.HoursDriven += driveHours
	out.OnDutyTime += duty
	out.HoursSinceBreak += duty
	out.CycleHoursUsed += duty
	return out
}

// SimulateAfterOnDuty advances the state across on-duty, not-driving work such
// as docking or fueling.
func (e *Engine) SimulateAfterOnDuty(s domain.HOSState, hours float64) domain.HOSState {
	out := s.Clone()
	out.OnDutyTime += hours
	out.HoursSinceBreak += hours
	out.CycleHoursUsed += hours
	return out
}

// SimulateAfterWait advances the state across off-duty waiting inside the duty
// window. The window keeps running; a long enough wait counts as a break.
func (e *Engine) SimulateAfterWait(s domain.HOSState, hours float64) domain.HOSState {
	out := s.Clone()
	out.OnDutyTime += hours
	if hours >= e.limits.RequiredBreakHours {
		out.HoursSinceBreak = 0
	}
	return out
}

// SimulateAfterBreak resets the time since the last break without touching
// drive or duty hours.
func (e *Engine) SimulateAfterBreak(s domain.HOSState) domain.HOSState {
	out := s.Clone()
	out.HoursSinceBreak = 0
	return out
}

// SimulateAfterFullRest zeroes the daily counters. The rolling cycle is unaffected.
func (e *Engine) SimulateAfterFullRest(s domain.HOSState) domain.HOSState {
	out := s.Clone()
	out.HoursDriven = 0
	out.OnDutyTime = 0
	out.HoursSinceBreak = 0
	out.SplitSleeper = nil
	return out
}

// SimulateAfter34hRestart zeroes all counters, including the cycle.
func (e *Engine) SimulateAfter34hRestart(s domain.HOSState) domain.HOSState {
	return domain.HOSState{}
}

// SimulateAfterSplitRest logs sleeper-berth periods.
//
// With both periods given, the pair qualifies when one period is at least the
// long split, the other at least the short split, and together they reach the
// minimum rest; a qualifying pair resets the daily counters. A first period
// given alone (second == 0) is held in SplitSleeper until its partner arrives,
// and a pending first period pairs with a later call that passes only the
// second. Any period at least as long as the required break resets the time
// since the last break.
func (e *Engine) SimulateAfterSplitRest(s domain.HOSState, firstPeriodHours, secondPeriodHours float64) (domain.HOSState, error) {
	if err := checkHours("first_period_hours", firstPeriodHours); err != nil {
		return s, err
	}
	if err := checkHours("second_period_hours", secondPeriodHours); err != nil {
		return s, err
	}

	out := s.Clone()
	if firstPeriodHours >= e.limits.RequiredBreakHours || secondPeriodHours >= e.limits.RequiredBreakHours {
		out.HoursSinceBreak = 0
	}

	first, second := firstPeriodHours, secondPeriodHours
	if first == 0 && out.SplitSleeper != nil {
		first = out.SplitSleeper.FirstPeriodHours
	}

	switch {
	case first > 0 && second > 0:
		if e.qualifyingPair(first, second) {
			return e.SimulateAfterFullRest(out), nil
		}
		// A non-qualifying pair is two ordinary off-duty periods.
		out.SplitSleeper = nil
	case first > 0:
		out.SplitSleeper = &domain.SplitSleeperState{FirstPeriodHours: first}
	}

	return out, nil
}

func (e *Engine) qualifyingPair(a, b float64) bool {
	long, short := math.Max(a, b), math.Min(a, b)
	return long >= e.limits.SplitLongHours &&
		short >= e.limits.SplitShortHours &&
		long+short >= e.limits.MinRestHours
}
