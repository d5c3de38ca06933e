package services

import (
	"hos-route-service/internal/domain"
	"time"
)

// CostModel prices a route in dollars.
type CostModel struct {
	OperatingCostPerMile float64 `yaml:"operating_cost_per_mile"`
	DriverCostPerHour    float64 `yaml:"driver_cost_per_hour"`
	LatePenaltyPerHour   float64 `yaml:"late_penalty_per_hour"`
}

func DefaultCostModel() CostModel {
	return CostModel{
		OperatingCostPerMile: 0.85,
		DriverCostPerHour:    32,
		LatePenaltyPerHour:   250,
	}
}

// tally accumulates the quantities an ordering is scored on while walking a
// candidate stop sequence.
type tally struct {
	clock      time.Time
	miles      float64
	driveHours float64
	dockHours  float64
	waitHours  float64
	lateHours  float64
}

// visit advances the tally across one leg and the dock time at its
// destination. The receiver is copied so partial walks can branch cheaply.
func (t tally) visit(legMiles, legHours float64, to domain.Stop) tally {
	t.miles += legMiles
	t.driveHours += legHours
	t.clock = t.clock.Add(hoursToDuration(legHours))

	if w := to.Window; w != nil {
		if w.Earliest != nil && t.clock.Before(*w.Earliest) {
			wait := w.Earliest.Sub(t.clock).Hours()
			t.waitHours += wait
			t.clock = *w.Earliest
		}
		if w.Latest != nil && t.clock.After(*w.Latest) {
			t.lateHours += t.clock.Sub(*w.Latest).Hours()
		}
	}

	t.dockHours += to.DockHours
	t.clock = t.clock.Add(hoursToDuration(to.DockHours))
	return t
}

// score converts a tally into the objective for the given priority. Every
// component is non-decreasing along a walk, which the exact search relies on
// for pruning.
func (c CostModel) score(t tally, priority domain.OptimizationPriority) float64 {
	rate := c.DriverCostPerHour
	if rate <= 0 {
		rate = 1
	}

	timeCost := (t.driveHours + t.dockHours + t.waitHours) * rate
	moneyCost := t.miles*c.OperatingCostPerMile + (t.driveHours+t.dockHours)*c.DriverCostPerHour
	late := t.lateHours * c.LatePenaltyPerHour

	switch priority {
	case domain.PriorityMinimizeCost:
		return moneyCost + late
	case domain.PriorityBalance:
		return (timeCost+moneyCost)/2 + late
	default:
		return timeCost + late
	}
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
