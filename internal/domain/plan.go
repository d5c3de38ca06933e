package domain

import (
	"fmt"
	"time"
)

type OptimizationPriority string

const (
	PriorityMinimizeTime OptimizationPriority = "minimize_time"
	PriorityMinimizeCost OptimizationPriority = "minimize_cost"
	PriorityBalance      OptimizationPriority = "balance"
)

// ParsePriority maps an empty value to minimize_time and rejects unknown values.
func ParsePriority(s string) (OptimizationPriority, error) {
	switch OptimizationPriority(s) {
	case "":
		return PriorityMinimizeTime, nil
	case PriorityMinimizeTime, PriorityMinimizeCost, PriorityBalance:
		return OptimizationPriority(s), nil
	}
	return "", fmt.Errorf("unknown optimization priority %q", s)
}

// Feasibility issue codes.
const (
	IssueNoRestStop        = "no_rest_stop"
	IssueNoFuelStop        = "no_fuel_stop"
	IssueAppointmentMissed = "appointment_missed"
	IssueHOSViolation      = "hos_violation"
)

// FeasibilityIssue records why a plan could not fully satisfy its constraints.
type FeasibilityIssue struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	StopID       string `json:"stop_id,omitempty"`
	SegmentOrder int    `json:"segment_order,omitempty"`
}

type PlanTotals struct {
	DistanceMiles float64 `json:"total_distance_miles"`
	DriveHours    float64 `json:"total_drive_hours"`
	OnDutyHours   float64 `json:"total_on_duty_hours"`
	RestHours     float64 `json:"total_rest_hours"`
	FuelGallons   float64 `json:"total_fuel_gallons"`
	FuelCost      float64 `json:"total_fuel_cost"`
	OperatingCost float64 `json:"total_operating_cost"`
	Cost          float64 `json:"total_cost"`
	ElapsedHours  float64 `json:"total_elapsed_hours"`
}

type RestStopSummary struct {
	SegmentOrder  int         `json:"segment_order"`
	Type          RestType    `json:"rest_type"`
	Name          string      `json:"name"`
	RestAreaID    string      `json:"rest_area_id,omitempty"`
	Point         Coordinates `json:"point"`
	DurationHours float64     `json:"duration_hours"`
	StartAt       time.Time   `json:"start_at"`
}

type FuelStopSummary struct {
	SegmentOrder   int         `json:"segment_order"`
	StationID      string      `json:"station_id"`
	StationName    string      `json:"station_name"`
	Point          Coordinates `json:"point"`
	Gallons        float64     `json:"gallons"`
	PricePerGallon float64     `json:"price_per_gallon"`
	Cost           float64     `json:"cost"`
}

// WeatherImpact records a weather-driven slowdown applied to a leg.
type WeatherImpact struct {
	FromStopID string  `json:"from_stop_id"`
	ToStopID   string  `json:"to_stop_id"`
	Severity   string  `json:"severity"`
	Multiplier float64 `json:"multiplier"`
}

// LimitUsage compares the peak value reached against a configured limit.
type LimitUsage struct {
	Used  float64 `json:"used"`
	Limit float64 `json:"limit"`
}

// ComplianceReport summarizes HOS usage across the simulated timeline.
type ComplianceReport struct {
	IsCompliant    bool       `json:"is_compliant"`
	Drive          LimitUsage `json:"drive"`
	Duty           LimitUsage `json:"duty"`
	SinceBreak     LimitUsage `json:"since_break"`
	Cycle          LimitUsage `json:"cycle"`
	BreaksRequired int        `json:"breaks_required"`
	BreaksPlanned  int        `json:"breaks_planned"`
	FullRests      int        `json:"full_rests"`
	SplitRests     int        `json:"split_rests"`
	Restarts       int        `json:"restarts"`
	Violations     []string   `json:"violations"`
}

// Plan is the output of one planning run.
//
// It is handed to persistence as an immutable artifact; lifecycle changes after
// creation are owned by the store.
type Plan struct {
	TenantID     string               `json:"tenant_id"`
	DriverID     string               `json:"driver_id"`
	VehicleID    string               `json:"vehicle_id"`
	LoadIDs      []string             `json:"load_ids"`
	Priority     OptimizationPriority `json:"optimization_priority"`
	DepartAt     time.Time            `json:"departure_time"`
	ArriveAt     time.Time            `json:"arrival_time"`
	StopSequence []string             `json:"optimized_stop_sequence"`
	Segments     []RouteSegment       `json:"segments"`
	Totals       PlanTotals           `json:"totals"`
	RestStops    []RestStopSummary    `json:"rest_stops"`
	FuelStops    []FuelStopSummary    `json:"fuel_stops"`
	Weather      []WeatherImpact      `json:"weather_impacts"`
	IsFeasible   bool                 `json:"is_feasible"`
	Issues       []FeasibilityIssue   `json:"feasibility_issues"`
	Warnings     []string             `json:"warnings"`
	Compliance   ComplianceReport     `json:"compliance"`
}

// SegmentsOfType returns the segments with the given type, in timeline order.
func (p *Plan) SegmentsOfType(t SegmentType) []RouteSegment {
	var out []RouteSegment
	for _, s := range p.Segments {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// CanTransition reports whether a stored plan may move from s to next.
func (s PlanStatus) CanTransition(next PlanStatus) bool {
	switch s {
	case PlanStatusDraft:
		return next == PlanStatusActive || next == PlanStatusCancelled
	case PlanStatusActive:
		return next == PlanStatusCompleted || next == PlanStatusCancelled
	}
	return false
}

// PlanRecord is what the store returns after persisting a plan.
type PlanRecord struct {
	ID        string     `json:"id"`
	DisplayID string     `json:"display_id"`
	Status    PlanStatus `json:"status"`
}
