package dto

import (
	"hos-route-service/internal/domain"
	"time"
)

type DispatcherParams struct {
	HOSOverride      *domain.HOSState    `json:"hos_override,omitempty"`
	StartFuelGallons *float64            `json:"start_fuel_gallons,omitempty"`
	EndLocation      *domain.Coordinates `json:"end_location,omitempty"`
	EndLocationName  string              `json:"end_location_name,omitempty"`
}

type PlanRequest struct {
	DriverID             string            `json:"driver_id"`
	VehicleID            string            `json:"vehicle_id"`
	LoadIDs              []string          `json:"load_ids"`
	DepartureTime        *time.Time        `json:"departure_time"`
	OptimizationPriority string            `json:"optimization_priority,omitempty"`
	DispatcherParams     *DispatcherParams `json:"dispatcher_params,omitempty"`
}

// PlanResponse carries the stored plan's identity next to the plan itself.
// Identity fields are empty when the service runs without persistence.
type PlanResponse struct {
	ID        string            `json:"id,omitempty"`
	DisplayID string            `json:"display_id,omitempty"`
	Status    domain.PlanStatus `json:"status,omitempty"`
	Plan      *domain.Plan      `json:"plan"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
