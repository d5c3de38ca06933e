package ports

import (
	"context"
	"hos-route-service/internal/domain"
)

// Port: tenant-scoped lookups of the records a planning request refers to.
// Unknown ids return an error wrapping domain.ErrNotFound.
type FleetRepository interface {
	GetDriver(ctx context.Context, tenantID, driverID string) (*domain.Driver, error)
	GetVehicle(ctx context.Context, tenantID, vehicleID string) (*domain.Vehicle, error)
	// Return loads in the order of loadIDs, each with its stops.
	GetLoads(ctx context.Context, tenantID string, loadIDs []string) ([]*domain.Load, error)
}

// Port: durable storage of finished plans.
type PlanStore interface {
	// Store the plan and all of its segments atomically.
	CreatePlan(ctx context.Context, plan *domain.Plan) (domain.PlanRecord, error)
	TransitionStatus(ctx context.Context, tenantID, planID string, next domain.PlanStatus) (domain.PlanRecord, error)
}

// Port: announces created plans to other services.
type PlanPublisher interface {
	PublishPlanCreated(ctx context.Context, rec domain.PlanRecord, plan *domain.Plan) error
}
