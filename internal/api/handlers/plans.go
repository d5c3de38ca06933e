package handlers

import (
	"context"
	"hos-route-service/internal/api/dto"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/ports"
	"hos-route-service/internal/services"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// TripPlanner is the planning operation the handler drives.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req services.PlanTripRequest) (*services.PlanTripResult, error)
}

type PlanHandler struct {
	Planner TripPlanner
	// Store is optional; lifecycle endpoints answer 503 without it.
	Store ports.PlanStore
}

// Create validates the request shape and runs a planning request for the
// caller's tenant.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantID(r)
	if tenant == "" {
		writeError(w, r, http.StatusBadRequest, "X-Tenant-ID header is required")
		return
	}

	var req dto.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	priority, err := domain.ParsePriority(req.OptimizationPriority)
	if err != nil {
		writeServiceError(w, r, "plans.create", domain.NewValidationError(domain.ReasonInvalidRequest, "%v", err))
		return
	}

	var depart time.Time
	if req.DepartureTime != nil {
		depart = *req.DepartureTime
	}

	svcReq := services.PlanTripRequest{
		TenantID:  tenant,
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		LoadIDs:   req.LoadIDs,
		DepartAt:  depart,
		Priority:  priority,
	}
	if p := req.DispatcherParams; p != nil {
		svcReq.Params = &services.DispatcherParams{
			HOSOverride:      p.HOSOverride,
			StartFuelGallons: p.StartFuelGallons,
			EndLocation:      p.EndLocation,
			EndLocationName:  p.EndLocationName,
		}
	}

	res, err := h.Planner.PlanTrip(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, "plans.create", err)
		return
	}

	out := dto.PlanResponse{Plan: res.Plan}
	status := http.StatusOK
	if res.Record != nil {
		out.ID = res.Record.ID
		out.DisplayID = res.Record.DisplayID
		out.Status = res.Record.Status
		status = http.StatusCreated
	}
	writeJSON(w, r, status, out)
}

func (h *PlanHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanStatusActive)
}

func (h *PlanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanStatusCancelled)
}

func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanStatusCompleted)
}

func (h *PlanHandler) transition(w http.ResponseWriter, r *http.Request, next domain.PlanStatus) {
	if h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "plan storage is not configured")
		return
	}
	tenant := tenantID(r)
	if tenant == "" {
		writeError(w, r, http.StatusBadRequest, "X-Tenant-ID header is required")
		return
	}

	rec, err := h.Store.TransitionStatus(r.Context(), tenant, chi.URLParam(r, "id"), next)
	if err != nil {
		writeServiceError(w, r, "plans.transition", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}
