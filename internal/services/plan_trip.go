package services

import (
	"context"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const geocodeConcurrency = 4

// DispatcherParams are optional adjustments a dispatcher can make to a
// planning request.
type DispatcherParams struct {
	HOSOverride      *domain.HOSState
	StartFuelGallons *float64
	EndLocation      *domain.Coordinates
	EndLocationName  string
}

type PlanTripRequest struct {
	TenantID  string
	DriverID  string
	VehicleID string
	LoadIDs   []string
	DepartAt  time.Time
	Priority  domain.OptimizationPriority
	Params    *DispatcherParams
}

type PlanTripResult struct {
	// Record is nil when the planner runs without a store.
	Record *domain.PlanRecord
	Plan   *domain.Plan
}

type TripPlannerDeps struct {
	Fleet     ports.FleetRepository
	Geocoder  ports.Geocoder
	Planner   *RoutePlanner
	Store     ports.PlanStore
	Publisher ports.PlanPublisher
}

// TripPlanner answers planning requests: it validates the request, resolves
// the driver, vehicle and loads, sequences the stops, simulates the route and
// hands the plan to the store.
type TripPlanner struct {
	fleet     ports.FleetRepository
	geocoder  ports.Geocoder
	planner   *RoutePlanner
	store     ports.PlanStore
	publisher ports.PlanPublisher
}

func NewTripPlanner(deps TripPlannerDeps) (*TripPlanner, error) {
	if deps.Fleet == nil {
		return nil, errors.New("new trip planner: fleet repository is required")
	}
	if deps.Planner == nil {
		return nil, errors.New("new trip planner: route planner is required")
	}
	return &TripPlanner{
		fleet:     deps.Fleet,
		geocoder:  deps.Geocoder,
		planner:   deps.Planner,
		store:     deps.Store,
		publisher: deps.Publisher,
	}, nil
}

func (t *TripPlanner) PlanTrip(ctx context.Context, req PlanTripRequest) (res *PlanTripResult, err error) {
	defer obs.Time(ctx, "plan_trip")(&err)
	start := time.Now()
	defer func() { obs.PlanningDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	driver, err := t.fleet.GetDriver(ctx, req.TenantID, req.DriverID)
	if err != nil {
		return nil, lookupError(err, domain.ReasonDriverNotFound, "driver %q", req.DriverID)
	}
	if req.Params == nil || req.Params.HOSOverride == nil {
		if err := driver.HOS.Validate(); err != nil {
			return nil, domain.NewValidationError(domain.ReasonInvalidRequest, "driver %q hos state: %v", driver.ID, err)
		}
	}
	vehicle, err := t.fleet.GetVehicle(ctx, req.TenantID, req.VehicleID)
	if err != nil {
		return nil, lookupError(err, domain.ReasonVehicleNotFound, "vehicle %q", req.VehicleID)
	}
	loads, err := t.fleet.GetLoads(ctx, req.TenantID, req.LoadIDs)
	if err != nil {
		return nil, lookupError(err, domain.ReasonLoadNotFound, "loads %s", strings.Join(req.LoadIDs, ","))
	}

	stops, err := collectStops(loads)
	if err != nil {
		return nil, err
	}
	if err := t.resolveGeography(ctx, stops); err != nil {
		return nil, err
	}

	if !driver.CurrentLocation.Valid() {
		return nil, domain.NewValidationError(domain.ReasonStopWithoutGeography, "driver %q has no current location", driver.ID)
	}
	route := make([]domain.Stop, 0, len(stops)+2)
	route = append(route, domain.Stop{
		ID:     "origin:" + driver.ID,
		Name:   "current location",
		Point:  driver.CurrentLocation,
		Action: domain.StopActionOther,
		Role:   domain.StopRoleOrigin,
	})
	route = append(route, stops...)
	if p := req.Params; p != nil && p.EndLocation != nil {
		if !p.EndLocation.Valid() {
			return nil, domain.NewValidationError(domain.ReasonInvalidRequest, "end location is not a valid coordinate")
		}
		name := p.EndLocationName
		if name == "" {
			name = "end location"
		}
		route = append(route, domain.Stop{
			ID:     "destination:" + driver.ID,
			Name:   name,
			Point:  *p.EndLocation,
			Action: domain.StopActionOther,
			Role:   domain.StopRoleDestination,
		})
	}

	matrix, warnings := t.distanceMatrix(ctx, route)

	seq, err := SequenceStops(SequenceRequest{
		Stops:    route,
		Matrix:   matrix,
		Priority: req.Priority,
		DepartAt: req.DepartAt,
		Cost:     t.planner.Config().Cost,
	})
	if err != nil {
		return nil, domain.NewValidationError(domain.ReasonInvalidRequest, "%v", err)
	}

	byID := make(map[string]domain.Stop, len(route))
	for _, s := range route {
		byID[s.ID] = s
	}
	ordered := make([]domain.Stop, 0, len(seq.Order))
	for _, id := range seq.Order {
		ordered = append(ordered, byID[id])
	}

	in := SimulationInput{
		Stops:    ordered,
		DepartAt: req.DepartAt,
		HOS:      driver.HOS,
		Fuel:     vehicle.Fuel,
		Priority: req.Priority,
	}
	if p := req.Params; p != nil {
		if p.HOSOverride != nil {
			in.HOS = p.HOSOverride.Clone()
		}
		if p.StartFuelGallons != nil {
			in.Fuel.CurrentGallons = minFloat(maxFloat(0, *p.StartFuelGallons), in.Fuel.CapacityGallons)
		}
	}

	plan, err := t.planner.Simulate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}
	plan.TenantID = req.TenantID
	plan.DriverID = driver.ID
	plan.VehicleID = vehicle.ID
	plan.LoadIDs = append([]string(nil), req.LoadIDs...)
	for _, w := range warnings {
		if !containsString(plan.Warnings, w) {
			plan.Warnings = append(plan.Warnings, w)
		}
	}

	obs.PlansCreated.WithLabelValues(strconv.FormatBool(plan.IsFeasible)).Inc()
	res = &PlanTripResult{Plan: plan}

	if t.store == nil {
		return res, nil
	}
	rec, err := t.store.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("plan trip: create plan: %w", err)
	}
	res.Record = &rec

	if t.publisher != nil {
		if err := t.publisher.PublishPlanCreated(ctx, rec, plan); err != nil {
			log.Printf("req_id=%s op=plan_trip.publish plan_id=%s err=%v", obs.RequestID(ctx), rec.ID, err)
		}
	}
	return res, nil
}

func validateRequest(req *PlanTripRequest) error {
	switch {
	case strings.TrimSpace(req.TenantID) == "":
		return domain.NewValidationError(domain.ReasonInvalidRequest, "tenant id is required")
	case strings.TrimSpace(req.DriverID) == "":
		return domain.NewValidationError(domain.ReasonInvalidRequest, "driver id is required")
	case strings.TrimSpace(req.VehicleID) == "":
		return domain.NewValidationError(domain.ReasonInvalidRequest, "vehicle id is required")
	case req.DepartAt.IsZero():
		return domain.NewValidationError(domain.ReasonInvalidRequest, "departure time is required")
	}

	seen := make(map[string]struct{}, len(req.LoadIDs))
	ids := make([]string, 0, len(req.LoadIDs))
	for _, id := range req.LoadIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return domain.NewValidationError(domain.ReasonNoLoads, "at least one load id is required")
	}
	req.LoadIDs = ids

	priority, err := domain.ParsePriority(string(req.Priority))
	if err != nil {
		return domain.NewValidationError(domain.ReasonInvalidRequest, "%v", err)
	}
	req.Priority = priority

	if p := req.Params; p != nil && p.HOSOverride != nil {
		if err := p.HOSOverride.Validate(); err != nil {
			return domain.NewValidationError(domain.ReasonInvalidRequest, "hos override: %v", err)
		}
	}
	return nil
}

// lookupError turns a repository not-found into a request rejection and
// wraps anything else.
func lookupError(err error, reason domain.ValidationReason, format string, args ...any) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(reason, "%s: %v", fmt.Sprintf(format, args...), err)
	}
	return fmt.Errorf("plan trip: lookup %s: %w", fmt.Sprintf(format, args...), err)
}

// collectStops flattens the loads' stops. Load stops are always free to be
// sequenced; the route's origin and destination come from the driver and the
// dispatcher.
func collectStops(loads []*domain.Load) ([]domain.Stop, error) {
	var stops []domain.Stop
	seen := make(map[string]struct{})
	for _, l := range loads {
		for _, s := range l.Stops {
			if s.ID == "" {
				return nil, domain.NewValidationError(domain.ReasonInvalidRequest, "load %q has a stop without id", l.ID)
			}
			if _, dup := seen[s.ID]; dup {
				return nil, domain.NewValidationError(domain.ReasonInvalidRequest, "stop %q appears more than once", s.ID)
			}
			seen[s.ID] = struct{}{}

			if s.LoadID == "" {
				s.LoadID = l.ID
			}
			s.Role = domain.StopRoleFree
			stops = append(stops, s)
		}
	}
	if len(stops) == 0 {
		return nil, domain.NewValidationError(domain.ReasonNoStops, "no stops found for the provided load ids")
	}
	return stops, nil
}

// resolveGeography geocodes stops that carry an address but no coordinates.
// Lookups run concurrently; any stop left without a point rejects the request.
func (t *TripPlanner) resolveGeography(ctx context.Context, stops []domain.Stop) error {
	var pending []int
	for i := range stops {
		if stops[i].Point.Valid() {
			continue
		}
		if stops[i].Address == "" || t.geocoder == nil {
			return domain.NewValidationError(domain.ReasonStopWithoutGeography, "stop %q has no coordinates or address", stops[i].ID)
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(geocodeConcurrency)
	for _, i := range pending {
		i := i
		g.Go(func() error {
			pt, err := t.geocoder.Geocode(gctx, stops[i].Address)
			if err != nil || !pt.Valid() {
				return domain.NewValidationError(domain.ReasonStopWithoutGeography, "stop %q: address %q could not be resolved", stops[i].ID, stops[i].Address)
			}
			stops[i].Point = pt
			return nil
		})
	}
	return g.Wait()
}

// distanceMatrix asks the oracle for every pair on the route. Pairs the oracle
// cannot answer are filled with the great-circle estimate.
func (t *TripPlanner) distanceMatrix(ctx context.Context, route []domain.Stop) (map[ports.Pair]ports.RouteEstimate, []string) {
	cfg := t.planner.Config()
	points := make([]ports.Waypoint, 0, len(route))
	for _, s := range route {
		points = append(points, ports.Waypoint{ID: s.ID, Point: s.Point})
	}

	var warnings []string
	matrix, err := t.planner.Oracle().GetDistanceMatrix(ctx, points)
	if err != nil {
		obs.OracleFallbacks.WithLabelValues("matrix").Inc()
		log.Printf("req_id=%s op=plan_trip.matrix fallback=estimate err=%v", obs.RequestID(ctx), err)
		matrix = nil
	}
	if matrix == nil {
		matrix = make(map[ports.Pair]ports.RouteEstimate, len(points)*len(points))
	}

	estimated := false
	for _, a := range points {
		for _, b := range points {
			if a.ID == b.ID {
				continue
			}
			key := ports.Pair{From: a.ID, To: b.ID}
			if r, ok := matrix[key]; ok {
				if r.Source == ports.SourceEstimate {
					estimated = true
				}
				continue
			}
			miles, hours := geo.RoadEstimate(a.Point, b.Point, cfg.RoadFactor, cfg.AvgSpeedMph)
			matrix[key] = ports.RouteEstimate{DistanceMiles: miles, DriveTimeHours: hours, Source: ports.SourceEstimate}
			estimated = true
		}
	}
	if estimated {
		warnings = append(warnings, estimateWarning)
	}
	return matrix, warnings
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
