package services

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"hos-route-service/internal/platform/obs"
	"log"
)

const gallonsEpsilon = 1e-6

// fuelStop is a station the planner decided to detour to.
type fuelStop struct {
	candidate domain.FuelCandidate
	route     stretch
}

func (f fuelStop) place() domain.Place {
	return domain.Place{Name: f.candidate.Station.Name, Point: f.candidate.Station.Point}
}

// fuelShort reports whether driving miles, with the safety margin, needs more
// fuel than the tank holds. Vehicles without fuel data never run short.
func (p *RoutePlanner) fuelShort(fuel domain.FuelState, miles float64) bool {
	if fuel.MilesPerGallon <= 0 || fuel.CapacityGallons <= 0 || miles <= 0 {
		return false
	}
	return fuel.GallonsFor(miles)*p.cfg.FuelSafetyMargin > fuel.CurrentGallons+gallonsEpsilon
}

// planFuel handles a planned drive the tank cannot cover. With a full tank
// the drive is shortened to the safe range; otherwise a station reachable on
// the current fuel is looked up. When nothing is found plan is returned as is.
func (p *RoutePlanner) planFuel(ctx context.Context, st simState, target domain.Place, remaining stretch, plan drivePlan, maxHours, mult float64) (drivePlan, *fuelStop, string) {
	safeMiles := st.fuel.RangeMiles() / p.cfg.FuelSafetyMargin

	if st.fuel.CurrentGallons >= st.fuel.CapacityGallons-gallonsEpsilon {
		f := remaining.fractionOf(plan.stretch)
		if remaining.miles > milesEpsilon {
			f = minFloat(f, safeMiles/remaining.miles)
		}
		return p.chunk(st, target, remaining, f, thenNothing), nil, ""
	}

	cand, route, ok, w := p.findFuelStation(ctx, st, plan.dest.Point, plan.stretch.miles, safeMiles, maxHours, mult)
	if !ok {
		return plan, nil, w
	}
	return plan, &fuelStop{candidate: cand, route: route}, w
}

// findFuelStation looks for stations along the part of the planned drive the
// current fuel safely covers, cheapest first, then around the end of that
// part. A candidate is accepted when the oracle confirms it is reachable on
// the fuel in the tank and within maxHours of driving.
func (p *RoutePlanner) findFuelStation(ctx context.Context, st simState, toward domain.Coordinates, plannedMiles, safeMiles, maxHours, mult float64) (domain.FuelCandidate, stretch, bool, string) {
	if p.fuel == nil {
		return domain.FuelCandidate{}, stretch{}, false, ""
	}

	reach := 1.0
	if plannedMiles > milesEpsilon {
		reach = minFloat(1, safeMiles/plannedMiles)
	}
	end := geo.Interpolate(st.at.Point, toward, reach)

	var warning string
	cands, err := p.fuel.FindFuelStopsAlongCorridor(ctx, st.at.Point, end, p.cfg.FuelCorridorWidthMiles)
	if err != nil {
		log.Printf("req_id=%s op=planner.fuel_corridor err=%v", obs.RequestID(ctx), err)
		warning = "fuel station lookup failed"
	}
	if len(cands) == 0 {
		radius := minFloat(p.cfg.NearPointRadiusMiles, maxFloat(safeMiles, 1))
		cands, err = p.fuel.FindFuelStopsNearPoint(ctx, end, radius)
		if err != nil {
			log.Printf("req_id=%s op=planner.fuel_near err=%v", obs.RequestID(ctx), err)
			warning = "fuel station lookup failed"
		}
	}

	for i, c := range cands {
		if i >= p.cfg.MaxCandidates {
			break
		}
		route, w := p.stretchBetween(ctx, st.at.Point, c.Station.Point, mult)
		if w != "" {
			warning = w
		}
		if route.hours > maxHours+hoursEpsilon {
			continue
		}
		if st.fuel.GallonsFor(route.miles) > st.fuel.CurrentGallons+gallonsEpsilon {
			continue
		}
		return c, route, true, warning
	}
	return domain.FuelCandidate{}, stretch{}, false, warning
}

// refuel tops the tank off to capacity. Fueling is on-duty time.
func (p *RoutePlanner) refuel(st simState, c domain.FuelCandidate) (simState, domain.RouteSegment) {
	gallons := maxFloat(0, st.fuel.CapacityGallons-st.fuel.CurrentGallons)
	cost := gallons * c.Station.PricePerGallon

	next := st
	next.fuel.CurrentGallons = st.fuel.CapacityGallons
	next.hos = p.hos.SimulateAfterOnDuty(st.hos, p.cfg.FuelingHours)
	next.clock = st.clock.Add(hoursToDuration(p.cfg.FuelingHours))
	next.seq = st.seq + 1

	obs.InsertedStops.WithLabelValues("fuel").Inc()

	return next, domain.RouteSegment{
		SequenceOrder: next.seq,
		Type:          domain.SegmentFuel,
		From:          st.at,
		To:            st.at,
		Fuel: &domain.FuelDetail{
			Gallons:        gallons,
			Cost:           cost,
			PricePerGallon: c.Station.PricePerGallon,
			StationID:      c.Station.ID,
			StationName:    c.Station.Name,
			DurationHours:  p.cfg.FuelingHours,
		},
		HOSAfter:  next.hos,
		FuelAfter: next.fuel.CurrentGallons,
		ArriveAt:  st.clock,
		DepartAt:  next.clock,
	}
}
