package services

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"hos-route-service/internal/platform/obs"
	"log"
)

// restKind picks the rest that actually restores driving time: a 34-hour
// restart when the cycle is what binds, a full rest otherwise.
func (p *RoutePlanner) restKind(s domain.HOSState) (domain.RestType, float64, domain.HOSState) {
	limits := p.hos.Limits()
	if p.hos.NeedsRestart(s) {
		return domain.RestRestart34h, limits.RestartHours, p.hos.SimulateAfter34hRestart(s)
	}
	return domain.RestFull, limits.MinRestHours, p.hos.SimulateAfterFullRest(s)
}

func (p *RoutePlanner) restInPlace(st simState, areaID string) (simState, domain.RouteSegment) {
	kind, hours, after := p.restKind(st.hos)
	obs.InsertedStops.WithLabelValues(string(kind)).Inc()
	return p.stationary(st, kind, hours, areaID, after)
}

// planRest decides how to handle a leg that cannot be finished with the hours
// left. It either rests where the truck is (restNow), drives to a rest area
// found along the corridor (found), or as a last resort drives until hours run
// out and rests at the roadside.
func (p *RoutePlanner) planRest(ctx context.Context, st simState, target domain.Place, remaining stretch, avail, mult float64) (plan drivePlan, restNow, found bool, warning string) {
	_, _, rested := p.restKind(st.hos)
	gain := p.hos.DrivingAvailable(rested) > avail+hoursEpsilon

	if st.anchor && gain && avail < p.cfg.MinDriveBeforeRest {
		return drivePlan{}, true, false, ""
	}

	// A fresh driver resting right away gains nothing, so the area has to be
	// a real distance down the road.
	minHours := 0.0
	if !gain {
		minHours = p.cfg.MinDriveBeforeRest
	}

	cand, route, ok, w := p.findRestArea(ctx, st.at.Point, target.Point, remaining, avail, minHours, mult)
	if ok {
		return drivePlan{
			dest:    domain.Place{Name: cand.Area.Name, Point: cand.Area.Point},
			anchor:  true,
			stretch: route,
			then:    thenRest,
			areaID:  cand.Area.ID,
		}, false, true, w
	}
	if st.anchor && gain {
		return drivePlan{}, true, false, w
	}
	return p.chunk(st, target, remaining, remaining.fractionForHours(avail), thenRest), false, false, w
}

// findRestArea searches the stretch of road the driver can still cover,
// from RestSearchWindow short of the limit up to the limit, then falls back
// to a radius search around the furthest reachable point. Each candidate is
// confirmed with the oracle before it is accepted.
func (p *RoutePlanner) findRestArea(ctx context.Context, from, target domain.Coordinates, remaining stretch, avail, minHours, mult float64) (domain.RestCandidate, stretch, bool, string) {
	if p.rest == nil {
		return domain.RestCandidate{}, stretch{}, false, ""
	}

	reach := remaining.fractionForHours(avail)
	start := geo.Interpolate(from, target, reach*(1-p.cfg.RestSearchWindow))
	end := geo.Interpolate(from, target, reach)

	var warning string
	cands, err := p.rest.FindRestStopsAlongCorridor(ctx, start, end, p.cfg.RestCorridorWidthMiles)
	if err != nil {
		log.Printf("req_id=%s op=planner.rest_corridor err=%v", obs.RequestID(ctx), err)
		warning = "rest area lookup failed"
	}
	if len(cands) == 0 {
		cands, err = p.rest.FindRestStopsNearPoint(ctx, end, p.cfg.NearPointRadiusMiles)
		if err != nil {
			log.Printf("req_id=%s op=planner.rest_near err=%v", obs.RequestID(ctx), err)
			warning = "rest area lookup failed"
		}
	}

	for i, c := range cands {
		if i >= p.cfg.MaxCandidates {
			break
		}
		route, w := p.stretchBetween(ctx, from, c.Area.Point, mult)
		if w != "" {
			warning = w
		}
		if route.hours > avail+hoursEpsilon || route.hours < minHours {
			continue
		}
		return c, route, true, warning
	}
	return domain.RestCandidate{}, stretch{}, false, warning
}
