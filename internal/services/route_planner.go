package services

import (
	"context"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"log"
	"time"
)

const (
	hoursEpsilon   = 1e-6
	milesEpsilon   = 1e-3
	maxStepsPerLeg = 500
)

// PlannerDeps are the collaborators of the route planning engine. Weather,
// Fuel and Rest are optional; a nil finder never returns candidates.
type PlannerDeps struct {
	HOS     *hos.Engine
	Oracle  ports.DistanceOracle
	Weather ports.WeatherProvider
	Fuel    ports.FuelStopFinder
	Rest    ports.RestStopFinder
}

// RoutePlanner turns an ordered stop list into a timeline of drive, dock,
// rest and fuel segments.
type RoutePlanner struct {
	hos     *hos.Engine
	oracle  ports.DistanceOracle
	weather ports.WeatherProvider
	fuel    ports.FuelStopFinder
	rest    ports.RestStopFinder
	cfg     PlannerConfig
}

func NewRoutePlanner(deps PlannerDeps, cfg PlannerConfig) (*RoutePlanner, error) {
	if deps.HOS == nil {
		return nil, errors.New("new route planner: hos engine is required")
	}
	if deps.Oracle == nil {
		return nil, errors.New("new route planner: distance oracle is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new route planner: %w", err)
	}
	return &RoutePlanner{
		hos:     deps.HOS,
		oracle:  deps.Oracle,
		weather: deps.Weather,
		fuel:    deps.Fuel,
		rest:    deps.Rest,
		cfg:     cfg,
	}, nil
}

func (p *RoutePlanner) Config() PlannerConfig { return p.cfg }

func (p *RoutePlanner) HOS() *hos.Engine { return p.hos }

func (p *RoutePlanner) Oracle() ports.DistanceOracle { return p.oracle }

// SimulationInput is an already sequenced route. Stops[0] is where the
// driver starts.
type SimulationInput struct {
	Stops    []domain.Stop
	DepartAt time.Time
	HOS      domain.HOSState
	Fuel     domain.FuelState
	Priority domain.OptimizationPriority
}

// simState is the value carried from one step of the simulation to the next.
// Steps never modify a simState in place.
type simState struct {
	hos    domain.HOSState
	fuel   domain.FuelState
	clock  time.Time
	at     domain.Place
	anchor bool
	seq    int
}

// stretch is road distance and weather-adjusted drive time still to cover.
type stretch struct {
	miles      float64
	hours      float64
	source     string
	multiplier float64
}

func (s stretch) done() bool {
	return s.hours <= hoursEpsilon && s.miles <= milesEpsilon
}

// split returns the first fraction f of the stretch and what is left after it.
func (s stretch) split(f float64) (head, tail stretch) {
	head, tail = s, s
	head.miles, head.hours = s.miles*f, s.hours*f
	tail.miles, tail.hours = s.miles-head.miles, s.hours-head.hours
	return head, tail
}

// fractionOf returns how much of s the part covers.
func (s stretch) fractionOf(part stretch) float64 {
	switch {
	case s.hours > hoursEpsilon:
		return minFloat(1, part.hours/s.hours)
	case s.miles > milesEpsilon:
		return minFloat(1, part.miles/s.miles)
	}
	return 1
}

// fractionForHours returns the share of s that h hours of driving cover.
func (s stretch) fractionForHours(h float64) float64 {
	if s.hours <= hoursEpsilon {
		return 1
	}
	return minFloat(1, h/s.hours)
}

type afterDrive int

const (
	thenNothing afterDrive = iota
	thenArrive
	thenBreak
	thenRest
)

// drivePlan is the next drive the loop intends to make and what follows it.
type drivePlan struct {
	dest    domain.Place
	anchor  bool
	stretch stretch
	along   bool
	then    afterDrive
	areaID  string
}

// legOutcome is everything one leg contributes to the plan.
type legOutcome struct {
	state    simState
	segments []domain.RouteSegment
	issues   []domain.FeasibilityIssue
	warnings []string
	weather  *domain.WeatherImpact
}

// Simulate walks the legs of in.Stops in order. Each leg is a step of a fold:
// it receives the state left by the previous leg and returns a new state with
// the segments it appended. Only context cancellation aborts the run; every
// other problem is recorded on the plan.
func (p *RoutePlanner) Simulate(ctx context.Context, in SimulationInput) (*domain.Plan, error) {
	if len(in.Stops) == 0 {
		return nil, domain.NewValidationError(domain.ReasonNoStops, "nothing to simulate")
	}

	plan := &domain.Plan{
		Priority:     in.Priority,
		DepartAt:     in.DepartAt,
		StopSequence: make([]string, 0, len(in.Stops)),
		Segments:     []domain.RouteSegment{},
		Issues:       []domain.FeasibilityIssue{},
		Warnings:     []string{},
	}
	for _, s := range in.Stops {
		plan.StopSequence = append(plan.StopSequence, s.ID)
	}

	st := simState{
		hos:    in.HOS.Clone(),
		fuel:   in.Fuel,
		clock:  in.DepartAt,
		at:     in.Stops[0].Place(),
		anchor: true,
	}

	warned := make(map[string]struct{})
	collect := func(out legOutcome) {
		plan.Segments = append(plan.Segments, out.segments...)
		plan.Issues = append(plan.Issues, out.issues...)
		for _, w := range out.warnings {
			if _, ok := warned[w]; ok {
				continue
			}
			warned[w] = struct{}{}
			plan.Warnings = append(plan.Warnings, w)
		}
		if out.weather != nil {
			plan.Weather = append(plan.Weather, *out.weather)
		}
	}

	// Work at the first stop happens before the first leg.
	first := p.arrive(st, in.Stops[0])
	collect(first)
	st = first.state

	for i := 1; i < len(in.Stops); i++ {
		out, err := p.simulateLeg(ctx, st, in.Stops[i-1], in.Stops[i])
		if err != nil {
			return nil, fmt.Errorf("simulate: leg %q -> %q: %w", in.Stops[i-1].ID, in.Stops[i].ID, err)
		}
		collect(out)
		st = out.state
	}

	plan.ArriveAt = st.clock
	p.summarize(plan, in.HOS)
	return plan, nil
}

func (p *RoutePlanner) simulateLeg(ctx context.Context, st simState, from, to domain.Stop) (legOutcome, error) {
	var out legOutcome
	push := func(next simState, seg domain.RouteSegment) {
		st = next
		out.segments = append(out.segments, seg)
	}
	issue := func(code, msg string) {
		out.issues = append(out.issues, domain.FeasibilityIssue{
			Code:         code,
			Message:      msg,
			StopID:       to.ID,
			SegmentOrder: st.seq + 1,
		})
	}
	warn := func(w string) {
		if w != "" {
			out.warnings = append(out.warnings, w)
		}
	}

	mult, impact, w := p.weatherFor(ctx, from, to, st.clock)
	out.weather = impact
	warn(w)

	target := to.Place()
	remaining, w := p.stretchBetween(ctx, st.at.Point, target.Point, mult)
	warn(w)

	fuelUnresolved := false

	for step := 0; !remaining.done(); step++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if step >= maxStepsPerLeg {
			issue(domain.IssueHOSViolation, fmt.Sprintf("leg to %s could not be scheduled within HOS limits", target.Name))
			break
		}

		avail := p.hos.DrivingAvailable(st.hos)
		brk := p.hos.HoursUntilBreakRequired(st.hos)

		var plan drivePlan
		switch {
		case avail <= hoursEpsilon:
			if !st.anchor {
				issue(domain.IssueNoRestStop, fmt.Sprintf("out of hours at %s with no rest area", st.at.Name))
			}
			push(p.restInPlace(st, ""))
			continue

		case brk <= hoursEpsilon:
			push(p.takeBreak(st))
			continue

		case remaining.hours > avail+hoursEpsilon && brk+hoursEpsilon >= avail:
			var restNow, found bool
			plan, restNow, found, w = p.planRest(ctx, st, target, remaining, avail, mult)
			warn(w)
			if restNow {
				push(p.restInPlace(st, ""))
				continue
			}
			if !found {
				issue(domain.IssueNoRestStop, fmt.Sprintf("no rest area reachable within %.1fh toward %s", avail, target.Name))
			}

		case brk+hoursEpsilon < remaining.hours:
			plan = p.chunk(st, target, remaining, remaining.fractionForHours(brk), thenBreak)

		default:
			plan = drivePlan{dest: target, anchor: true, stretch: remaining, along: true, then: thenArrive}
		}

		if !fuelUnresolved && p.fuelShort(st.fuel, plan.stretch.miles) {
			var stop *fuelStop
			plan, stop, w = p.planFuel(ctx, st, target, remaining, plan, minFloat(avail, brk), mult)
			warn(w)
			if stop != nil {
				push(p.drive(st, drivePlan{dest: stop.place(), anchor: true, stretch: stop.route}))
				push(p.refuel(st, stop.candidate))
				remaining, w = p.stretchBetween(ctx, st.at.Point, target.Point, mult)
				warn(w)
				continue
			}
			if plan.then != thenNothing && p.fuelShort(st.fuel, plan.stretch.miles) {
				issue(domain.IssueNoFuelStop, fmt.Sprintf("no fuel station within range of %s", st.at.Name))
				fuelUnresolved = true
			}
		}

		push(p.drive(st, plan))

		switch plan.then {
		case thenArrive:
			remaining = stretch{}
			continue
		case thenBreak:
			push(p.takeBreak(st))
		case thenRest:
			push(p.restInPlace(st, plan.areaID))
		}

		if plan.along {
			_, remaining = remaining.split(remaining.fractionOf(plan.stretch))
			continue
		}
		remaining, w = p.stretchBetween(ctx, st.at.Point, target.Point, mult)
		warn(w)
	}

	arrived := p.arrive(st, to)
	out.segments = append(out.segments, arrived.segments...)
	out.issues = append(out.issues, arrived.issues...)
	out.state = arrived.state
	return out, nil
}

// chunk plans a drive of fraction f of the remaining stretch along the
// straight line toward target, ending at an interpolated point.
func (p *RoutePlanner) chunk(st simState, target domain.Place, remaining stretch, f float64, then afterDrive) drivePlan {
	f = minFloat(1, maxFloat(0, f))
	head, _ := remaining.split(f)
	point := geo.Interpolate(st.at.Point, target.Point, f)
	return drivePlan{
		dest:    domain.Place{Name: fmt.Sprintf("en route to %s", target.Name), Point: point},
		stretch: head,
		along:   true,
		then:    then,
	}
}

// arrive handles what happens at a stop once the truck gets there: waiting
// for an appointment window to open, flagging a missed window, and docking.
func (p *RoutePlanner) arrive(st simState, stop domain.Stop) legOutcome {
	out := legOutcome{state: st}
	arrival := st.clock

	var wait float64
	if w := stop.Window; w != nil {
		if w.Earliest != nil && arrival.Before(*w.Earliest) {
			wait = w.Earliest.Sub(arrival).Hours()
		}
		if w.Latest != nil && arrival.After(*w.Latest) {
			late := arrival.Sub(*w.Latest).Hours()
			out.issues = append(out.issues, domain.FeasibilityIssue{
				Code:         domain.IssueAppointmentMissed,
				Message:      fmt.Sprintf("arrives %.1fh after the appointment window at %s", late, stop.Place().Name),
				StopID:       stop.ID,
				SegmentOrder: st.seq,
			})
		}
	}

	// A wait long enough for a daily reset is logged as the full rest it is.
	if wait >= p.hos.Limits().MinRestHours {
		var rest domain.RouteSegment
		st, rest = p.stationary(st, domain.RestFull, wait, "", p.hos.SimulateAfterFullRest(st.hos))
		out.segments = append(out.segments, rest)
		out.state = st
		arrival = st.clock
		wait = 0
	}

	if stop.DockHours <= 0 && wait <= 0 {
		return out
	}

	next := st
	if wait > 0 {
		next.hos = p.hos.SimulateAfterWait(st.hos, wait)
	}
	if stop.DockHours > 0 {
		next.hos = p.hos.SimulateAfterOnDuty(next.hos, stop.DockHours)
	}
	next.clock = arrival.Add(hoursToDuration(wait + stop.DockHours))
	next.seq = st.seq + 1

	out.state = next
	out.segments = append(out.segments, domain.RouteSegment{
		SequenceOrder: next.seq,
		Type:          domain.SegmentDock,
		From:          st.at,
		To:            st.at,
		Dock: &domain.DockDetail{
			DurationHours:     stop.DockHours,
			WaitHours:         wait,
			StopID:            stop.ID,
			CustomerReference: stop.CustomerReference,
		},
		HOSAfter:  next.hos,
		FuelAfter: next.fuel.CurrentGallons,
		ArriveAt:  arrival,
		DepartAt:  next.clock,
	})
	return out
}

func (p *RoutePlanner) drive(st simState, plan drivePlan) (simState, domain.RouteSegment) {
	next := st
	next.hos = p.hos.SimulateAfterDriving(st.hos, plan.stretch.hours, plan.stretch.hours)
	next.fuel = st.fuel.Burn(plan.stretch.miles)
	next.clock = st.clock.Add(hoursToDuration(plan.stretch.hours))
	next.at = plan.dest
	next.anchor = plan.anchor
	next.seq = st.seq + 1

	mult := plan.stretch.multiplier
	if mult < 1 {
		mult = 1
	}

	return next, domain.RouteSegment{
		SequenceOrder: next.seq,
		Type:          domain.SegmentDrive,
		From:          st.at,
		To:            plan.dest,
		Drive: &domain.DriveDetail{
			DistanceMiles:     plan.stretch.miles,
			DriveTimeHours:    plan.stretch.hours,
			WeatherMultiplier: mult,
			Source:            plan.stretch.source,
		},
		HOSAfter:  next.hos,
		FuelAfter: next.fuel.CurrentGallons,
		ArriveAt:  next.clock,
		DepartAt:  st.clock,
	}
}

func (p *RoutePlanner) takeBreak(st simState) (simState, domain.RouteSegment) {
	obs.InsertedStops.WithLabelValues("break").Inc()
	return p.stationary(st, domain.RestMandatoryBreak, p.hos.Limits().RequiredBreakHours, "", p.hos.SimulateAfterBreak(st.hos))
}

func (p *RoutePlanner) stationary(st simState, kind domain.RestType, hours float64, areaID string, after domain.HOSState) (simState, domain.RouteSegment) {
	next := st
	next.hos = after
	next.clock = st.clock.Add(hoursToDuration(hours))
	next.seq = st.seq + 1

	return next, domain.RouteSegment{
		SequenceOrder: next.seq,
		Type:          domain.SegmentRest,
		From:          st.at,
		To:            st.at,
		Rest: &domain.RestDetail{
			Type:          kind,
			DurationHours: hours,
			RestAreaID:    areaID,
		},
		HOSAfter:  next.hos,
		FuelAfter: next.fuel.CurrentGallons,
		ArriveAt:  st.clock,
		DepartAt:  next.clock,
	}
}

// stretchBetween asks the oracle for the road distance between two points and
// applies the leg's weather multiplier. Oracle errors fall back to the
// great-circle estimate and produce a warning.
func (p *RoutePlanner) stretchBetween(ctx context.Context, from, to domain.Coordinates, mult float64) (stretch, string) {
	if from.Key() == to.Key() {
		return stretch{source: ports.SourceEstimate, multiplier: mult}, ""
	}

	r, err := p.oracle.GetRoute(ctx, from, to, nil)
	if err != nil {
		obs.OracleFallbacks.WithLabelValues("route").Inc()
		log.Printf("req_id=%s op=planner.route fallback=estimate err=%v", obs.RequestID(ctx), err)
		miles, hours := geo.RoadEstimate(from, to, p.cfg.RoadFactor, p.cfg.AvgSpeedMph)
		return stretch{miles: miles, hours: hours * mult, source: ports.SourceEstimate, multiplier: mult}, estimateWarning
	}

	var w string
	if r.Source == ports.SourceEstimate {
		w = estimateWarning
	}
	return stretch{miles: r.DistanceMiles, hours: r.DriveTimeHours * mult, source: r.Source, multiplier: mult}, w
}

const estimateWarning = "distance oracle unavailable: some distances are great-circle estimates"

// weatherFor returns the drive-time multiplier for a leg. Only severe and
// extreme conditions slow the truck; failures mean no impact.
func (p *RoutePlanner) weatherFor(ctx context.Context, from, to domain.Stop, departAt time.Time) (float64, *domain.WeatherImpact, string) {
	if p.weather == nil {
		return 1, nil, ""
	}

	if p.cfg.WeatherTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.WeatherTimeout)
		defer cancel()
	}

	conds, err := p.weather.GetWeatherAlongRoute(ctx, []domain.Coordinates{from.Point, to.Point}, departAt)
	if err != nil {
		log.Printf("req_id=%s op=planner.weather from=%s to=%s err=%v", obs.RequestID(ctx), from.ID, to.ID, err)
		return 1, nil, fmt.Sprintf("weather unavailable for leg %s -> %s", from.ID, to.ID)
	}

	mult, severity := 1.0, ""
	for _, c := range conds {
		if c.Severity != ports.SeveritySevere && c.Severity != ports.SeverityExtreme {
			continue
		}
		if c.DriveTimeMultiplier > mult {
			mult, severity = c.DriveTimeMultiplier, c.Severity
		}
	}
	if mult <= 1 {
		return 1, nil, ""
	}
	return mult, &domain.WeatherImpact{
		FromStopID: from.ID,
		ToStopID:   to.ID,
		Severity:   severity,
		Multiplier: mult,
	}, ""
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
