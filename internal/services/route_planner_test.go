package services

import (
	"context"
	"errors"
	"fmt"
	"hos-route-service/internal/adapters/distance"
	"hos-route-service/internal/adapters/stations"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/ports"
	"math"
	"strings"
	"testing"
	"time"
)

func twoStopOracle() *distance.MockOracle {
	return distance.NewMockOracle([]distance.MockRoute{
		{From: westDock, To: eastDock, Miles: 200, Hours: 3.5},
	}, nil)
}

func planTwoStops(t *testing.T, deps PlannerDeps, req PlanTripRequest) *domain.Plan {
	t.Helper()
	if deps.Oracle == nil {
		deps.Oracle = twoStopOracle()
	}
	tp := newTestTripPlanner(t, TripPlannerDeps{
		Fleet:   twoStopFleet(),
		Planner: newTestPlanner(t, deps, DefaultPlannerConfig()),
	})
	res, err := tp.PlanTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanTrip error: %v", err)
	}
	if res.Record != nil {
		t.Fatalf("expected no record without a store, got %+v", res.Record)
	}
	checkTimeline(t, res.Plan)
	return res.Plan
}

func TestPlanFreshDriverNeedsNoRest(t *testing.T) {
	plan := planTwoStops(t, PlannerDeps{}, twoStopRequest())

	if !plan.IsFeasible {
		t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
	}
	if got := segmentsOf(plan, domain.SegmentRest); got != 0 {
		t.Fatalf("expected no rest segments, got %d", got)
	}
	if got := segmentsOf(plan, domain.SegmentDrive); got < 1 {
		t.Fatalf("expected a drive segment, got %d", got)
	}

	docked := map[string]bool{}
	for _, s := range plan.SegmentsOfType(domain.SegmentDock) {
		docked[s.Dock.StopID] = true
	}
	if !docked["a"] || !docked["b"] {
		t.Fatalf("expected dock segments at a and b, got %v", docked)
	}

	if d := plan.Totals.DistanceMiles; d < 150 || d > 250 {
		t.Fatalf("expected 150-250 miles, got %.1f", d)
	}
	want := []string{"origin:drv-1", "a", "b"}
	if strings.Join(plan.StopSequence, ",") != strings.Join(want, ",") {
		t.Fatalf("expected sequence %v, got %v", want, plan.StopSequence)
	}
	if plan.Totals.OnDutyHours != 7 {
		t.Fatalf("expected 7 on-duty hours, got %v", plan.Totals.OnDutyHours)
	}
	if !plan.Compliance.IsCompliant {
		t.Fatalf("expected compliant plan, violations %v", plan.Compliance.Violations)
	}
	if len(plan.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", plan.Warnings)
	}
}

func TestPlanInsertsRestWhenHoursRunShort(t *testing.T) {
	req := twoStopRequest()
	req.Params = &DispatcherParams{HOSOverride: &domain.HOSState{HoursDriven: 9, OnDutyTime: 9}}

	t.Run("rest in place without rest areas", func(t *testing.T) {
		plan := planTwoStops(t, PlannerDeps{}, req)

		if !plan.IsFeasible {
			t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
		}
		rests := plan.SegmentsOfType(domain.SegmentRest)
		if len(rests) == 0 {
			t.Fatalf("expected a rest segment")
		}
		if rests[0].Rest.Type != domain.RestFull || rests[0].Rest.DurationHours != 10 {
			t.Fatalf("expected a 10h full rest, got %+v", rests[0].Rest)
		}
		drives := plan.SegmentsOfType(domain.SegmentDrive)
		if len(drives) == 0 || drives[0].SequenceOrder < rests[0].SequenceOrder {
			t.Fatalf("expected the rest before the drive, rest=%d drives=%d", rests[0].SequenceOrder, len(drives))
		}
	})

	t.Run("rest at an area along the way", func(t *testing.T) {
		areas := stations.NewDirectory(nil, []domain.RestArea{{ID: "ra-1", Name: "Midway Rest Area", Point: midLine}})
		plan := planTwoStops(t, PlannerDeps{Rest: areas}, req)

		if !plan.IsFeasible {
			t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
		}
		if len(plan.RestStops) != 1 {
			t.Fatalf("expected one rest stop, got %+v", plan.RestStops)
		}
		rs := plan.RestStops[0]
		if rs.RestAreaID != "ra-1" || rs.Type != domain.RestFull {
			t.Fatalf("expected full rest at ra-1, got %+v", rs)
		}
		if segmentsOf(plan, domain.SegmentDrive) != 2 {
			t.Fatalf("expected the leg split around the rest area, got %d drives", segmentsOf(plan, domain.SegmentDrive))
		}
		if plan.Compliance.FullRests != 1 {
			t.Fatalf("expected one full rest in compliance, got %d", plan.Compliance.FullRests)
		}
	})
}

func TestPlanRestartWhenCycleExhausted(t *testing.T) {
	req := twoStopRequest()
	req.Params = &DispatcherParams{HOSOverride: &domain.HOSState{CycleHoursUsed: 70}}

	plan := planTwoStops(t, PlannerDeps{}, req)

	var restart bool
	for _, s := range plan.SegmentsOfType(domain.SegmentRest) {
		if s.Rest.Type == domain.RestRestart34h {
			restart = true
			if s.Rest.DurationHours != 34 {
				t.Fatalf("expected 34h restart, got %v", s.Rest.DurationHours)
			}
			if s.HOSAfter != (domain.HOSState{}) {
				t.Fatalf("expected counters zeroed after restart, got %+v", s.HOSAfter)
			}
		}
	}
	if !restart {
		t.Fatalf("expected a restart_34h segment")
	}
	if plan.Compliance.Restarts < 1 {
		t.Fatalf("expected restart count >= 1, got %d", plan.Compliance.Restarts)
	}
	if !plan.IsFeasible {
		t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
	}
}

func TestPlanLongHaulRefuels(t *testing.T) {
	start := domain.Coordinates{Lat: 35, Lon: -117}
	end := domain.Coordinates{Lat: 35, Lon: -85}

	var fuel []domain.FuelStation
	for lon := -116; lon <= -86; lon++ {
		fuel = append(fuel, domain.FuelStation{
			ID:             fmt.Sprintf("fuel%04d", lon+200),
			Name:           fmt.Sprintf("Station %d", lon),
			Point:          domain.Coordinates{Lat: 35, Lon: float64(lon)},
			PricePerGallon: 3.5,
		})
	}

	cfg := DefaultPlannerConfig()
	cfg.RoadFactor = 1
	cfg.AvgSpeedMph = 60
	p := newTestPlanner(t, PlannerDeps{
		Oracle: distance.NewEstimateOracle(cfg.RoadFactor, cfg.AvgSpeedMph),
		Fuel:   stations.NewDirectory(fuel, nil),
	}, cfg)

	tank := domain.FuelState{CurrentGallons: 100, CapacityGallons: 100, MilesPerGallon: 6}
	plan, err := p.Simulate(context.Background(), SimulationInput{
		Stops: []domain.Stop{
			{ID: "start", Point: start, Action: domain.StopActionOther},
			{ID: "end", Point: end, Action: domain.StopActionDelivery},
		},
		DepartAt: departAt,
		Fuel:     tank,
		Priority: domain.PriorityMinimizeTime,
	})
	if err != nil {
		t.Fatalf("Simulate error: %v", err)
	}
	checkTimeline(t, plan)

	if d := plan.Totals.DistanceMiles; d < 1700 || d > 1900 {
		t.Fatalf("expected roughly 1800 miles, got %.1f", d)
	}

	stops := plan.SegmentsOfType(domain.SegmentFuel)
	if len(stops) == 0 {
		t.Fatalf("expected at least one fuel segment")
	}
	if len(plan.FuelStops) != len(stops) {
		t.Fatalf("expected %d fuel stop summaries, got %d", len(stops), len(plan.FuelStops))
	}

	var gallons float64
	for _, s := range stops {
		f := s.Fuel
		if f.StationID == "" || f.StationName == "" {
			t.Fatalf("fuel segment %d missing station: %+v", s.SequenceOrder, f)
		}
		if f.Gallons <= 0 || f.PricePerGallon != 3.5 {
			t.Fatalf("fuel segment %d has gallons=%v price=%v", s.SequenceOrder, f.Gallons, f.PricePerGallon)
		}
		if math.Abs(f.Cost-f.Gallons*f.PricePerGallon) > 1e-9 {
			t.Fatalf("fuel segment %d cost %v != %v", s.SequenceOrder, f.Cost, f.Gallons*f.PricePerGallon)
		}
		if s.FuelAfter != tank.CapacityGallons {
			t.Fatalf("expected a full tank after fueling, got %v", s.FuelAfter)
		}
		gallons += f.Gallons
	}
	if math.Abs(gallons-plan.Totals.FuelGallons) > 1e-9 {
		t.Fatalf("expected total gallons %v, got %v", gallons, plan.Totals.FuelGallons)
	}
}

func TestPlanSurvivesOracleOutage(t *testing.T) {
	oracle := twoStopOracle()
	oracle.Err = errors.New("ors: 503")

	plan := planTwoStops(t, PlannerDeps{Oracle: oracle}, twoStopRequest())

	if segmentsOf(plan, domain.SegmentDrive) == 0 {
		t.Fatalf("expected drive segments from estimates")
	}
	n := 0
	for _, w := range plan.Warnings {
		if w == estimateWarning {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected the estimate warning exactly once, got %v", plan.Warnings)
	}
	for _, s := range plan.SegmentsOfType(domain.SegmentDrive) {
		if s.Drive.Source != ports.SourceEstimate {
			t.Fatalf("expected estimate source, got %q", s.Drive.Source)
		}
	}
}

func TestPlanAppliesSevereWeather(t *testing.T) {
	storm := fixedWeather{conds: []ports.WeatherCondition{
		{Location: midLine, Severity: ports.SeverityModerate, DriveTimeMultiplier: 1.1},
		{Location: midLine, Severity: ports.SeveritySevere, DriveTimeMultiplier: 1.5},
	}}

	plan := planTwoStops(t, PlannerDeps{Weather: storm}, twoStopRequest())

	drives := plan.SegmentsOfType(domain.SegmentDrive)
	if len(drives) != 1 {
		t.Fatalf("expected one drive, got %d", len(drives))
	}
	if d := drives[0].Drive; math.Abs(d.DriveTimeHours-5.25) > 1e-9 || d.WeatherMultiplier != 1.5 {
		t.Fatalf("expected 5.25h at x1.5, got %+v", d)
	}

	var found bool
	for _, w := range plan.Weather {
		if w.ToStopID == "b" && w.Severity == ports.SeveritySevere && w.Multiplier == 1.5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a severe weather impact on the leg to b, got %+v", plan.Weather)
	}
}

func TestPlanWeatherFailureIsWarning(t *testing.T) {
	plan := planTwoStops(t, PlannerDeps{Weather: fixedWeather{err: errors.New("timeout")}}, twoStopRequest())

	if !plan.IsFeasible {
		t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
	}
	var warned bool
	for _, w := range plan.Warnings {
		if strings.HasPrefix(w, "weather unavailable for leg") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a weather warning, got %v", plan.Warnings)
	}
}

func TestPlanFlagsMissedAppointment(t *testing.T) {
	fleet := twoStopFleet()
	load := fleet.loads["L1"]
	latest := departAt.Add(time.Hour)
	load.Stops[1].Window = &domain.AppointmentWindow{Latest: &latest}
	fleet.loads["L1"] = load

	tp := newTestTripPlanner(t, TripPlannerDeps{
		Fleet:   fleet,
		Planner: newTestPlanner(t, PlannerDeps{Oracle: twoStopOracle()}, DefaultPlannerConfig()),
	})
	res, err := tp.PlanTrip(context.Background(), twoStopRequest())
	if err != nil {
		t.Fatalf("PlanTrip error: %v", err)
	}
	if res.Plan.IsFeasible {
		t.Fatalf("expected infeasible plan")
	}
	if len(res.Plan.Issues) != 1 || res.Plan.Issues[0].Code != domain.IssueAppointmentMissed || res.Plan.Issues[0].StopID != "b" {
		t.Fatalf("expected one appointment_missed issue at b, got %+v", res.Plan.Issues)
	}
}

func TestNewRoutePlannerRequiresDeps(t *testing.T) {
	if _, err := NewRoutePlanner(PlannerDeps{}, DefaultPlannerConfig()); err == nil {
		t.Fatalf("expected error without hos engine")
	}
	cfg := DefaultPlannerConfig()
	cfg.RoadFactor = 0.5
	p := newTestPlanner(t, PlannerDeps{Oracle: twoStopOracle()}, DefaultPlannerConfig())
	if _, err := NewRoutePlanner(PlannerDeps{HOS: p.HOS(), Oracle: p.Oracle()}, cfg); err == nil {
		t.Fatalf("expected error for road factor below 1")
	}
}

// straightRun simulates a single drive from start to end on the estimate
// oracle at 60 mph with no road factor.
func straightRun(t *testing.T, deps PlannerDeps, start, end domain.Coordinates, tank domain.FuelState) *domain.Plan {
	t.Helper()
	cfg := DefaultPlannerConfig()
	cfg.RoadFactor = 1
	cfg.AvgSpeedMph = 60
	deps.Oracle = distance.NewEstimateOracle(cfg.RoadFactor, cfg.AvgSpeedMph)
	p := newTestPlanner(t, deps, cfg)

	plan, err := p.Simulate(context.Background(), SimulationInput{
		Stops: []domain.Stop{
			{ID: "start", Point: start, Action: domain.StopActionOther},
			{ID: "end", Point: end, Action: domain.StopActionDelivery},
		},
		DepartAt: departAt,
		Fuel:     tank,
		Priority: domain.PriorityMinimizeTime,
	})
	if err != nil {
		t.Fatalf("Simulate error: %v", err)
	}
	checkTimeline(t, plan)
	return plan
}

func TestPlanInsertsOneBreakAfterEightHours(t *testing.T) {
	// About 587 miles, just under ten hours at 60 mph.
	plan := straightRun(t, PlannerDeps{},
		domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 0, Lon: 8.5},
		domain.FuelState{CurrentGallons: 200, CapacityGallons: 200, MilesPerGallon: 6})

	if !plan.IsFeasible {
		t.Fatalf("expected feasible plan, issues: %+v", plan.Issues)
	}
	rests := plan.SegmentsOfType(domain.SegmentRest)
	if len(rests) != 1 {
		t.Fatalf("expected exactly one rest segment, got %d", len(rests))
	}
	brk := rests[0]
	if brk.Rest.Type != domain.RestMandatoryBreak || brk.Rest.DurationHours != 0.5 {
		t.Fatalf("expected a 0.5h mandatory break, got %+v", brk.Rest)
	}
	after := brk.HOSAfter
	if after.HoursSinceBreak != 0 {
		t.Fatalf("expected time since break reset, got %v", after.HoursSinceBreak)
	}
	if math.Abs(after.HoursDriven-8) > 1e-6 || math.Abs(after.OnDutyTime-8) > 1e-6 {
		t.Fatalf("break must not reset drive or duty hours, got %+v", after)
	}
	if segmentsOf(plan, domain.SegmentDrive) != 2 {
		t.Fatalf("expected the drive split around the break, got %d", segmentsOf(plan, domain.SegmentDrive))
	}
	if plan.Compliance.BreaksPlanned != 1 || !plan.Compliance.IsCompliant {
		t.Fatalf("unexpected compliance %+v", plan.Compliance)
	}
}

func TestPlanDegradesWithoutStations(t *testing.T) {
	empty := stations.NewDirectory(nil, nil)
	plan := straightRun(t, PlannerDeps{Fuel: empty, Rest: empty},
		domain.Coordinates{Lat: 35, Lon: -117}, domain.Coordinates{Lat: 35, Lon: -85},
		domain.FuelState{CurrentGallons: 50, CapacityGallons: 100, MilesPerGallon: 6})

	if plan.IsFeasible {
		t.Fatalf("expected an infeasible plan")
	}
	codes := map[string]int{}
	for _, is := range plan.Issues {
		codes[is.Code]++
	}
	if codes[domain.IssueNoFuelStop] == 0 {
		t.Fatalf("expected a no_fuel_stop issue, got %v", codes)
	}
	if codes[domain.IssueNoRestStop] == 0 {
		t.Fatalf("expected a no_rest_stop issue, got %v", codes)
	}
	if segmentsOf(plan, domain.SegmentFuel) != 0 {
		t.Fatalf("expected no fuel segments without stations")
	}
	if d := plan.Totals.DistanceMiles; d < 1700 || d > 1900 {
		t.Fatalf("plan should still cover the whole trip, got %.1f miles", d)
	}
}

func TestPlanLogsLongAppointmentWaitAsFullRest(t *testing.T) {
	fleet := twoStopFleet()
	load := fleet.loads["L1"]
	earliest := departAt.Add(16 * time.Hour)
	load.Stops[1].Window = &domain.AppointmentWindow{Earliest: &earliest}
	fleet.loads["L1"] = load

	tp := newTestTripPlanner(t, TripPlannerDeps{
		Fleet:   fleet,
		Planner: newTestPlanner(t, PlannerDeps{Oracle: twoStopOracle()}, DefaultPlannerConfig()),
	})
	res, err := tp.PlanTrip(context.Background(), twoStopRequest())
	if err != nil {
		t.Fatalf("PlanTrip error: %v", err)
	}
	plan := res.Plan
	checkTimeline(t, plan)

	if plan.Compliance.FullRests != 1 || len(plan.RestStops) != 1 {
		t.Fatalf("expected the wait counted as one full rest, got rests=%d summaries=%+v", plan.Compliance.FullRests, plan.RestStops)
	}
	rs := plan.RestStops[0]
	if rs.Type != domain.RestFull || math.Abs(rs.DurationHours-10.5) > 1e-6 {
		t.Fatalf("expected a 10.5h full rest, got %+v", rs)
	}

	docks := plan.SegmentsOfType(domain.SegmentDock)
	last := docks[len(docks)-1]
	if last.Dock.StopID != "b" || last.Dock.WaitHours != 0 {
		t.Fatalf("expected dock at b without leftover wait, got %+v", last.Dock)
	}
	if !last.ArriveAt.Equal(earliest) {
		t.Fatalf("expected docking at %v, got %v", earliest, last.ArriveAt)
	}
	if last.HOSAfter.OnDutyTime != 1.5 || last.HOSAfter.HoursDriven != 0 {
		t.Fatalf("expected counters reset by the rest, got %+v", last.HOSAfter)
	}
}
