package hos

import (
	"errors"
	"hos-route-service/internal/domain"
	"math"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultLimits())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineRejectsInvalidLimits(t *testing.T) {
	l := DefaultLimits()
	l.MaxDriveHours = 15
	if _, err := NewEngine(l); err == nil {
		t.Fatalf("expected error when drive limit exceeds duty limit")
	}

	l = DefaultLimits()
	l.CycleDays = 0
	if _, err := NewEngine(l); err == nil {
		t.Fatalf("expected error for zero cycle days")
	}
}

func TestValidateComplianceStatus(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name          string
		driven        float64
		duty          float64
		sinceBreak    float64
		want          Status
		breakRequired bool
		restRequired  bool
	}{
		{"fresh driver", 0, 0, 0, StatusCompliant, false, false},
		{"mid shift", 5, 6, 4, StatusCompliant, false, false},
		{"within warning margin of drive", 10.2, 11, 2, StatusWarning, false, false},
		{"within warning margin of break", 3, 7.5, 7.5, StatusWarning, false, false},
		{"drive limit reached", 11, 12, 3, StatusWarning, false, true},
		{"drive limit exceeded", 11.5, 12, 3, StatusNonCompliant, false, true},
		{"duty limit exceeded", 8, 14.5, 3, StatusNonCompliant, false, true},
		{"break due", 6, 8, 8, StatusWarning, true, false},
		{"break overdue", 6, 9, 9, StatusNonCompliant, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ValidateCompliance(tt.driven, tt.duty, tt.sinceBreak, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tt.want {
				t.Fatalf("status = %s, want %s", res.Status, tt.want)
			}
			if res.BreakRequired != tt.breakRequired {
				t.Fatalf("break_required = %v, want %v", res.BreakRequired, tt.breakRequired)
			}
			if res.RestRequired != tt.restRequired {
				t.Fatalf("rest_required = %v, want %v", res.RestRequired, tt.restRequired)
			}
			if res.Drive.Message == "" || res.Duty.Message == "" || res.Break.Message == "" {
				t.Fatalf("every check must carry a message: %+v", res)
			}
		})
	}
}

func TestValidateComplianceGuardsInputs(t *testing.T) {
	e := newTestEngine(t)

	bad := []struct {
		name                     string
		driven, duty, sinceBreak float64
	}{
		{"negative driven", -1, 0, 0},
		{"duty over 24", 0, 25, 0},
		{"negative since break", 0, 0, -0.1},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ValidateCompliance(tt.driven, tt.duty, tt.sinceBreak, nil)
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *InputError", err)
			}
		})
	}

	rest := 30.0
	if _, err := e.ValidateCompliance(1, 1, 1, &rest); err == nil {
		t.Fatalf("expected error for last rest period over 24h")
	}
}

func TestValidateComplianceLastRest(t *testing.T) {
	e := newTestEngine(t)

	short := 8.0
	res, err := e.ValidateCompliance(0, 0, 0, &short)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LastRestSufficient == nil || *res.LastRestSufficient {
		t.Fatalf("8h rest should be reported insufficient")
	}

	full := 10.0
	res, _ = e.ValidateCompliance(0, 0, 0, &full)
	if res.LastRestSufficient == nil || !*res.LastRestSufficient {
		t.Fatalf("10h rest should be reported sufficient")
	}
}

func TestValidateComplianceMonotonicInHoursDriven(t *testing.T) {
	e := newTestEngine(t)
	lim := e.Limits()

	prev := math.Inf(1)
	for h := 0.0; h <= 24; h += 0.25 {
		res, err := e.ValidateCompliance(h, 12, 2, nil)
		if err != nil {
			t.Fatalf("hours=%v: %v", h, err)
		}
		if res.HoursRemainingToDrive > prev {
			t.Fatalf("hours=%v: remaining increased from %v to %v", h, prev, res.HoursRemainingToDrive)
		}
		prev = res.HoursRemainingToDrive

		if h > lim.MaxDriveHours && res.IsCompliant {
			t.Fatalf("hours=%v: expected non-compliant above drive limit", h)
		}
	}
}

func TestHoursUntilRestRequired(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		driven, duty, want float64
	}{
		{0, 0, 11},
		{9, 9, 2},
		{5, 12, 2},
		{11, 11, 0},
		{12, 15, 0},
	}
	for _, tt := range tests {
		if got := e.HoursUntilRestRequired(tt.driven, tt.duty); got != tt.want {
			t.Errorf("HoursUntilRestRequired(%v, %v) = %v, want %v", tt.driven, tt.duty, got, tt.want)
		}
	}
}

func TestCanDrive(t *testing.T) {
	e := newTestEngine(t)

	if ok, _ := e.CanDrive(4, 5, 3); !ok {
		t.Fatalf("expected fresh-ish driver to be allowed to drive")
	}
	if ok, _ := e.CanDrive(11, 12, 3); ok {
		t.Fatalf("driver at the drive limit must not drive")
	}
	if _, err := e.CanDrive(-1, 0, 0); err == nil {
		t.Fatalf("expected guard error")
	}
}

func TestSimulateAfterDriving(t *testing.T) {
	e := newTestEngine(t)
	start := domain.HOSState{HoursDriven: 1, OnDutyTime: 2, HoursSinceBreak: 1, CycleHoursUsed: 20}

	got := e.SimulateAfterDriving(start, 3, 3.5)
	want := domain.HOSState{HoursDriven: 4, OnDutyTime: 5.5, HoursSinceBreak: 4.5, CycleHoursUsed: 23.5}
	if got != want {
		t.Fatalf("after driving = %+v, want %+v", got, want)
	}
	if start.HoursDriven != 1 {
		t.Fatalf("input state was mutated: %+v", start)
	}

	got = e.SimulateAfterDriving(start, 2, 0)
	if got.OnDutyTime != 4 || got.HoursDriven != 3 {
		t.Fatalf("drive hours must count as on duty: %+v", got)
	}
}

func TestRestTransitions(t *testing.T) {
	e := newTestEngine(t)

	states := []domain.HOSState{
		{},
		{HoursDriven: 11, OnDutyTime: 14, HoursSinceBreak: 8, CycleHoursUsed: 69},
		{HoursDriven: 3.3, OnDutyTime: 7.1, HoursSinceBreak: 0.4, CycleHoursUsed: 12.9},
	}
	for _, s := range states {
		full := e.SimulateAfterFullRest(s)
		if full.HoursDriven != 0 || full.OnDutyTime != 0 || full.HoursSinceBreak != 0 {
			t.Fatalf("full rest did not zero daily counters: %+v", full)
		}
		if full.CycleHoursUsed != s.CycleHoursUsed {
			t.Fatalf("full rest changed cycle: %v -> %v", s.CycleHoursUsed, full.CycleHoursUsed)
		}

		restart := e.SimulateAfter34hRestart(s)
		if restart != (domain.HOSState{}) {
			t.Fatalf("restart did not zero all counters: %+v", restart)
		}
	}
}

func TestSimulateAfterBreakAndOnDuty(t *testing.T) {
	e := newTestEngine(t)
	s := domain.HOSState{HoursDriven: 7, OnDutyTime: 8, HoursSinceBreak: 8, CycleHoursUsed: 30}

	b := e.SimulateAfterBreak(s)
	if b.HoursSinceBreak != 0 || b.HoursDriven != 7 || b.OnDutyTime != 8 {
		t.Fatalf("break must only reset since-break: %+v", b)
	}

	d := e.SimulateAfterOnDuty(s, 2)
	if d.HoursDriven != 7 || d.OnDutyTime != 10 || d.HoursSinceBreak != 10 || d.CycleHoursUsed != 32 {
		t.Fatalf("on-duty work accounted wrong: %+v", d)
	}

	w := e.SimulateAfterWait(s, 1)
	if w.OnDutyTime != 9 || w.HoursSinceBreak != 0 || w.CycleHoursUsed != 30 {
		t.Fatalf("wait accounted wrong: %+v", w)
	}
}

func TestSimulateAfterSplitRest(t *testing.T) {
	e := newTestEngine(t)
	s := domain.HOSState{HoursDriven: 8, OnDutyTime: 10, HoursSinceBreak: 5, CycleHoursUsed: 40}

	got, err := e.SimulateAfterSplitRest(s, 8, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HoursDriven != 0 || got.OnDutyTime != 0 || got.CycleHoursUsed != 40 {
		t.Fatalf("8+2 split should reset daily counters only: %+v", got)
	}

	pending, err := e.SimulateAfterSplitRest(s, 7, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending.SplitSleeper == nil || pending.SplitSleeper.FirstPeriodHours != 7 {
		t.Fatalf("first period not recorded: %+v", pending)
	}
	if pending.HoursDriven != 8 {
		t.Fatalf("daily counters must wait for the second period: %+v", pending)
	}
	if pending.HoursSinceBreak != 0 {
		t.Fatalf("a 7h off-duty period counts as a break: %+v", pending)
	}

	done, err := e.SimulateAfterSplitRest(pending, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.HoursDriven != 0 || done.SplitSleeper != nil {
		t.Fatalf("pending 7h + 3h should complete the split: %+v", done)
	}

	short, _ := e.SimulateAfterSplitRest(s, 5, 2)
	if short.HoursDriven != 8 {
		t.Fatalf("5+2 does not qualify: %+v", short)
	}

	if _, err := e.SimulateAfterSplitRest(s, -1, 2); err == nil {
		t.Fatalf("expected guard error")
	}
}

func TestNeedsRestartAndAvailability(t *testing.T) {
	e := newTestEngine(t)

	if !e.NeedsRestart(domain.HOSState{CycleHoursUsed: 70}) {
		t.Fatalf("exhausted cycle needs restart")
	}
	if e.NeedsRestart(domain.HOSState{HoursDriven: 11, OnDutyTime: 12, CycleHoursUsed: 50}) {
		t.Fatalf("daily limit only needs a full rest")
	}
	if !e.NeedsRestart(domain.HOSState{CycleHoursUsed: 66}) {
		t.Fatalf("cycle binding before daily limits needs restart")
	}

	got := e.DrivingAvailable(domain.HOSState{HoursDriven: 2, OnDutyTime: 3, CycleHoursUsed: 65})
	if got != 5 {
		t.Fatalf("DrivingAvailable = %v, want 5", got)
	}
}
