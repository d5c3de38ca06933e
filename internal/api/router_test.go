package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/api/dto"
	"hos-route-service/internal/api/handlers"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakePlanner struct {
	res *services.PlanTripResult
	err error
	got services.PlanTripRequest
}

func (f *fakePlanner) PlanTrip(_ context.Context, req services.PlanTripRequest) (*services.PlanTripResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeStore struct {
	status map[string]domain.PlanStatus
}

func (f *fakeStore) CreatePlan(context.Context, *domain.Plan) (domain.PlanRecord, error) {
	return domain.PlanRecord{}, fmt.Errorf("not used")
}

func (f *fakeStore) TransitionStatus(_ context.Context, _ string, id string, next domain.PlanStatus) (domain.PlanRecord, error) {
	cur, ok := f.status[id]
	if !ok {
		return domain.PlanRecord{}, fmt.Errorf("plan %q: %w", id, domain.ErrNotFound)
	}
	if !cur.CanTransition(next) {
		return domain.PlanRecord{}, fmt.Errorf("plan %q: %w", id, domain.ErrInvalidTransition)
	}
	f.status[id] = next
	return domain.PlanRecord{ID: id, DisplayID: "RP-00000001", Status: next}, nil
}

func newTestRouter(t *testing.T, p *fakePlanner, s *fakeStore) http.Handler {
	t.Helper()
	engine, err := hos.NewEngine(hos.DefaultLimits())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewRouter(RouterDeps{Planner: p, Store: s, HOS: engine})
}

func do(h http.Handler, method, path, tenant, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(t, &fakePlanner{}, nil), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestReady(t *testing.T) {
	engine, err := hos.NewEngine(hos.DefaultLimits())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	cases := []struct {
		name   string
		checks map[string]handlers.Pinger
		want   int
		status string
	}{
		{"no checks", nil, http.StatusOK, `"status":"ok"`},
		{"all up", map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(func(context.Context) error { return nil }),
		}, http.StatusOK, `"postgres":"up"`},
		{"one down", map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(func(context.Context) error { return nil }),
			"redis":    handlers.PingFunc(func(context.Context) error { return errors.New("refused") }),
		}, http.StatusServiceUnavailable, `"redis":"down: refused"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(RouterDeps{Planner: &fakePlanner{}, HOS: engine, Checks: tc.checks})
			rec := do(h, http.MethodGet, "/ready", "", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.status) {
				t.Fatalf("body %s missing %s", rec.Body.String(), tc.status)
			}
		})
	}
}

func TestCreatePlan(t *testing.T) {
	p := &fakePlanner{res: &services.PlanTripResult{
		Record: &domain.PlanRecord{ID: "id-1", DisplayID: "RP-ABCDEF12", Status: domain.PlanStatusDraft},
		Plan:   &domain.Plan{DriverID: "drv-1", IsFeasible: true},
	}}
	h := newTestRouter(t, p, nil)

	body := `{"driver_id":"drv-1","vehicle_id":"trk-1","load_ids":["L1"],
		"departure_time":"2026-01-12T06:00:00Z","optimization_priority":"minimize_cost",
		"dispatcher_params":{"start_fuel_gallons":80}}`
	rec := do(h, http.MethodPost, "/v1/plans", "t1", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out dto.PlanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DisplayID != "RP-ABCDEF12" || out.Plan == nil || out.Plan.DriverID != "drv-1" {
		t.Fatalf("unexpected response %+v", out)
	}

	if p.got.TenantID != "t1" || p.got.Priority != domain.PriorityMinimizeCost {
		t.Fatalf("unexpected service request %+v", p.got)
	}
	if p.got.Params == nil || p.got.Params.StartFuelGallons == nil || *p.got.Params.StartFuelGallons != 80 {
		t.Fatalf("dispatcher params not passed through: %+v", p.got.Params)
	}
}

func TestCreatePlanErrors(t *testing.T) {
	tests := []struct {
		name       string
		tenant     string
		body       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"missing tenant", "", `{}`, nil, http.StatusBadRequest, ""},
		{"unknown field", "t1", `{"driver":"x"}`, nil, http.StatusBadRequest, ""},
		{"bad priority", "t1", `{"optimization_priority":"fastest"}`, nil, http.StatusBadRequest, "invalid_request"},
		{
			"driver not found", "t1", `{"driver_id":"nope"}`,
			domain.NewValidationError(domain.ReasonDriverNotFound, "driver %q", "nope"),
			http.StatusNotFound, "driver_not_found",
		},
		{
			"no stops", "t1", `{"driver_id":"d"}`,
			domain.NewValidationError(domain.ReasonNoStops, "no stops"),
			http.StatusBadRequest, "no_stops",
		},
		{"internal", "t1", `{"driver_id":"d"}`, fmt.Errorf("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakePlanner{err: tt.err}, nil)
			rec := do(h, http.MethodPost, "/v1/plans", tt.tenant, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			var out dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, out.Reason)
			}
		})
	}
}

func TestPlanLifecycle(t *testing.T) {
	s := &fakeStore{status: map[string]domain.PlanStatus{"p1": domain.PlanStatusDraft}}
	h := newTestRouter(t, &fakePlanner{}, s)

	steps := []struct {
		path string
		want int
	}{
		{"/v1/plans/p1/activate", http.StatusOK},
		{"/v1/plans/p1/activate", http.StatusConflict},
		{"/v1/plans/p1/complete", http.StatusOK},
		{"/v1/plans/p1/cancel", http.StatusConflict},
		{"/v1/plans/missing/cancel", http.StatusNotFound},
	}
	for _, st := range steps {
		if rec := do(h, http.MethodPost, st.path, "t1", ""); rec.Code != st.want {
			t.Fatalf("%s: expected %d, got %d", st.path, st.want, rec.Code)
		}
	}
	if s.status["p1"] != domain.PlanStatusCompleted {
		t.Fatalf("expected completed, got %s", s.status["p1"])
	}
}

func TestLifecycleWithoutStore(t *testing.T) {
	h := NewRouter(RouterDeps{Planner: &fakePlanner{}})
	if rec := do(h, http.MethodPost, "/v1/plans/p1/activate", "t1", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHOSCompliance(t *testing.T) {
	h := newTestRouter(t, &fakePlanner{}, nil)

	rec := do(h, http.MethodPost, "/v1/hos/compliance", "", `{"hours_driven":11.5,"on_duty_time":12,"hours_since_break":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res hos.ComplianceResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.IsCompliant || res.Drive.IsCompliant {
		t.Fatalf("expected drive violation, got %+v", res)
	}

	rec = do(h, http.MethodPost, "/v1/hos/compliance", "", `{"hours_driven":25,"on_duty_time":12,"hours_since_break":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range hours, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestRouter(t, &fakePlanner{}, nil), http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
