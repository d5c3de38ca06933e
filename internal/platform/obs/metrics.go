package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlansCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosroute_plans_created_total",
		Help: "Total number of plans produced, by feasibility.",
	}, []string{"feasible"})
	PlanningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hosroute_planning_duration_seconds",
		Help:    "Duration of a full planning request.",
		Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
	OracleFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosroute_oracle_fallbacks_total",
		Help: "Total number of distance lookups answered by the great-circle estimate.",
	}, []string{"op"})
	InsertedStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosroute_inserted_stops_total",
		Help: "Total number of rest, break and fuel stops inserted by the planner.",
	}, []string{"kind"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hosroute_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by method, route pattern and status.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
	}, []string{"method", "route", "status"})
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hosroute_operation_duration_seconds",
		Help:    "Duration of timed operations such as external calls and store writes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})
)
