package distance

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"log"
	"time"
)

// FallbackOracle bounds every call to the primary oracle by Timeout and
// answers from the estimator when the primary fails. Only cancellation of the
// caller's context is returned as an error.
type FallbackOracle struct {
	Primary   ports.DistanceOracle
	Estimator *EstimateOracle
	Timeout   time.Duration
}

func NewFallbackOracle(primary ports.DistanceOracle, estimator *EstimateOracle, timeout time.Duration) *FallbackOracle {
	return &FallbackOracle{Primary: primary, Estimator: estimator, Timeout: timeout}
}

func (f *FallbackOracle) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.Timeout)
}

func (f *FallbackOracle) GetDistanceMatrix(ctx context.Context, points []ports.Waypoint) (map[ports.Pair]ports.RouteEstimate, error) {
	if f.Primary != nil {
		cctx, cancel := f.callCtx(ctx)
		out, err := f.Primary.GetDistanceMatrix(cctx, points)
		cancel()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		obs.OracleFallbacks.WithLabelValues("matrix").Inc()
		log.Printf("req_id=%s op=oracle.matrix fallback=estimate points=%d err=%v", obs.RequestID(ctx), len(points), err)
	}
	return f.Estimator.GetDistanceMatrix(ctx, points)
}

func (f *FallbackOracle) GetRoute(ctx context.Context, origin, destination domain.Coordinates, waypoints []domain.Coordinates) (ports.RouteResult, error) {
	if f.Primary != nil {
		cctx, cancel := f.callCtx(ctx)
		out, err := f.Primary.GetRoute(cctx, origin, destination, waypoints)
		cancel()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return ports.RouteResult{}, ctx.Err()
		}
		obs.OracleFallbacks.WithLabelValues("route").Inc()
		log.Printf("req_id=%s op=oracle.route fallback=estimate err=%v", obs.RequestID(ctx), err)
	}
	return f.Estimator.GetRoute(ctx, origin, destination, waypoints)
}
