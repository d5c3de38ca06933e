package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RequestIDKey carries the HTTP request id; planctl runs leave it unset.
const RequestIDKey ctxKey = "req_id"

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "-"
}

// Time starts a stopwatch for op. The returned func observes the outcome in
// OperationDuration and logs it; pass the address of the caller's named error.
//
//	defer obs.Time(ctx, "ors.matrix")(&err)
func Time(ctx context.Context, op string) func(errp *error) {
	began := time.Now()
	id := RequestID(ctx)

	return func(errp *error) {
		took := time.Since(began)
		outcome, suffix := "ok", ""
		if errp != nil && *errp != nil {
			outcome = "error"
			suffix = " err=" + (*errp).Error()
		}
		OperationDuration.WithLabelValues(op, outcome).Observe(took.Seconds())
		log.Printf("req_id=%s op=%s outcome=%s dur=%dms%s", id, op, outcome, took.Milliseconds(), suffix)
	}
}
