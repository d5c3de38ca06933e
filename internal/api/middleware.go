package api

import (
	"context"
	"hos-route-service/internal/api/handlers"
	"hos-route-service/internal/platform/obs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// tracedRequest remembers what the access log and the request metrics need
// once the handler has returned.
type tracedRequest struct {
	http.ResponseWriter
	code    int
	written int64
}

func (t *tracedRequest) WriteHeader(code int) {
	if t.code == 0 {
		t.code = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *tracedRequest) Write(p []byte) (int, error) {
	if t.code == 0 {
		t.code = http.StatusOK
	}
	n, err := t.ResponseWriter.Write(p)
	t.written += int64(n)
	return n, err
}

// withRequestID exposes chi's generated id to obs and echoes it to the caller.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), obs.RequestIDKey, id)))
	})
}

// accessLog writes one key=value line per request and feeds the request histogram.
// Paths are labelled by chi route pattern so plan ids do not explode cardinality.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		tr := &tracedRequest{ResponseWriter: w}

		next.ServeHTTP(tr, r)

		elapsed := time.Since(began)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		obs.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(tr.code)).Observe(elapsed.Seconds())

		log.Printf(
			"req_id=%s tenant=%q method=%s route=%s status=%d bytes=%d dur=%dms",
			obs.RequestID(r.Context()), r.Header.Get(handlers.TenantHeader), r.Method, route, tr.code, tr.written, elapsed.Milliseconds(),
		)
	})
}
