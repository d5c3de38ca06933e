package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/api/dto"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/platform/obs"
	"io"
	"log"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

// TenantHeader scopes every plan request to one tenant.
const TenantHeader = "X-Tenant-ID"

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("req_id=%s encode failed: method=%s path=%s err=%v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// tenantID reads the X-Tenant-ID header.
func tenantID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(TenantHeader))
}

// writeServiceError maps service errors to HTTP statuses. Anything unexpected
// is logged and reported as a 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *domain.ValidationError
	var ie *hos.InputError
	switch {
	case errors.As(err, &ve):
		status := http.StatusBadRequest
		if ve.NotFound() {
			status = http.StatusNotFound
		}
		writeJSON(w, r, status, dto.ErrorResponse{Error: ve.Error(), Reason: string(ve.Reason)})
	case errors.As(err, &ie):
		writeError(w, r, http.StatusBadRequest, ie.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		log.Printf("req_id=%s op=%s failed: %v", obs.RequestID(r.Context()), op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
