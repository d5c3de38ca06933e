package handlers

import (
	"hos-route-service/internal/api/dto"
	"hos-route-service/internal/hos"
	"net/http"
)

type HOSHandler struct {
	Engine *hos.Engine
}

// Compliance checks a driver's current counters against the configured limits.
func (h *HOSHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	var req dto.ComplianceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Engine.ValidateCompliance(req.HoursDriven, req.OnDutyTime, req.HoursSinceBreak, req.LastRestPeriod)
	if err != nil {
		writeServiceError(w, r, "hos.compliance", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
