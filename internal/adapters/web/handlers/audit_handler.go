package handlers

import (
	"net/http"
	"strconv"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/audit"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	audit *audit.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *audit.AuditService) *AuditHandler {
	return &AuditHandler{audit: auditService}
}

// HandleList returns recent audit log entries, newest first.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.audit.GetLogs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read audit logs")
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
