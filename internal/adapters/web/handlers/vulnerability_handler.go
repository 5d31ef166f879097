package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// VulnerabilityHandler serves cached CVE records.
type VulnerabilityHandler struct {
	cves ports.CVERepository
}

// NewVulnerabilityHandler creates a new VulnerabilityHandler.
func NewVulnerabilityHandler(cves ports.CVERepository) *VulnerabilityHandler {
	return &VulnerabilityHandler{cves: cves}
}

// HandleGet returns one cached CVE record by ID.
func (h *VulnerabilityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.cves.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read CVE cache")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "CVE not found in cache")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandleStats returns cache-level statistics.
func (h *VulnerabilityHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.cves.GetTotalCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read CVE cache")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_records": count,
	})
}
