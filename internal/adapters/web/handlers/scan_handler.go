package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/middleware"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/enrichment"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/scans"
)

// ScanHandler handles scan submission and history.
type ScanHandler struct {
	scans      *scans.Service
	enrichment *enrichment.Service
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanService *scans.Service, enrichmentService *enrichment.Service) *ScanHandler {
	return &ScanHandler{scans: scanService, enrichment: enrichmentService}
}

// HandleStart submits a new scan and runs it synchronously. Oversized
// targets are refused with 409 until the client confirms.
func (h *ScanHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req scans.Request
	if !decodeBody(w, r, &req) {
		return
	}

	scan, err := h.scans.StartScan(r.Context(), user.ID, req)
	if err != nil {
		var invalid *scans.ErrInvalidTarget
		var confirm *scans.ErrConfirmationRequired
		switch {
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, invalid.Reason)
		case errors.As(err, &confirm):
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":                 confirm.Error(),
				"hosts_count":           confirm.Hosts,
				"requires_confirmation": true,
			})
		default:
			// Engine failures still produced a persisted scan record
			if scan != nil {
				writeJSON(w, http.StatusBadGateway, scan)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to start scan: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, scan)
}

// HandleList returns the caller's scan history.
func (h *ScanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	// Admins see all scans
	userID := user.ID
	if user.IsAdmin() {
		userID = ""
	}

	list, err := h.scans.ListScans(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scans")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleGet returns one scan.
func (h *ScanHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	scan, err := h.scans.GetScan(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Scan not found")
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// HandleFindings returns the findings of a scan.
func (h *ScanHandler) HandleFindings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	findings, err := h.scans.ListFindings(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list findings")
		return
	}

	writeJSON(w, http.StatusOK, findings)
}

// HandleEnrich triggers CVE enrichment for a completed scan. Repeat calls
// are no-ops once the scan is marked enriched.
func (h *ScanHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.enrichment.EnrichScan(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Enrichment failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "enriched", "scan_id": id})
}
