package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/review"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/scans"
)

// ReportHandler handles the report review workflow.
type ReportHandler struct {
	review   *review.Service
	scans    *scans.Service
	cves     ports.CVERepository
	exporter ports.ReportExporter
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reviewService *review.Service, scanService *scans.Service, cves ports.CVERepository, exporter ports.ReportExporter) *ReportHandler {
	return &ReportHandler{
		review:   reviewService,
		scans:    scanService,
		cves:     cves,
		exporter: exporter,
	}
}

type generateRequest struct {
	ScanID       string `json:"scan_id"`
	ConsultantID string `json:"consultant_id"`
}

type bulkGenerateRequest struct {
	ScanIDs      []string `json:"scan_ids"`
	ConsultantID string   `json:"consultant_id"`
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

// HandleGenerate creates a pending_review report draft for a scan.
func (h *ReportHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.review.Generate(r.Context(), req.ScanID, req.ConsultantID)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// HandleBulkGenerate creates drafts for several scans; partial failure is
// reported per scan, not as a request failure.
func (h *ReportHandler) HandleBulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req bulkGenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ScanIDs) == 0 {
		writeError(w, http.StatusBadRequest, "scan_ids must not be empty")
		return
	}

	result := h.review.BulkGenerate(r.Context(), req.ScanIDs, req.ConsultantID)
	writeJSON(w, http.StatusOK, result)
}

// HandleApprove publishes a pending report.
func (h *ReportHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.review.Approve(r.Context(), id)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleReject rejects a pending report; a regenerated draft replaces it.
func (h *ReportHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rejectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	draft, err := h.review.Reject(r.Context(), id, req.Notes)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// HandleGet returns one report.
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.review.GetReport(r.Context(), id)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleQueue returns the pending review queue, oldest first.
func (h *ReportHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	queue, err := h.review.ListQueue(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list review queue")
		return
	}

	writeJSON(w, http.StatusOK, queue)
}

// HandleListByScan returns all report revisions of a scan.
func (h *ReportHandler) HandleListByScan(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["id"]

	reports, err := h.review.ListByScan(r.Context(), scanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// HandleDownloadPDF renders the report as a PDF document.
func (h *ReportHandler) HandleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.review.GetReport(r.Context(), id)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	scan, err := h.scans.GetScan(r.Context(), report.ScanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Scan unavailable for report")
		return
	}

	findings, err := h.scans.ListFindings(r.Context(), report.ScanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Findings unavailable for report")
		return
	}

	var cveIDs []string
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.CVEID != "" && !seen[f.CVEID] {
			seen[f.CVEID] = true
			cveIDs = append(cveIDs, f.CVEID)
		}
	}

	cves, err := h.cves.GetByIDs(r.Context(), cveIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "CVE records unavailable for report")
		return
	}

	data, err := h.exporter.Export(*report, *scan, findings, cves)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	if err := h.review.RecordPDF(r.Context(), id, fmt.Sprintf("/api/reports/%s/pdf", id)); err != nil {
		log.Printf("Failed to record PDF location for report %s: %v", id, err)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.pdf", id))
	w.Write(data)
}

// writeReviewError maps review workflow errors onto HTTP statuses.
func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrReportNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrReportNotPending),
		errors.Is(err, domain.ErrScanNotEnriched):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrReviewNotesRequired),
		errors.Is(err, domain.ErrConsultantRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
