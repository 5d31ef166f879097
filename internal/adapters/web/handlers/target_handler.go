package handlers

import (
	"net/http"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/scans"
)

// TargetHandler validates scan targets for the submission form. Validation
// is stateless and recomputed on every request.
type TargetHandler struct {
	scans *scans.Service
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(scanService *scans.Service) *TargetHandler {
	return &TargetHandler{scans: scanService}
}

type validateRequest struct {
	Target string `json:"target"`
}

// HandleValidate normalizes a raw target and reports the descriptor plus
// whether submission needs an explicit confirmation. Invalid targets still
// return 200: the descriptor carries the error for inline display.
func (h *TargetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	spec, needsConfirmation := h.scans.ValidateTarget(req.Target)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"spec":                  spec,
		"requires_confirmation": needsConfirmation,
	})
}
