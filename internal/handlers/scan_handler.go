package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
)

// ScanHandler triggers scans and serves scan-run history.
type ScanHandler struct {
	scans    interfaces.ScanService
	scanRuns interfaces.ScanRunStorage
	logger   arbor.ILogger
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(scans interfaces.ScanService, scanRuns interfaces.ScanRunStorage, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		scans:    scans,
		scanRuns: scanRuns,
		logger:   logger,
	}
}

type triggerScanRequest struct {
	TriggerType string `json:"trigger_type"`
}

type triggerScanResponse struct {
	ScanID             string `json:"scan_id"`
	Status             string `json:"status"`
	CompaniesScanned   int    `json:"companies_scanned"`
	SignalsFound       int    `json:"signals_found"`
	RelationshipsFound int    `json:"relationships_found"`
}

// TriggerScanHandler runs one scan synchronously. POST /api/scan
func (h *ScanHandler) TriggerScanHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	// body is optional; an empty or malformed body means a manual trigger
	var req triggerScanRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.TriggerType == "" {
		req.TriggerType = "manual"
	}

	run, err := h.scans.Run(r.Context(), req.TriggerType)
	if err != nil {
		h.logger.Error().Err(err).Msg("Scan failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, triggerScanResponse{
		ScanID:             run.ID,
		Status:             string(run.Status),
		CompaniesScanned:   run.CompaniesScanned,
		SignalsFound:       run.SignalsFound,
		RelationshipsFound: run.RelationshipsFound,
	})
}

// ListScanRunsHandler returns recent scan runs. GET /api/scan/runs
func (h *ScanHandler) ListScanRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	runs, err := h.scanRuns.List(r.Context(), QueryInt(r, "limit", 20))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, runs)
}
