package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
)

// DataHandler serves the dashboard read endpoints.
type DataHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewDataHandler creates a new DataHandler instance
func NewDataHandler(storage interfaces.StorageManager, logger arbor.ILogger) *DataHandler {
	return &DataHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListCompaniesHandler returns the roster. GET /api/companies
func (h *DataHandler) ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	companies, err := h.storage.Companies().List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, companies)
}

// ListScoresHandler returns all company scores, riskiest first.
// GET /api/scores
func (h *DataHandler) ListScoresHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	scores, err := h.storage.Scores().List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, scores)
}

// ListSignalsHandler returns recent signals, optionally filtered by
// company_id. GET /api/signals
func (h *DataHandler) ListSignalsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := QueryInt(r, "limit", 50)
	companyID := r.URL.Query().Get("company_id")

	var err error
	var signals any
	if companyID != "" {
		signals, err = h.storage.Signals().ListByCompany(r.Context(), companyID, limit)
	} else {
		signals, err = h.storage.Signals().List(r.Context(), limit)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, signals)
}

// ListRelationshipsHandler returns all supply-chain edges.
// GET /api/relationships
func (h *DataHandler) ListRelationshipsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rels, err := h.storage.Relationships().List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, rels)
}
