package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/models"
)

type fakeScanService struct {
	run         *models.ScanRun
	err         error
	triggerType string
}

func (f *fakeScanService) Run(ctx context.Context, triggerType string) (*models.ScanRun, error) {
	f.triggerType = triggerType
	return f.run, f.err
}

func TestTriggerScanSuccess(t *testing.T) {
	scans := &fakeScanService{run: &models.ScanRun{
		ID:                 "scan-123",
		Status:             models.ScanStatusCompleted,
		CompaniesScanned:   17,
		SignalsFound:       12,
		RelationshipsFound: 4,
	}}
	handler := NewScanHandler(scans, nil, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"trigger_type":"scheduled"}`))
	rec := httptest.NewRecorder()
	handler.TriggerScanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scheduled", scans.triggerType)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scan-123", resp["scan_id"])
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, float64(17), resp["companies_scanned"])
	assert.Equal(t, float64(12), resp["signals_found"])
	assert.Equal(t, float64(4), resp["relationships_found"])
}

func TestTriggerScanDefaultsToManual(t *testing.T) {
	scans := &fakeScanService{run: &models.ScanRun{ID: "scan-1", Status: models.ScanStatusCompleted}}
	handler := NewScanHandler(scans, nil, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	handler.TriggerScanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", scans.triggerType)
}

func TestTriggerScanFailure(t *testing.T) {
	scans := &fakeScanService{err: errors.New("no companies in database")}
	handler := NewScanHandler(scans, nil, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	handler.TriggerScanHandler(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no companies in database", resp["error"])
}

func TestTriggerScanRejectsGet(t *testing.T) {
	handler := NewScanHandler(&fakeScanService{}, nil, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/scan", nil)
	rec := httptest.NewRecorder()
	handler.TriggerScanHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
