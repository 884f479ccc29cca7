package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Scan pipeline
	mux.HandleFunc("/api/scan", s.app.ScanHandler.TriggerScanHandler)       // POST - trigger a scan
	mux.HandleFunc("/api/scan/runs", s.app.ScanHandler.ListScanRunsHandler) // GET - list scan runs

	// API routes - Research chat (SSE streaming)
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)

	// API routes - Market data proxy
	mux.HandleFunc("/api/fmp", s.app.FMPHandler.ProxyHandler)

	// API routes - Dashboard data
	mux.HandleFunc("/api/companies", s.app.DataHandler.ListCompaniesHandler)
	mux.HandleFunc("/api/scores", s.app.DataHandler.ListScoresHandler)
	mux.HandleFunc("/api/signals", s.app.DataHandler.ListSignalsHandler)
	mux.HandleFunc("/api/relationships", s.app.DataHandler.ListRelationshipsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
