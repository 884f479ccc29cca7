// Package app wires configuration, storage, provider clients and services
// into a running application.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/fmp"
	"github.com/ternarybob/chainscan/internal/handlers"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/llm"
	"github.com/ternarybob/chainscan/internal/scan"
	"github.com/ternarybob/chainscan/internal/scheduler"
	"github.com/ternarybob/chainscan/internal/scrape"
	"github.com/ternarybob/chainscan/internal/search"
	"github.com/ternarybob/chainscan/internal/storage/sqlite"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Provider clients
	FMPClient     *fmp.Client
	SearchClient  *search.Client
	ScrapeClient  *scrape.Client
	GatewayClient *llm.Client

	// Services
	Orchestrator *llm.Orchestrator
	ScanService  interfaces.ScanService
	Scheduler    *scheduler.Scheduler

	// HTTP handlers
	APIHandler  *handlers.APIHandler
	ScanHandler *handlers.ScanHandler
	ChatHandler *handlers.ChatHandler
	FMPHandler  *handlers.FMPHandler
	DataHandler *handlers.DataHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Scan.Enabled {
		if err := app.Scheduler.Start(cfg.Scan.Schedule); err != nil {
			return nil, fmt.Errorf("failed to start scan scheduler: %w", err)
		}
		logger.Info().
			Str("schedule", cfg.Scan.Schedule).
			Msg("Scheduled scans enabled")
	}

	logger.Info().
		Bool("search_configured", app.SearchClient.Configured()).
		Bool("scan_scheduled", cfg.Scan.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer and seeds the company roster.
func (a *App) initDatabase() error {
	storageManager, err := sqlite.NewManager(a.Logger, &a.Config.Storage.SQLite)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().
		Str("storage", "sqlite").
		Str("path", a.Config.Storage.SQLite.Path).
		Msg("Storage layer initialized")

	companies, err := sqlite.LoadRoster(a.Config.Roster.Path)
	if err != nil {
		// A missing roster file is survivable; the database may already
		// hold companies from a previous run.
		a.Logger.Warn().Err(err).
			Str("path", a.Config.Roster.Path).
			Msg("Failed to load company roster, skipping seed")
		return nil
	}

	if err := sqlite.SeedRoster(context.Background(), storageManager, companies, a.Logger); err != nil {
		return fmt.Errorf("failed to seed company roster: %w", err)
	}

	return nil
}

// initServices initializes provider clients and business services in
// dependency order.
func (a *App) initServices() error {
	cfg := a.Config

	a.FMPClient = fmp.NewClient(cfg.FMP.APIKey,
		fmp.WithStableBaseURL(cfg.FMP.StableBaseURL),
		fmp.WithV3BaseURL(cfg.FMP.V3BaseURL),
		fmp.WithCache(fmp.NewCache(cfg.FMP.CacheTTL)),
		fmp.WithRateLimit(cfg.FMP.RateLimit),
		fmp.WithHTTPClient(&http.Client{Timeout: cfg.FMP.Timeout}),
		fmp.WithLogger(a.Logger),
	)

	a.SearchClient = search.NewClient(cfg.Search.APIKey,
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithModel(cfg.Search.Model),
		search.WithRecency(cfg.Search.Recency),
		search.WithHTTPClient(&http.Client{Timeout: cfg.Search.Timeout}),
		search.WithLogger(a.Logger),
	)
	if !a.SearchClient.Configured() {
		a.Logger.Info().Msg("Search credential not set, scans will run without news enrichment")
	}

	a.ScrapeClient = scrape.NewClient(cfg.Scrape.APIKey,
		scrape.WithBaseURL(cfg.Scrape.BaseURL),
		scrape.WithUserAgent(cfg.Scrape.UserAgent),
		scrape.WithHTTPClient(&http.Client{Timeout: cfg.Scrape.Timeout}),
		scrape.WithLogger(a.Logger),
	)

	a.GatewayClient = llm.NewClient(cfg.Gateway.APIKey,
		llm.WithBaseURL(cfg.Gateway.BaseURL),
		llm.WithModel(cfg.Gateway.Model),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout}),
		llm.WithLogger(a.Logger),
	)

	toolbox := llm.NewToolbox(a.FMPClient, a.SearchClient, a.ScrapeClient, a.Logger)
	a.Orchestrator = llm.NewOrchestrator(a.GatewayClient, toolbox, a.Logger)

	a.ScanService = scan.NewCoordinator(
		a.StorageManager,
		a.FMPClient,
		a.SearchClient,
		a.Orchestrator,
		&cfg.Scan,
		a.Logger,
	)

	a.Scheduler = scheduler.NewScheduler(a.ScanService, a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.ScanHandler = handlers.NewScanHandler(a.ScanService, a.StorageManager.ScanRuns(), a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.Orchestrator, a.Logger)
	a.FMPHandler = handlers.NewFMPHandler(a.FMPClient, a.Logger)
	a.DataHandler = handlers.NewDataHandler(a.StorageManager, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
