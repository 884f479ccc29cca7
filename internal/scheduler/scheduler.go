// Package scheduler triggers scans on a cron schedule. Scheduled runs are
// single-flighted in process: a tick that fires while the previous scheduled
// scan is still running is skipped. Manual triggers are not gated.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
)

// scanTimeout bounds one scheduled scan end to end.
const scanTimeout = 30 * time.Minute

// Scheduler runs the scan pipeline on a cron schedule.
type Scheduler struct {
	scans   interfaces.ScanService
	cron    *cron.Cron
	logger  arbor.ILogger
	running atomic.Bool
}

// NewScheduler creates a new scan scheduler.
func NewScheduler(scans interfaces.ScanService, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		scans:  scans,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins scheduled scanning.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: daily at 06:00
		schedule = "0 6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runScan()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Scan scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Scan scheduler stopped")
}

// RunNow triggers an immediate scheduled-style scan.
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate scan")
	go s.runScan()
}

func (s *Scheduler) runScan() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Previous scheduled scan still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled scan")

	run, err := s.scans.Run(ctx, "scheduled")
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled scan failed")
		return
	}

	s.logger.Info().
		Str("scan_id", run.ID).
		Int("companies", run.CompaniesScanned).
		Int("signals", run.SignalsFound).
		Int("relationships", run.RelationshipsFound).
		Msg("Scheduled scan finished")
}
