// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	businessflow "github.com/coldwire/dialplan/business_flow"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/repository"
)

// BackfillScheduler periodically redistributes each account's eligible backlog
// so unscheduled contacts do not pile up between manual runs.
type BackfillScheduler struct {
	settingsRepo repository.CapacitySettingsRepository
	backfillFlow businessflow.BackfillFlow
	logger       *log.Logger
	interval     time.Duration

	logFile *os.File
}

func NewBackfillScheduler(
	settingsRepo repository.CapacitySettingsRepository,
	backfillFlow businessflow.BackfillFlow,
	logger *log.Logger,
	interval time.Duration,
) *BackfillScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s := &BackfillScheduler{
		settingsRepo: settingsRepo,
		backfillFlow: backfillFlow,
		logger:       logger,
		interval:     interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *BackfillScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		// Success
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *BackfillScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	}
}

// runOnce walks every account that has a settings row and backfills it. An
// account whose run fails does not stop the sweep.
func (s *BackfillScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	s.logger.Printf("backfill sweep started")

	const pageSize = 200
	offset := 0
	accounts := 0
	failures := 0

	for {
		settings, err := s.settingsRepo.ByFilter(ctx, models.CapacitySettingsFilter{}, "id ASC", pageSize, offset)
		if err != nil {
			s.logger.Printf("backfill sweep aborted: failed to list settings: %v", err)
			return
		}
		if len(settings) == 0 {
			break
		}

		for i := range settings {
			if ctx.Err() != nil {
				s.logger.Printf("backfill sweep canceled after %d accounts", accounts)
				return
			}

			accountID := settings[i].AccountID
			res, err := s.backfillFlow.Run(ctx, accountID, &dto.BackfillRequest{})
			if err != nil {
				failures++
				s.logger.Printf("backfill failed account_id=%d err=%v", accountID, err)
				continue
			}
			accounts++
			if res.Scheduled > 0 || res.Errors > 0 {
				s.logger.Printf("backfill account_id=%d state=%s processed=%d scheduled=%d skipped=%d errors=%d",
					accountID, res.State, res.Processed, res.Scheduled, res.Skipped, res.Errors)
			}
		}

		if len(settings) < pageSize {
			break
		}
		offset += pageSize
	}

	s.logger.Printf("backfill sweep finished accounts=%d failures=%d duration=%s", accounts, failures, time.Since(start))
}
