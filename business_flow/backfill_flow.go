package businessflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/config"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

type backfillState string

const (
	backfillStateFetching    backfillState = "fetching"
	backfillStateScheduling  backfillState = "scheduling"
	backfillStateDone        backfillState = "done"
	backfillStateSafetyLimit backfillState = "safety_limit_reached"
)

// BackfillFlow drains the eligible backlog into the schedule
type BackfillFlow interface {
	Run(ctx context.Context, accountID uint, req *dto.BackfillRequest) (*dto.BackfillResponse, error)
}

type BackfillFlowImpl struct {
	contactRepo  repository.ContactRepository
	settingsRepo repository.CapacitySettingsRepository
	lock         *ScheduleLock
	logger       *log.Logger
}

// NewBackfillFlow creates a new backfill flow instance. Run progress is
// written to stdout and, per logging config, a size-rotated file.
func NewBackfillFlow(
	contactRepo repository.ContactRepository,
	settingsRepo repository.CapacitySettingsRepository,
	lock *ScheduleLock,
	logCfg config.LoggingConfig,
) BackfillFlow {
	var w io.Writer = os.Stdout
	switch logCfg.Output {
	case "file":
		w = rotatingLogWriter(logCfg)
	case "both":
		w = io.MultiWriter(os.Stdout, rotatingLogWriter(logCfg))
	}
	return &BackfillFlowImpl{
		contactRepo:  contactRepo,
		settingsRepo: settingsRepo,
		lock:         lock,
		logger:       log.New(w, "backfill ", log.LstdFlags|log.Lmicroseconds|log.LUTC),
	}
}

func rotatingLogWriter(logCfg config.LoggingConfig) io.Writer {
	path := logCfg.FilePath
	if path == "" {
		path = "logs/backfill.log"
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logCfg.MaxSize,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAge,
		Compress:   logCfg.Compress,
	}
}

// Run walks the eligible backlog in batches, scheduling each batch until the
// backlog is drained, capacity runs out, or the safety limit trips. Dry runs
// plan against in-memory occupancy without persisting; paging advances past
// planned contacts so the preview stays consistent.
func (s *BackfillFlowImpl) Run(ctx context.Context, accountID uint, req *dto.BackfillRequest) (*dto.BackfillResponse, error) {
	includeOverdue := false
	dryRun := false
	if req != nil {
		includeOverdue = req.IncludeOverdue
		dryRun = req.DryRun
	}

	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	if !dryRun {
		release, err := s.lock.Acquire(ctx, accountID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := utils.UTCNow()
	today := utils.StartOfDay(now)
	ceiling := utils.AddBusinessDays(today, lookaheadBusinessDays(settings.WindowDays))

	occ, err := s.contactRepo.OccupancyByDate(ctx, accountID, today, ceiling)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to load schedule occupancy", err)
	}
	planner := newCapacityPlanner(settings.TargetPerDay, settings.NewQuotaPerDay, settings.WindowDays, today, occ)

	s.logger.Printf("run start account=%d dry_run=%t include_overdue=%t target=%d new_quota=%d window=%d",
		accountID, dryRun, includeOverdue, settings.TargetPerDay, settings.NewQuotaPerDay, settings.WindowDays)

	type placement struct {
		id    uint
		isNew bool
	}

	resp := &dto.BackfillResponse{DryRun: dryRun}
	state := backfillStateFetching
	distCounts := make(map[time.Time]int)
	// Contacts found unplaceable or unpersistable are remembered so refetches
	// of the same rows do not recount or replan them.
	settled := make(map[uint]bool)
	offset := 0
	var prevFirstID uint

	for {
		batch, err := s.contactRepo.ListEligibleUnscheduled(ctx, accountID, includeOverdue, today, now, utils.BackfillBatchSize, offset)
		if err != nil {
			return nil, NewBusinessError("STORE_ERROR", "Failed to fetch backfill batch", err)
		}
		if len(batch) == 0 {
			state = backfillStateDone
			break
		}
		if batch[0].ID == prevFirstID {
			s.logger.Printf("run guard account=%d first contact %d repeated, stopping", accountID, batch[0].ID)
			state = backfillStateDone
			break
		}
		prevFirstID = batch[0].ID
		state = backfillStateScheduling
		resp.Batches++

		perDate := make(map[time.Time][]placement)
		for _, c := range batch {
			if settled[c.ID] {
				continue
			}
			resp.Processed++
			day, placed := planner.place(c)
			if !placed {
				settled[c.ID] = true
				resp.Skipped++
				continue
			}
			perDate[day] = append(perDate[day], placement{id: c.ID, isNew: c.IsNewLead()})
		}

		days := make([]time.Time, 0, len(perDate))
		for d := range perDate {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		batchScheduled := 0
		for _, day := range days {
			group := perDate[day]
			if !dryRun {
				ids := make([]uint, len(group))
				for i, pl := range group {
					ids[i] = pl.id
				}
				if _, err := s.contactRepo.BulkSetNextCallDate(ctx, accountID, ids, day); err != nil {
					s.logger.Printf("run error account=%d date=%s contacts=%d persist failed: %v",
						accountID, formatDate(day), len(group), err)
					for _, pl := range group {
						settled[pl.id] = true
						planner.release(day, pl.isNew)
					}
					resp.Errors += len(group)
					continue
				}
			}
			batchScheduled += len(group)
			distCounts[day] += len(group)
		}
		resp.Scheduled += batchScheduled

		s.logger.Printf("run batch account=%d batch=%d fetched=%d scheduled=%d processed=%d",
			accountID, resp.Batches, len(batch), batchScheduled, resp.Processed)

		if dryRun {
			// Nothing is persisted, so the next page starts past this batch.
			offset += len(batch)
		}

		if resp.Processed >= utils.BackfillSafetyLimit {
			state = backfillStateSafetyLimit
			break
		}
		if batchScheduled == 0 {
			state = backfillStateDone
			break
		}
	}

	resp.State = string(state)
	resp.Distribution = toDistribution(distCounts)
	resp.Message = fmt.Sprintf("Backfill %s: %d scheduled, %d skipped, %d errors over %d batches",
		resp.State, resp.Scheduled, resp.Skipped, resp.Errors, resp.Batches)

	s.logger.Printf("run end account=%d state=%s scheduled=%d skipped=%d errors=%d processed=%d",
		accountID, resp.State, resp.Scheduled, resp.Skipped, resp.Errors, resp.Processed)
	return resp, nil
}
