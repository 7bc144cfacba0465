package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
	"github.com/xuri/excelize/v2"
)

// CapacityFlow handles capacity inspection and contact scheduling
type CapacityFlow interface {
	GetCapacityStatus(ctx context.Context, accountID uint) (*dto.CapacityStatusResponse, error)
	ScheduleContacts(ctx context.Context, accountID uint, req *dto.ScheduleContactsRequest) (*dto.ScheduleContactsResponse, error)
	GetEligibleUnscheduled(ctx context.Context, accountID uint, req *dto.EligibleUnscheduledRequest) (*dto.EligibleUnscheduledResponse, error)
	ExportCapacityWorkbook(ctx context.Context, accountID uint) ([]byte, string, error)
}

type CapacityFlowImpl struct {
	contactRepo  repository.ContactRepository
	settingsRepo repository.CapacitySettingsRepository
	lock         *ScheduleLock
}

// NewCapacityFlow creates a new capacity flow instance
func NewCapacityFlow(
	contactRepo repository.ContactRepository,
	settingsRepo repository.CapacitySettingsRepository,
	lock *ScheduleLock,
) CapacityFlow {
	return &CapacityFlowImpl{
		contactRepo:  contactRepo,
		settingsRepo: settingsRepo,
		lock:         lock,
	}
}

// ScheduleContacts distributes the requested contacts across future business
// days. Input order is preserved; every input ID is accounted for as
// scheduled, skipped or errored. Capacity exhaustion and store failures are
// per-contact conditions, never fatal to the call.
func (s *CapacityFlowImpl) ScheduleContacts(ctx context.Context, accountID uint, req *dto.ScheduleContactsRequest) (*dto.ScheduleContactsResponse, error) {
	if req == nil || len(req.ContactIDs) == 0 {
		return nil, NewBusinessError("VALIDATION_ERROR", "At least one contact ID is required", ErrContactIDsRequired)
	}

	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	targetPerDay := settings.TargetPerDay
	newQuotaPerDay := settings.NewQuotaPerDay
	if req.TargetPerDay != nil {
		targetPerDay = *req.TargetPerDay
	}
	if req.NewQuotaPerDay != nil {
		newQuotaPerDay = *req.NewQuotaPerDay
	}
	if newQuotaPerDay > targetPerDay {
		return nil, NewBusinessError("VALIDATION_ERROR", "New-lead quota cannot exceed daily target", ErrNewQuotaExceedsTarget)
	}

	release, err := s.lock.Acquire(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := utils.UTCNow()
	today := utils.StartOfDay(now)

	contacts, err := s.contactRepo.ByIDs(ctx, accountID, req.ContactIDs)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to load contacts", err)
	}
	byID := make(map[uint]int, len(contacts))
	for i, c := range contacts {
		byID[c.ID] = i
	}

	ceiling := utils.AddBusinessDays(today, lookaheadBusinessDays(settings.WindowDays))
	occ, err := s.contactRepo.OccupancyByDate(ctx, accountID, today, ceiling)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to load schedule occupancy", err)
	}
	planner := newCapacityPlanner(targetPerDay, newQuotaPerDay, settings.WindowDays, today, occ)

	// A contact being rescheduled vacates the slot it currently holds; its own
	// assignment never counts as occupancy against it, so re-running an
	// unchanged request lands every contact on the same date.
	for _, c := range contacts {
		if c.NextCallDate != nil && !c.NextCallDate.Before(today) && !c.NextCallDate.After(ceiling) {
			planner.release(*c.NextCallDate, c.IsNewLead())
		}
	}

	type placement struct {
		item  *dto.ScheduleItemResult
		isNew bool
	}

	resp := &dto.ScheduleContactsResponse{}
	items := make([]dto.ScheduleItemResult, 0, len(req.ContactIDs))
	perDate := make(map[time.Time][]placement)
	seen := make(map[uint]bool, len(req.ContactIDs))

	for _, id := range req.ContactIDs {
		items = append(items, dto.ScheduleItemResult{ContactID: id})
		item := &items[len(items)-1]

		if seen[id] {
			item.Status = "duplicate"
			item.Reason = "contact ID appears more than once"
			resp.Errors++
			continue
		}
		seen[id] = true

		idx, ok := byID[id]
		if !ok {
			item.Status = "not_found"
			item.Reason = "contact not found for this account"
			resp.Errors++
			continue
		}
		contact := contacts[idx]

		day, placed := planner.place(contact)
		if !placed {
			item.Status = "capacity_exhausted"
			item.Reason = "no free slot within the look-ahead horizon"
			resp.Skipped++
			continue
		}

		item.Status = "scheduled"
		item.Date = formatDate(day)
		perDate[day] = append(perDate[day], placement{item: item, isNew: contact.IsNewLead()})
	}

	distCounts := make(map[time.Time]int, len(perDate))
	for day, group := range perDate {
		ids := make([]uint, len(group))
		for i, pl := range group {
			ids[i] = pl.item.ContactID
		}
		if _, err := s.contactRepo.BulkSetNextCallDate(ctx, accountID, ids, day); err != nil {
			for _, pl := range group {
				pl.item.Status = "store_error"
				pl.item.Date = ""
				pl.item.Reason = "failed to persist assignment"
				planner.release(day, pl.isNew)
			}
			resp.Errors += len(group)
			continue
		}
		resp.Scheduled += len(group)
		distCounts[day] = len(group)
	}

	resp.Distribution = toDistribution(distCounts)
	resp.Items = items
	resp.Message = fmt.Sprintf("Scheduled %d of %d contacts", resp.Scheduled, len(req.ContactIDs))
	return resp, nil
}

// GetCapacityStatus aggregates settings, window buckets, due-today counts,
// backlog counts and bloat pressure into one snapshot.
func (s *CapacityFlowImpl) GetCapacityStatus(ctx context.Context, accountID uint) (*dto.CapacityStatusResponse, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	today := utils.StartOfDay(now)

	buckets, err := s.getCapacityBuckets(ctx, accountID, settings.TargetPerDay, settings.WindowDays, today)
	if err != nil {
		return nil, err
	}

	due, err := s.getDueToday(ctx, accountID, today, now)
	if err != nil {
		return nil, err
	}

	unscheduled, err := s.getUnscheduledCounts(ctx, accountID, today, now)
	if err != nil {
		return nil, err
	}

	bloat, err := computeBloat(ctx, s.contactRepo, settings, accountID, now)
	if err != nil {
		return nil, err
	}

	unreachable, err := s.contactRepo.Count(ctx, contactFilterDueAndPaused(accountID, today, now))
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to count paused due contacts", err)
	}

	return &dto.CapacityStatusResponse{
		Message:          "Capacity status retrieved successfully",
		Today:            formatDate(today),
		Settings:         ToCapacitySettingsDTO(settings),
		Buckets:          buckets,
		DueToday:         due,
		Unscheduled:      unscheduled,
		Bloat:            bloat,
		UnreachableToday: int(unreachable),
	}, nil
}

// getCapacityBuckets builds the per-day occupancy view for the next
// windowDays business days, zero-filling days with no scheduled contacts.
func (s *CapacityFlowImpl) getCapacityBuckets(ctx context.Context, accountID uint, targetPerDay, windowDays int, today time.Time) ([]dto.CapacityBucketItem, error) {
	dates := make([]time.Time, 0, windowDays)
	d := utils.NextBusinessDay(today)
	for i := 0; i < windowDays; i++ {
		dates = append(dates, d)
		d = utils.AddBusinessDays(d, 1)
	}

	occ, err := s.contactRepo.OccupancyByDate(ctx, accountID, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to load schedule occupancy", err)
	}
	byDate := make(map[time.Time]repository.DateOccupancy, len(occ))
	for _, o := range occ {
		byDate[utils.StartOfDay(o.Date)] = o
	}

	buckets := make([]dto.CapacityBucketItem, 0, len(dates))
	for _, date := range dates {
		o := byDate[date]
		remaining := targetPerDay - o.Total
		if remaining < 0 {
			remaining = 0
		}
		buckets = append(buckets, dto.CapacityBucketItem{
			Date:      formatDate(date),
			Weekday:   date.Weekday().String(),
			Total:     o.Total,
			New:       o.New,
			Remaining: remaining,
		})
	}
	return buckets, nil
}

// getDueToday counts non-paused contacts due today or earlier.
func (s *CapacityFlowImpl) getDueToday(ctx context.Context, accountID uint, today, now time.Time) (dto.DueTodaySummary, error) {
	yesterday := today.AddDate(0, 0, -1)

	total, err := s.contactRepo.Count(ctx, contactFilterDue(accountID, today, now, nil))
	if err != nil {
		return dto.DueTodaySummary{}, NewBusinessError("STORE_ERROR", "Failed to count due contacts", err)
	}
	newLeads, err := s.contactRepo.Count(ctx, contactFilterDue(accountID, today, now, utils.ToPtr(true)))
	if err != nil {
		return dto.DueTodaySummary{}, NewBusinessError("STORE_ERROR", "Failed to count due new leads", err)
	}
	overdue, err := s.contactRepo.Count(ctx, contactFilterDue(accountID, yesterday, now, nil))
	if err != nil {
		return dto.DueTodaySummary{}, NewBusinessError("STORE_ERROR", "Failed to count overdue contacts", err)
	}

	return dto.DueTodaySummary{
		Total:    int(total),
		New:      int(newLeads),
		FollowUp: int(total - newLeads),
		Overdue:  int(overdue),
	}, nil
}

// getUnscheduledCounts counts the backlog outside the schedule plus contacts
// whose scheduled date has already passed.
func (s *CapacityFlowImpl) getUnscheduledCounts(ctx context.Context, accountID uint, today, now time.Time) (dto.UnscheduledCounts, error) {
	yesterday := today.AddDate(0, 0, -1)

	total, err := s.contactRepo.Count(ctx, contactFilterUnscheduled(accountID))
	if err != nil {
		return dto.UnscheduledCounts{}, NewBusinessError("STORE_ERROR", "Failed to count unscheduled contacts", err)
	}
	overdue, err := s.contactRepo.Count(ctx, contactFilterDue(accountID, yesterday, now, nil))
	if err != nil {
		return dto.UnscheduledCounts{}, NewBusinessError("STORE_ERROR", "Failed to count overdue contacts", err)
	}

	return dto.UnscheduledCounts{
		Total:   int(total),
		Overdue: int(overdue),
	}, nil
}

// GetEligibleUnscheduled pages the schedulable backlog in stable
// (created_at, id) order. Concurrent scheduling can shift page boundaries;
// callers treat pages as best-effort snapshots.
func (s *CapacityFlowImpl) GetEligibleUnscheduled(ctx context.Context, accountID uint, req *dto.EligibleUnscheduledRequest) (*dto.EligibleUnscheduledResponse, error) {
	limit := utils.DefaultPageSize
	offset := 0
	includeOverdue := false
	if req != nil {
		if req.Limit > 0 {
			limit = req.Limit
		}
		if req.Offset > 0 {
			offset = req.Offset
		}
		includeOverdue = req.IncludeOverdue
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}

	now := utils.UTCNow()
	today := utils.StartOfDay(now)

	contacts, err := s.contactRepo.ListEligibleUnscheduled(ctx, accountID, includeOverdue, today, now, limit, offset)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to list eligible contacts", err)
	}

	items := make([]dto.EligibleContactItem, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, ToEligibleContactItem(c))
	}

	return &dto.EligibleUnscheduledResponse{
		Message: "Eligible contacts retrieved successfully",
		Items:   items,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ExportCapacityWorkbook renders the window buckets as an xlsx workbook.
func (s *CapacityFlowImpl) ExportCapacityWorkbook(ctx context.Context, accountID uint) ([]byte, string, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, "", err
	}

	today := utils.UTCToday()
	buckets, err := s.getCapacityBuckets(ctx, accountID, settings.TargetPerDay, settings.WindowDays, today)
	if err != nil {
		return nil, "", err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Capacity"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"date", "weekday", "scheduled_total", "scheduled_new", "remaining"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, b := range buckets {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		record := []any{b.Date, b.Weekday, b.Total, b.New, b.Remaining}
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build capacity workbook", err)
	}

	filename := fmt.Sprintf("capacity_%s.xlsx", today.Format(DateLayout))
	return buf.Bytes(), filename, nil
}
