package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
)

// BloatAction is a corrective action applied to a removal candidate.
type BloatAction string

const (
	BloatActionPause12Mo   BloatAction = "pause_12mo"
	BloatActionPause6Mo    BloatAction = "pause_6mo"
	BloatActionThrottle10d BloatAction = "throttle_10d"
	BloatActionThrottle14d BloatAction = "throttle_14d"
)

// Valid checks if the action is valid.
func (a BloatAction) Valid() bool {
	switch a {
	case BloatActionPause12Mo, BloatActionPause6Mo, BloatActionThrottle10d, BloatActionThrottle14d:
		return true
	default:
		return false
	}
}

// BloatFlow handles backlog pressure detection and corrective actions
type BloatFlow interface {
	DetectBloat(ctx context.Context, accountID uint) (*dto.BloatStatus, error)
	GetRemovalCandidates(ctx context.Context, accountID uint, req *dto.RemovalCandidatesRequest) (*dto.RemovalCandidatesResponse, error)
	ApplyBloatFix(ctx context.Context, accountID uint, req *dto.ApplyBloatFixRequest) (*dto.ApplyBloatFixResponse, error)
}

type BloatFlowImpl struct {
	contactRepo  repository.ContactRepository
	settingsRepo repository.CapacitySettingsRepository
}

// NewBloatFlow creates a new bloat flow instance
func NewBloatFlow(
	contactRepo repository.ContactRepository,
	settingsRepo repository.CapacitySettingsRepository,
) BloatFlow {
	return &BloatFlowImpl{
		contactRepo:  contactRepo,
		settingsRepo: settingsRepo,
	}
}

// computeBloat compares backlog need inside the window against sustainable
// capacity. Need counts non-paused contacts scheduled on or before the end of
// the window, overdue included.
func computeBloat(ctx context.Context, contactRepo repository.ContactRepository, settings *models.CapacitySettings, accountID uint, now time.Time) (dto.BloatStatus, error) {
	today := utils.StartOfDay(now)
	endOfWindow := utils.EndOfWindow(today, settings.WindowDays)

	need, err := contactRepo.Count(ctx, contactFilterDue(accountID, endOfWindow, now, nil))
	if err != nil {
		return dto.BloatStatus{}, NewBusinessError("STORE_ERROR", "Failed to count backlog need", err)
	}

	sustainable := settings.TargetPerDay * utils.BusinessDaysIn(today, settings.WindowDays)
	overage := int(need) - sustainable
	if overage < 0 {
		overage = 0
	}

	return dto.BloatStatus{
		BacklogNeed:         int(need),
		SustainableCapacity: sustainable,
		Overage:             overage,
		Threshold:           settings.BloatThreshold,
		Bloated:             overage > settings.BloatThreshold,
	}, nil
}

// DetectBloat reports backlog pressure for the account's window.
func (s *BloatFlowImpl) DetectBloat(ctx context.Context, accountID uint) (*dto.BloatStatus, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}
	bloat, err := computeBloat(ctx, s.contactRepo, settings, accountID, utils.UTCNow())
	if err != nil {
		return nil, err
	}
	return &bloat, nil
}

// suggestAction picks the deterministic corrective action for a candidate.
// Hard negative outcomes earn a long pause; repeated fruitless attempts earn
// shorter pauses or wider call spacing.
func suggestAction(c *models.Contact) BloatAction {
	switch c.LastCallOutcome {
	case models.CallOutcomeDoNotCall, models.CallOutcomeNotInterested:
		return BloatActionPause12Mo
	}

	fruitless := c.LastCallOutcome == models.CallOutcomeNone ||
		c.LastCallOutcome == models.CallOutcomeNoAnswer ||
		c.LastCallOutcome == models.CallOutcomeVoicemail

	switch {
	case fruitless && c.CallAttempts >= 4:
		return BloatActionPause6Mo
	case c.CallAttempts >= 2:
		return BloatActionThrottle14d
	default:
		return BloatActionThrottle10d
	}
}

// GetRemovalCandidates lists scheduled-or-overdue contacts ranked most
// defer-suitable first, each with its suggested action.
func (s *BloatFlowImpl) GetRemovalCandidates(ctx context.Context, accountID uint, req *dto.RemovalCandidatesRequest) (*dto.RemovalCandidatesResponse, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	limit := utils.DefaultPageSize
	excludeAaa := false
	if req != nil {
		if req.Limit > 0 {
			limit = req.Limit
		}
		excludeAaa = req.ExcludeAaa
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}

	now := utils.UTCNow()
	bloat, err := computeBloat(ctx, s.contactRepo, settings, accountID, now)
	if err != nil {
		return nil, err
	}

	candidates, err := s.contactRepo.ListRemovalCandidates(ctx, accountID, excludeAaa, now, limit)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to list removal candidates", err)
	}

	items := make([]dto.RemovalCandidateItem, 0, len(candidates))
	for _, c := range candidates {
		item := dto.RemovalCandidateItem{
			ContactID:       c.ID,
			FirstName:       c.FirstName,
			LastName:        c.LastName,
			Company:         c.Company,
			LastCallOutcome: string(c.LastCallOutcome),
			CallAttempts:    c.CallAttempts,
			IsAaa:           c.IsAaa,
			SuggestedAction: string(suggestAction(c)),
		}
		if c.NextCallDate != nil {
			item.NextCallDate = c.NextCallDate.Format(DateLayout)
		}
		items = append(items, item)
	}

	return &dto.RemovalCandidatesResponse{
		Message: "Removal candidates retrieved successfully",
		Bloat:   bloat,
		Items:   items,
	}, nil
}

// ApplyBloatFix applies explicit per-contact actions, or computes and applies
// the smallest sufficient candidate set when auto-fix is requested. All
// actions are validated before anything mutates; execution tolerates
// per-contact failures.
func (s *BloatFlowImpl) ApplyBloatFix(ctx context.Context, accountID uint, req *dto.ApplyBloatFixRequest) (*dto.ApplyBloatFixResponse, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", ErrCandidatesRequired)
	}

	if req.AutoFix {
		return s.autoFixBloat(ctx, accountID, req.ExcludeAaa)
	}

	if len(req.Candidates) == 0 {
		return nil, NewBusinessError("VALIDATION_ERROR", "Candidates are required unless auto_fix is set", ErrCandidatesRequired)
	}
	for _, cand := range req.Candidates {
		if !BloatAction(cand.Action).Valid() {
			return nil, NewBusinessErrorf("VALIDATION_ERROR", "Unknown action %q for contact %d", ErrUnknownBloatAction, cand.Action, cand.ContactID)
		}
	}

	now := utils.UTCNow()
	resp := &dto.ApplyBloatFixResponse{Actions: make(map[string]int)}
	for _, cand := range req.Candidates {
		if err := s.applyAction(ctx, accountID, cand.ContactID, BloatAction(cand.Action), now); err != nil {
			resp.Failed++
			resp.Failures = append(resp.Failures, dto.BloatFixFailure{
				ContactID: cand.ContactID,
				Action:    cand.Action,
				Reason:    err.Error(),
			})
			continue
		}
		resp.Applied++
		resp.Actions[cand.Action]++
	}

	resp.Message = fmt.Sprintf("Applied %d of %d actions", resp.Applied, len(req.Candidates))
	return resp, nil
}

// autoFixBloat selects the smallest ranked candidate prefix covering the
// overage and applies each candidate's suggested action. The fetch limit is
// oversized so exclusions cannot starve the selection.
func (s *BloatFlowImpl) autoFixBloat(ctx context.Context, accountID uint, excludeAaa bool) (*dto.ApplyBloatFixResponse, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	bloat, err := computeBloat(ctx, s.contactRepo, settings, accountID, now)
	if err != nil {
		return nil, err
	}
	if bloat.Overage == 0 {
		return &dto.ApplyBloatFixResponse{Message: "No bloat detected, nothing to fix"}, nil
	}

	candidates, err := s.contactRepo.ListRemovalCandidates(ctx, accountID, excludeAaa, now, 2*bloat.Overage)
	if err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to list removal candidates", err)
	}
	if len(candidates) > bloat.Overage {
		candidates = candidates[:bloat.Overage]
	}

	resp := &dto.ApplyBloatFixResponse{Actions: make(map[string]int)}
	for _, c := range candidates {
		action := suggestAction(c)
		if err := s.applyAction(ctx, accountID, c.ID, action, now); err != nil {
			resp.Failed++
			resp.Failures = append(resp.Failures, dto.BloatFixFailure{
				ContactID: c.ID,
				Action:    string(action),
				Reason:    err.Error(),
			})
			continue
		}
		resp.Applied++
		resp.Actions[string(action)]++
	}

	resp.Message = fmt.Sprintf("Auto-fix applied %d actions against an overage of %d", resp.Applied, bloat.Overage)
	return resp, nil
}

// applyAction mutates one contact. Pauses clear the scheduled date so the
// slot frees immediately; throttles only widen future call spacing.
func (s *BloatFlowImpl) applyAction(ctx context.Context, accountID, contactID uint, action BloatAction, now time.Time) error {
	switch action {
	case BloatActionPause12Mo:
		return s.contactRepo.SetPause(ctx, accountID, contactID, now.AddDate(1, 0, 0))
	case BloatActionPause6Mo:
		return s.contactRepo.SetPause(ctx, accountID, contactID, now.AddDate(0, 6, 0))
	case BloatActionThrottle10d:
		return s.contactRepo.SetThrottle(ctx, accountID, contactID, 10)
	case BloatActionThrottle14d:
		return s.contactRepo.SetThrottle(ctx, accountID, contactID, 14)
	default:
		return ErrUnknownBloatAction
	}
}
