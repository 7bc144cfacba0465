package businessflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/coldwire/dialplan/config"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
)

var errStoreUnavailable = errors.New("store unavailable")

// fakeContactRepo is an in-memory ContactRepository for flow tests. The
// failure-injection flags mimic partial store outages.
type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[uint]*models.Contact
	nextID   uint

	// failBulkOn fails BulkSetNextCallDate for the given dates.
	failBulkOn map[time.Time]bool
	// ignoreBulkSet reports success without mutating anything.
	ignoreBulkSet bool
	// failPauseIDs fails SetPause and SetThrottle for the given contacts.
	failPauseIDs map[uint]bool

	// eligibleOffsets records the offset of every ListEligibleUnscheduled call.
	eligibleOffsets []int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{
		contacts:     make(map[uint]*models.Contact),
		failBulkOn:   make(map[time.Time]bool),
		failPauseIDs: make(map[uint]bool),
	}
}

func (f *fakeContactRepo) add(c *models.Contact) *models.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Second)
	}
	f.contacts[c.ID] = c
	return c
}

func (f *fakeContactRepo) get(id uint) *models.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts[id]
}

func matchesContactFilter(c *models.Contact, fl models.ContactFilter) bool {
	if fl.AccountID != nil && c.AccountID != *fl.AccountID {
		return false
	}
	if fl.Unscheduled != nil && *fl.Unscheduled != (c.NextCallDate == nil) {
		return false
	}
	if fl.NewLead != nil && *fl.NewLead != c.IsNewLead() {
		return false
	}
	if fl.NextCallOnOrBefore != nil {
		if c.NextCallDate == nil || c.NextCallDate.After(*fl.NextCallOnOrBefore) {
			return false
		}
	}
	if fl.NextCallOnOrAfter != nil {
		if c.NextCallDate == nil || c.NextCallDate.Before(*fl.NextCallOnOrAfter) {
			return false
		}
	}
	if fl.ExcludePausedAt != nil && c.IsPausedAt(*fl.ExcludePausedAt) {
		return false
	}
	if fl.PausedAt != nil && !c.IsPausedAt(*fl.PausedAt) {
		return false
	}
	if fl.IsAaa != nil && c.IsAaa != *fl.IsAaa {
		return false
	}
	if fl.LastCallOutcome != nil && c.LastCallOutcome != *fl.LastCallOutcome {
		return false
	}
	return true
}

func (f *fakeContactRepo) all() []*models.Contact {
	out := make([]*models.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeContactRepo) ByID(ctx context.Context, id uint) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeContactRepo) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for _, c := range f.all() {
		if matchesContactFilter(c, filter) {
			out = append(out, c)
		}
	}
	return pageContacts(out, limit, offset), nil
}

func (f *fakeContactRepo) Save(ctx context.Context, c *models.Contact) error {
	if c.ID == 0 {
		f.add(c)
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[c.ID] = c
	return nil
}

func (f *fakeContactRepo) SaveBatch(ctx context.Context, contacts []*models.Contact) error {
	for _, c := range contacts {
		if err := f.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeContactRepo) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.contacts {
		if matchesContactFilter(c, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeContactRepo) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	n, err := f.Count(ctx, filter)
	return n > 0, err
}

func (f *fakeContactRepo) ByIDs(ctx context.Context, accountID uint, ids []uint) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok && c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) OccupancyByDate(ctx context.Context, accountID uint, from, to time.Time) ([]repository.DateOccupancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDate := make(map[time.Time]*repository.DateOccupancy)
	for _, c := range f.contacts {
		if c.AccountID != accountID || c.NextCallDate == nil {
			continue
		}
		d := utils.StartOfDay(*c.NextCallDate)
		if d.Before(utils.StartOfDay(from)) || d.After(utils.StartOfDay(to)) {
			continue
		}
		occ := byDate[d]
		if occ == nil {
			occ = &repository.DateOccupancy{Date: d}
			byDate[d] = occ
		}
		occ.Total++
		if c.IsNewLead() {
			occ.New++
		}
	}
	out := make([]repository.DateOccupancy, 0, len(byDate))
	for _, occ := range byDate {
		out = append(out, *occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeContactRepo) BulkSetNextCallDate(ctx context.Context, accountID uint, ids []uint, date time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	day := utils.StartOfDay(date)
	if f.failBulkOn[day] {
		return 0, errStoreUnavailable
	}
	if f.ignoreBulkSet {
		return int64(len(ids)), nil
	}
	var n int64
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok && c.AccountID == accountID {
			d := day
			c.NextCallDate = &d
			n++
		}
	}
	return n, nil
}

func (f *fakeContactRepo) ListEligibleUnscheduled(ctx context.Context, accountID uint, includeOverdue bool, today, now time.Time, limit, offset int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eligibleOffsets = append(f.eligibleOffsets, offset)
	var out []*models.Contact
	for _, c := range f.all() {
		if c.AccountID != accountID {
			continue
		}
		eligible := c.NextCallDate == nil
		if !eligible && includeOverdue {
			eligible = c.NextCallDate.Before(utils.StartOfDay(today)) && !c.IsPausedAt(now)
		}
		if eligible {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return pageContacts(out, limit, offset), nil
}

func (f *fakeContactRepo) ListRemovalCandidates(ctx context.Context, accountID uint, excludeAaa bool, now time.Time, limit int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for _, c := range f.all() {
		if c.AccountID != accountID || c.NextCallDate == nil || c.IsPausedAt(now) {
			continue
		}
		if excludeAaa && c.IsAaa {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CallAttempts != out[j].CallAttempts {
			return out[i].CallAttempts > out[j].CallAttempts
		}
		return out[i].ID < out[j].ID
	})
	return pageContacts(out, limit, 0), nil
}

func (f *fakeContactRepo) SetPause(ctx context.Context, accountID, contactID uint, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPauseIDs[contactID] {
		return errStoreUnavailable
	}
	c, ok := f.contacts[contactID]
	if !ok || c.AccountID != accountID {
		return ErrContactNotFound
	}
	u := until
	c.PausedUntil = &u
	c.NextCallDate = nil
	return nil
}

func (f *fakeContactRepo) SetThrottle(ctx context.Context, accountID, contactID uint, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPauseIDs[contactID] {
		return errStoreUnavailable
	}
	c, ok := f.contacts[contactID]
	if !ok || c.AccountID != accountID {
		return ErrContactNotFound
	}
	d := days
	c.ThrottleDays = &d
	return nil
}

func pageContacts(in []*models.Contact, limit, offset int) []*models.Contact {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

// fakeSettingsRepo is an in-memory CapacitySettingsRepository keyed by
// account. Reads return copies so flow-side mutation cannot alias the store.
type fakeSettingsRepo struct {
	mu     sync.Mutex
	rows   map[uint]*models.CapacitySettings
	nextID uint
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{rows: make(map[uint]*models.CapacitySettings)}
}

func (f *fakeSettingsRepo) put(s *models.CapacitySettings) *models.CapacitySettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == 0 {
		f.nextID++
		s.ID = f.nextID
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	cp := *s
	f.rows[s.AccountID] = &cp
	return s
}

func (f *fakeSettingsRepo) stored(accountID uint) *models.CapacitySettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[accountID]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (f *fakeSettingsRepo) ByID(ctx context.Context, id uint) (*models.CapacitySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSettingsRepo) ByFilter(ctx context.Context, filter models.CapacitySettingsFilter, orderBy string, limit, offset int) ([]*models.CapacitySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CapacitySettings
	for _, s := range f.rows {
		if filter.AccountID != nil && s.AccountID != *filter.AccountID {
			continue
		}
		if filter.ID != nil && s.ID != *filter.ID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s *models.CapacitySettings) error {
	f.put(s)
	return nil
}

func (f *fakeSettingsRepo) SaveBatch(ctx context.Context, settings []*models.CapacitySettings) error {
	for _, s := range settings {
		f.put(s)
	}
	return nil
}

func (f *fakeSettingsRepo) Count(ctx context.Context, filter models.CapacitySettingsFilter) (int64, error) {
	rows, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (f *fakeSettingsRepo) Exists(ctx context.Context, filter models.CapacitySettingsFilter) (bool, error) {
	n, err := f.Count(ctx, filter)
	return n > 0, err
}

func (f *fakeSettingsRepo) ByAccountID(ctx context.Context, accountID uint) (*models.CapacitySettings, error) {
	return f.stored(accountID), nil
}

func (f *fakeSettingsRepo) Update(ctx context.Context, s *models.CapacitySettings) error {
	s.UpdatedAt = utils.UTCNow()
	f.put(s)
	return nil
}

// noopLock builds a lock in soft mode, the default for tests.
func noopLock() *ScheduleLock {
	return NewScheduleLock(nil, nil, false)
}

func testLoggingConfig() config.LoggingConfig {
	return config.LoggingConfig{Output: "stdout"}
}

// Contact builders. Follow-ups carry a last contact 30 days back so they stay
// outside the new-lead sub-quota.

func newLeadContact(accountID uint) *models.Contact {
	return &models.Contact{
		AccountID: accountID,
		FirstName: "New",
		LastName:  "Lead",
	}
}

func followUpContact(accountID uint, attempts int, outcome models.CallOutcome) *models.Contact {
	last := utils.UTCToday().AddDate(0, 0, -30)
	return &models.Contact{
		AccountID:       accountID,
		FirstName:       "Follow",
		LastName:        "Up",
		LastContactedAt: &last,
		LastCallOutcome: outcome,
		CallAttempts:    attempts,
	}
}

func scheduledOn(c *models.Contact, date time.Time) *models.Contact {
	d := utils.StartOfDay(date)
	c.NextCallDate = &d
	return c
}

func pausedUntil(c *models.Contact, until time.Time) *models.Contact {
	u := until
	c.PausedUntil = &u
	return c
}
