package businessflow

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newCapacityFixture() (*fakeContactRepo, *fakeSettingsRepo, CapacityFlow) {
	contactRepo := newFakeContactRepo()
	settingsRepo := newFakeSettingsRepo()
	flow := NewCapacityFlow(contactRepo, settingsRepo, noopLock())
	return contactRepo, settingsRepo, flow
}

func TestScheduleContactsRequiresIDs(t *testing.T) {
	_, _, flow := newCapacityFixture()
	ctx := context.Background()

	for _, req := range []*dto.ScheduleContactsRequest{nil, {ContactIDs: nil}} {
		resp, err := flow.ScheduleContacts(ctx, 1, req)

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, IsContactIDsRequired(err))

		var be *BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "VALIDATION_ERROR", be.Code)
	}
}

func TestScheduleContactsQuotaOverrideValidation(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})
	c := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))

	_, err := flow.ScheduleContacts(context.Background(), 1, &dto.ScheduleContactsRequest{
		ContactIDs:     []uint{c.ID},
		NewQuotaPerDay: utils.ToPtr(11),
	})

	require.Error(t, err)
	assert.True(t, IsNewQuotaExceedsTarget(err))
}

func TestScheduleContactsFillsEarliestDays(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})

	d1 := utils.NextBusinessDay(utils.UTCToday())
	d2 := utils.AddBusinessDays(d1, 1)

	// d1 holds 9 of 10 slots, 1 of 3 new-lead slots.
	for i := 0; i < 8; i++ {
		contactRepo.add(scheduledOn(followUpContact(1, 1, models.CallOutcomeConnected), d1))
	}
	contactRepo.add(scheduledOn(newLeadContact(1), d1))

	a := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))
	b := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))
	c := contactRepo.add(newLeadContact(1))

	resp, err := flow.ScheduleContacts(context.Background(), 1, &dto.ScheduleContactsRequest{
		ContactIDs: []uint{a.ID, b.ID, c.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Scheduled)
	assert.Equal(t, 0, resp.Skipped)
	assert.Equal(t, 0, resp.Errors)
	assert.Equal(t, "Scheduled 3 of 3 contacts", resp.Message)

	require.Len(t, resp.Items, 3)
	assert.Equal(t, "scheduled", resp.Items[0].Status)
	assert.Equal(t, formatDate(d1), resp.Items[0].Date, "last free slot on the first day")
	assert.Equal(t, formatDate(d2), resp.Items[1].Date, "first day is full, overflow to the next")
	assert.Equal(t, formatDate(d2), resp.Items[2].Date)

	require.Len(t, resp.Distribution, 2)
	assert.Equal(t, dto.DistributionItem{Date: formatDate(d1), Count: 1}, resp.Distribution[0])
	assert.Equal(t, dto.DistributionItem{Date: formatDate(d2), Count: 2}, resp.Distribution[1])

	require.NotNil(t, contactRepo.get(a.ID).NextCallDate)
	assert.Equal(t, d1, *contactRepo.get(a.ID).NextCallDate)
	assert.Equal(t, d2, *contactRepo.get(b.ID).NextCallDate)
	assert.Equal(t, d2, *contactRepo.get(c.ID).NextCallDate)
}

func TestScheduleContactsRerunKeepsDates(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})

	d1 := utils.NextBusinessDay(utils.UTCToday())

	// Other contacts hold 9 of the 10 slots on the first day.
	for i := 0; i < 9; i++ {
		contactRepo.add(scheduledOn(followUpContact(1, 1, models.CallOutcomeConnected), d1))
	}

	a := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))
	req := &dto.ScheduleContactsRequest{ContactIDs: []uint{a.ID}}

	first, err := flow.ScheduleContacts(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, 1, first.Scheduled)
	assert.Equal(t, formatDate(d1), first.Items[0].Date, "takes the last free slot")

	second, err := flow.ScheduleContacts(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, 1, second.Scheduled)
	assert.Equal(t, first.Items[0].Date, second.Items[0].Date,
		"an unchanged re-run keeps the assignment instead of drifting forward")
	assert.Equal(t, d1, *contactRepo.get(a.ID).NextCallDate)
}

func TestScheduleContactsRerunKeepsNewLeadQuota(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 1, WindowDays: 10})

	d1 := utils.NextBusinessDay(utils.UTCToday())
	d2 := utils.AddBusinessDays(d1, 1)

	// Another new lead holds the single new-lead slot on the first day.
	contactRepo.add(scheduledOn(newLeadContact(1), d1))

	nl := contactRepo.add(newLeadContact(1))
	req := &dto.ScheduleContactsRequest{ContactIDs: []uint{nl.ID}}

	first, err := flow.ScheduleContacts(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, 1, first.Scheduled)
	assert.Equal(t, formatDate(d2), first.Items[0].Date)

	// The re-run credits the sub-quota slot the lead already holds on d2.
	second, err := flow.ScheduleContacts(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, 1, second.Scheduled)
	assert.Equal(t, formatDate(d2), second.Items[0].Date)
}

func TestScheduleContactsAccountsForEveryID(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})
	x := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))

	req := &dto.ScheduleContactsRequest{ContactIDs: []uint{x.ID, x.ID, 999}}
	resp, err := flow.ScheduleContacts(context.Background(), 1, req)

	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	assert.Equal(t, x.ID, resp.Items[0].ContactID)
	assert.Equal(t, "scheduled", resp.Items[0].Status)

	assert.Equal(t, x.ID, resp.Items[1].ContactID)
	assert.Equal(t, "duplicate", resp.Items[1].Status)
	assert.Empty(t, resp.Items[1].Date)

	assert.Equal(t, uint(999), resp.Items[2].ContactID)
	assert.Equal(t, "not_found", resp.Items[2].Status)

	assert.Equal(t, 1, resp.Scheduled)
	assert.Equal(t, 2, resp.Errors)
	assert.Equal(t, len(req.ContactIDs), resp.Scheduled+resp.Skipped+resp.Errors)
}

func TestScheduleContactsCreatesDefaultSettings(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	c := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))

	_, err := flow.ScheduleContacts(context.Background(), 1, &dto.ScheduleContactsRequest{ContactIDs: []uint{c.ID}})

	require.NoError(t, err)
	created := settingsRepo.stored(1)
	require.NotNil(t, created)
	assert.Equal(t, utils.DefaultTargetPerDay, created.TargetPerDay)
	assert.Equal(t, utils.DefaultNewQuotaPerDay, created.NewQuotaPerDay)
}

func TestScheduleContactsCapacityExhausted(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 1, NewQuotaPerDay: 1, WindowDays: 1})

	// Window 1 floors the look-ahead at 20 business days past today. Fill
	// every day through the ceiling.
	today := utils.UTCToday()
	for i := 0; i <= 20; i++ {
		day := utils.AddBusinessDays(today, i)
		contactRepo.add(scheduledOn(followUpContact(1, 1, models.CallOutcomeConnected), day))
	}

	c := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))
	resp, err := flow.ScheduleContacts(context.Background(), 1, &dto.ScheduleContactsRequest{ContactIDs: []uint{c.ID}})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Scheduled)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "capacity_exhausted", resp.Items[0].Status)
	assert.Nil(t, contactRepo.get(c.ID).NextCallDate)
}

func TestScheduleContactsStoreError(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})

	d1 := utils.NextBusinessDay(utils.UTCToday())
	contactRepo.failBulkOn[d1] = true

	c := contactRepo.add(followUpContact(1, 0, models.CallOutcomeNone))
	resp, err := flow.ScheduleContacts(context.Background(), 1, &dto.ScheduleContactsRequest{ContactIDs: []uint{c.ID}})

	require.NoError(t, err, "store failures are per-contact, not fatal")
	assert.Equal(t, 0, resp.Scheduled)
	assert.Equal(t, 1, resp.Errors)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "store_error", resp.Items[0].Status)
	assert.Empty(t, resp.Items[0].Date)
	assert.Empty(t, resp.Distribution)
	assert.Nil(t, contactRepo.get(c.ID).NextCallDate)
}

func TestGetCapacityStatus(t *testing.T) {
	contactRepo, _, flow := newCapacityFixture()

	now := utils.UTCNow()
	today := utils.UTCToday()
	yesterday := today.AddDate(0, 0, -1)

	contactRepo.add(scheduledOn(followUpContact(1, 2, models.CallOutcomeNoAnswer), today))
	contactRepo.add(scheduledOn(newLeadContact(1), yesterday))
	contactRepo.add(newLeadContact(1))
	contactRepo.add(pausedUntil(scheduledOn(followUpContact(1, 1, models.CallOutcomeVoicemail), today), now.AddDate(0, 0, 10)))
	// Another account's contact never leaks into the snapshot.
	contactRepo.add(scheduledOn(followUpContact(2, 0, models.CallOutcomeNone), today))

	resp, err := flow.GetCapacityStatus(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, formatDate(today), resp.Today)
	assert.Equal(t, utils.DefaultTargetPerDay, resp.Settings.TargetPerDay)

	assert.Equal(t, 2, resp.DueToday.Total)
	assert.Equal(t, 1, resp.DueToday.New)
	assert.Equal(t, 1, resp.DueToday.FollowUp)
	assert.Equal(t, 1, resp.DueToday.Overdue)

	assert.Equal(t, 1, resp.Unscheduled.Total)
	assert.Equal(t, 1, resp.Unscheduled.Overdue)
	assert.Equal(t, 1, resp.UnreachableToday)

	require.Len(t, resp.Buckets, utils.DefaultWindowDays)
	prev := ""
	for _, b := range resp.Buckets {
		assert.NotEqual(t, time.Saturday.String(), b.Weekday)
		assert.NotEqual(t, time.Sunday.String(), b.Weekday)
		assert.GreaterOrEqual(t, b.Remaining, 0)
		assert.True(t, b.Date > prev, "buckets are ascending")
		prev = b.Date
	}

	assert.Equal(t, 2, resp.Bloat.BacklogNeed)
	assert.False(t, resp.Bloat.Bloated)
}

func TestGetEligibleUnscheduledPaging(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 10})

	first := contactRepo.add(newLeadContact(1))
	second := contactRepo.add(newLeadContact(1))
	third := contactRepo.add(followUpContact(1, 1, models.CallOutcomeNoAnswer))
	contactRepo.add(scheduledOn(followUpContact(1, 0, models.CallOutcomeNone), utils.UTCToday().AddDate(0, 0, 5)))

	ctx := context.Background()

	page, err := flow.GetEligibleUnscheduled(ctx, 1, &dto.EligibleUnscheduledRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)
	assert.Equal(t, second.ID, page.Items[1].ID)
	assert.True(t, page.Items[0].IsNewLead)

	page, err = flow.GetEligibleUnscheduled(ctx, 1, &dto.EligibleUnscheduledRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, third.ID, page.Items[0].ID)
	assert.Equal(t, 2, page.Offset)
}

func TestGetEligibleUnscheduledClampsAndDefaults(t *testing.T) {
	_, _, flow := newCapacityFixture()
	ctx := context.Background()

	page, err := flow.GetEligibleUnscheduled(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultPageSize, page.Limit)

	page, err = flow.GetEligibleUnscheduled(ctx, 1, &dto.EligibleUnscheduledRequest{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, utils.MaxPageSize, page.Limit)
}

func TestGetEligibleUnscheduledIncludeOverdue(t *testing.T) {
	contactRepo, _, flow := newCapacityFixture()

	yesterday := utils.UTCToday().AddDate(0, 0, -1)
	overdue := contactRepo.add(scheduledOn(followUpContact(1, 1, models.CallOutcomeNoAnswer), yesterday))

	ctx := context.Background()

	page, err := flow.GetEligibleUnscheduled(ctx, 1, &dto.EligibleUnscheduledRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = flow.GetEligibleUnscheduled(ctx, 1, &dto.EligibleUnscheduledRequest{IncludeOverdue: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, overdue.ID, page.Items[0].ID)
}

func TestExportCapacityWorkbook(t *testing.T) {
	contactRepo, settingsRepo, flow := newCapacityFixture()
	settingsRepo.put(&models.CapacitySettings{AccountID: 1, TargetPerDay: 10, NewQuotaPerDay: 3, WindowDays: 5})
	contactRepo.add(scheduledOn(followUpContact(1, 0, models.CallOutcomeNone), utils.NextBusinessDay(utils.UTCToday())))

	data, filename, err := flow.ExportCapacityWorkbook(context.Background(), 1)

	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(filename, "capacity_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Capacity")
	require.NoError(t, err)
	require.Len(t, rows, 6, "header plus one row per window day")
	assert.Equal(t, []string{"date", "weekday", "scheduled_total", "scheduled_new", "remaining"}, rows[0])
}
