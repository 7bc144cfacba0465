package repository

import (
	"testing"

	"github.com/coldwire/dialplan/models"
	testingutil "github.com/coldwire/dialplan/testing"
	"github.com/coldwire/dialplan/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRepositoryOccupancyByDate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewContactRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount()
		require.NoError(t, err)
		other, err := fixtures.CreateTestAccount()
		require.NoError(t, err)

		d1 := utils.NextBusinessDay(utils.UTCToday())
		d2 := utils.AddBusinessDays(d1, 1)

		// d1 holds one follow-up and one new lead, d2 one follow-up.
		_, err = fixtures.CreateScheduledTestContact(account.ID, d1, models.CallOutcomeNoAnswer, 2)
		require.NoError(t, err)
		newLead, err := fixtures.CreateTestContact(account.ID)
		require.NoError(t, err)
		newLead.NextCallDate = &d1
		require.NoError(t, testDB.DB.Save(newLead).Error)
		_, err = fixtures.CreateScheduledTestContact(account.ID, d2, models.CallOutcomeConnected, 1)
		require.NoError(t, err)

		// Another account's schedule never shows up.
		_, err = fixtures.CreateScheduledTestContact(other.ID, d1, models.CallOutcomeNone, 0)
		require.NoError(t, err)

		rows, err := repo.OccupancyByDate(ctx, account.ID, d1, d2)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.True(t, utils.SameDate(d1, rows[0].Date))
		assert.Equal(t, 2, rows[0].Total)
		assert.Equal(t, 1, rows[0].New, "only the never-contacted one counts as new")
		assert.True(t, utils.SameDate(d2, rows[1].Date))
		assert.Equal(t, 1, rows[1].Total)
		assert.Equal(t, 0, rows[1].New)

		return nil
	})
	require.NoError(t, err)
}

func TestContactRepositoryBulkSetNextCallDate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewContactRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount()
		require.NoError(t, err)
		other, err := fixtures.CreateTestAccount()
		require.NoError(t, err)

		batch, err := fixtures.CreateContactBatch(account.ID, 2)
		require.NoError(t, err)
		foreign, err := fixtures.CreateTestContact(other.ID)
		require.NoError(t, err)

		d1 := utils.NextBusinessDay(utils.UTCToday())

		affected, err := repo.BulkSetNextCallDate(ctx, account.ID,
			[]uint{batch[0].ID, batch[1].ID, foreign.ID}, d1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected, "the other account's contact is untouched")

		for _, c := range batch {
			got, err := repo.ByID(ctx, c.ID)
			require.NoError(t, err)
			require.NotNil(t, got.NextCallDate)
			assert.True(t, utils.SameDate(d1, *got.NextCallDate))
		}

		got, err := repo.ByID(ctx, foreign.ID)
		require.NoError(t, err)
		assert.Nil(t, got.NextCallDate)

		affected, err = repo.BulkSetNextCallDate(ctx, account.ID, nil, d1)
		require.NoError(t, err)
		assert.Zero(t, affected)

		return nil
	})
	require.NoError(t, err)
}

func TestContactRepositoryListRemovalCandidates(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewContactRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount()
		require.NoError(t, err)

		now := utils.UTCNow()
		today := utils.UTCToday()

		hard, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeDoNotCall, 1)
		require.NoError(t, err)
		tired, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeNoAnswer, 5)
		require.NoError(t, err)
		light, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeVoicemail, 1)
		require.NoError(t, err)
		fresh, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeConnected, 3)
		require.NoError(t, err)

		aaa, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeInterested, 9)
		require.NoError(t, err)
		aaa.IsAaa = true
		require.NoError(t, testDB.DB.Save(aaa).Error)

		// Paused and unscheduled contacts are never candidates.
		paused, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeNoAnswer, 8)
		require.NoError(t, err)
		until := now.AddDate(0, 0, 30)
		paused.PausedUntil = &until
		require.NoError(t, testDB.DB.Save(paused).Error)
		_, err = fixtures.CreateTestContact(account.ID)
		require.NoError(t, err)

		rows, err := repo.ListRemovalCandidates(ctx, account.ID, false, now, 0)
		require.NoError(t, err)
		require.Len(t, rows, 5)

		// Strongest negative signal first, then attempts, then age.
		assert.Equal(t, hard.ID, rows[0].ID)
		assert.Equal(t, tired.ID, rows[1].ID)
		assert.Equal(t, light.ID, rows[2].ID)
		assert.Equal(t, aaa.ID, rows[3].ID)
		assert.Equal(t, fresh.ID, rows[4].ID)

		rows, err = repo.ListRemovalCandidates(ctx, account.ID, true, now, 0)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		for _, c := range rows {
			assert.False(t, c.IsAaa)
		}

		rows, err = repo.ListRemovalCandidates(ctx, account.ID, false, now, 2)
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		return nil
	})
	require.NoError(t, err)
}

func TestContactRepositoryListEligibleUnscheduled(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewContactRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount()
		require.NoError(t, err)

		now := utils.UTCNow()
		today := utils.UTCToday()
		yesterday := today.AddDate(0, 0, -1)

		backlog, err := fixtures.CreateTestContact(account.ID)
		require.NoError(t, err)
		overdue, err := fixtures.CreateScheduledTestContact(account.ID, yesterday, models.CallOutcomeNoAnswer, 1)
		require.NoError(t, err)

		pausedOverdue, err := fixtures.CreateScheduledTestContact(account.ID, yesterday, models.CallOutcomeNone, 0)
		require.NoError(t, err)
		until := now.AddDate(0, 0, 30)
		pausedOverdue.PausedUntil = &until
		require.NoError(t, testDB.DB.Save(pausedOverdue).Error)

		// Scheduled in the future, not eligible either way.
		_, err = fixtures.CreateScheduledTestContact(account.ID, utils.NextBusinessDay(today), models.CallOutcomeConnected, 1)
		require.NoError(t, err)

		rows, err := repo.ListEligibleUnscheduled(ctx, account.ID, false, today, now, 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, backlog.ID, rows[0].ID)

		rows, err = repo.ListEligibleUnscheduled(ctx, account.ID, true, today, now, 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, backlog.ID, rows[0].ID, "oldest creation first")
		assert.Equal(t, overdue.ID, rows[1].ID)

		return nil
	})
	require.NoError(t, err)
}

func TestContactRepositorySetPauseAndThrottle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewContactRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		account, err := fixtures.CreateTestAccount()
		require.NoError(t, err)

		now := utils.UTCNow()
		today := utils.UTCToday()

		c, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeNotInterested, 2)
		require.NoError(t, err)

		until := now.AddDate(1, 0, 0)
		require.NoError(t, repo.SetPause(ctx, account.ID, c.ID, until))

		got, err := repo.ByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PausedUntil)
		assert.Nil(t, got.NextCallDate, "pausing frees the scheduled slot")

		d, err := fixtures.CreateScheduledTestContact(account.ID, today, models.CallOutcomeNoAnswer, 2)
		require.NoError(t, err)
		require.NoError(t, repo.SetThrottle(ctx, account.ID, d.ID, 14))

		got, err = repo.ByID(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ThrottleDays)
		assert.Equal(t, 14, *got.ThrottleDays)
		assert.NotNil(t, got.NextCallDate, "throttling keeps the schedule")

		// Account scoping: a wrong owner never mutates and reports not found.
		assert.Error(t, repo.SetPause(ctx, account.ID+1, d.ID, until))
		assert.Error(t, repo.SetThrottle(ctx, account.ID+1, d.ID, 10))

		return nil
	})
	require.NoError(t, err)
}
