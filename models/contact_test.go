package models

import (
	"testing"
	"time"

	"github.com/coldwire/dialplan/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallOutcomeValid(t *testing.T) {
	valid := []CallOutcome{
		CallOutcomeNone,
		CallOutcomeNoAnswer,
		CallOutcomeVoicemail,
		CallOutcomeConnected,
		CallOutcomeInterested,
		CallOutcomeNotInterested,
		CallOutcomeDoNotCall,
	}
	for _, o := range valid {
		assert.True(t, o.Valid(), string(o))
	}
	assert.False(t, CallOutcome("busy").Valid())
}

func TestCallOutcomeScan(t *testing.T) {
	var o CallOutcome

	require.NoError(t, o.Scan("no_answer"))
	assert.Equal(t, CallOutcomeNoAnswer, o)

	require.NoError(t, o.Scan([]byte("connected")))
	assert.Equal(t, CallOutcomeConnected, o)

	require.NoError(t, o.Scan(nil))
	assert.Equal(t, CallOutcomeNone, o)

	assert.Error(t, o.Scan(42))
}

func TestCallOutcomeValue(t *testing.T) {
	v, err := CallOutcomeVoicemail.Value()
	require.NoError(t, err)
	assert.Equal(t, "voicemail", v)

	_, err = CallOutcome("busy").Value()
	assert.Error(t, err)
}

func TestContactIsNewLead(t *testing.T) {
	c := &Contact{}
	assert.True(t, c.IsNewLead())

	c.LastContactedAt = utils.UTCNowPtr()
	assert.False(t, c.IsNewLead())
}

func TestContactIsPausedAt(t *testing.T) {
	now := utils.UTCNow()

	c := &Contact{}
	assert.False(t, c.IsPausedAt(now), "no pause set")

	future := now.Add(time.Hour)
	c.PausedUntil = &future
	assert.True(t, c.IsPausedAt(now))

	past := now.Add(-time.Hour)
	c.PausedUntil = &past
	assert.False(t, c.IsPausedAt(now), "expired pauses do not suppress")
}

func TestContactEarliestCallDate(t *testing.T) {
	from := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	fromDay := utils.StartOfDay(from)

	c := &Contact{}
	assert.Equal(t, fromDay, c.EarliestCallDate(from), "no throttle means the reference date")

	lastContacted := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	c.LastContactedAt = &lastContacted
	c.ThrottleDays = utils.ToPtr(10)
	assert.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), c.EarliestCallDate(from))

	// Spacing already satisfied: the reference date wins.
	c.ThrottleDays = utils.ToPtr(3)
	assert.Equal(t, fromDay, c.EarliestCallDate(from))

	// A throttle without a completed call has nothing to space from.
	c.LastContactedAt = nil
	c.ThrottleDays = utils.ToPtr(30)
	assert.Equal(t, fromDay, c.EarliestCallDate(from))
}

func TestDefaultCapacitySettings(t *testing.T) {
	s := DefaultCapacitySettings(9)

	assert.Equal(t, uint(9), s.AccountID)
	assert.Equal(t, utils.DefaultTargetPerDay, s.TargetPerDay)
	assert.Equal(t, utils.DefaultNewQuotaPerDay, s.NewQuotaPerDay)
	assert.Equal(t, utils.DefaultWindowDays, s.WindowDays)
	assert.Equal(t, utils.DefaultBloatThreshold, s.BloatThreshold)
	assert.LessOrEqual(t, s.NewQuotaPerDay, s.TargetPerDay)
}
