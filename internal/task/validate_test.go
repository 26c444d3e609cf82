package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_Build(t *testing.T) {
	now := localTime(2024, 1, 15, 10, 0)

	got, err := Draft{
		Title:           "  dentist ",
		Priority:        "high",
		Due:             "tomorrow",
		Description:     "bring x-rays",
		ReminderEnabled: true,
		ReminderAt:      "2024-01-16 08:00",
		Recurring:       true,
		Frequency:       "weekly",
	}.Build(now)
	require.NoError(t, err)

	assert.Equal(t, "dentist", got.Title)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, Stamp("2024-01-16 10:00"), got.Due)
	assert.Equal(t, "bring x-rays", got.Description.PlainText())
	assert.Equal(t, Reminder{Enabled: true, At: "2024-01-16 08:00"}, got.Reminder)
	assert.Equal(t, Recurrence{Enabled: true, Frequency: FrequencyWeekly}, got.Recurrence)
}

func TestDraft_BuildDefaults(t *testing.T) {
	got, err := Draft{Title: "plain"}.Build(localTime(2024, 1, 15, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, got.Priority)
	assert.True(t, got.Due.IsZero())
	assert.Nil(t, got.Description)
	assert.Equal(t, Recurrence{Frequency: FrequencyNone}, got.Recurrence)
	assert.False(t, got.Reminder.Enabled)
}

func TestDraft_BuildErrors(t *testing.T) {
	now := localTime(2024, 1, 15, 10, 0)

	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{"missing title", Draft{Title: "   "}, "title"},
		{"bad priority", Draft{Title: "x", Priority: "urgent"}, "priority"},
		{"bad due", Draft{Title: "x", Due: "whenever"}, "due"},
		{"reminder without time", Draft{Title: "x", ReminderEnabled: true}, "reminder"},
		{"bad reminder", Draft{Title: "x", ReminderEnabled: true, ReminderAt: "32/13"}, "reminder"},
		{"recurring without frequency", Draft{Title: "x", Recurring: true}, "recurrence"},
		{"unknown frequency", Draft{Title: "x", Recurring: true, Frequency: "hourly"}, "recurrence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.Build(now)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "err = %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDraftOf_RoundTrip(t *testing.T) {
	now := localTime(2024, 1, 15, 10, 0)
	orig := Task{
		Title:       "gym",
		Priority:    PriorityLow,
		Due:         "2024-01-20 18:00",
		Description: PlainDescription("legs"),
		Reminder:    Reminder{Enabled: true, At: "2024-01-20 17:00"},
		Recurrence:  Recurrence{Enabled: true, Frequency: FrequencyDaily},
	}

	got, err := DraftOf(orig).Build(now)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestSubDraft_Build(t *testing.T) {
	_, err := SubDraft{}.Build()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	got, err := SubDraft{Title: " step ", Description: "detail", Completed: true}.Build()
	require.NoError(t, err)
	assert.Equal(t, SubTask{Title: "step", Description: Description{{Text: "detail"}}, Completed: true}, got)
}

func TestParsePriorityAndRank(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority("LOW")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, p)

	assert.Equal(t, 0, PriorityHigh.Rank())
	assert.Equal(t, 1, PriorityMedium.Rank())
	assert.Equal(t, 2, PriorityLow.Rank())
	assert.Equal(t, 1, Priority("bogus").Rank())
	assert.Equal(t, 1, Priority("").Rank())
}
