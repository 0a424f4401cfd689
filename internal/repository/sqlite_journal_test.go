package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRepo_AppendAndList(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	cause := domain.CausedBy{
		Type:            domain.CauseWorkingDaysChanged,
		UserID:          "admin",
		ChangedWeekdays: []time.Weekday{time.Wednesday},
	}
	entries := []domain.JournalEntry{
		{WorkItemID: "c", Cause: cause, OldStart: domain.DatePtr(mon), OldDue: domain.DatePtr(wed), NewStart: domain.DatePtr(mon), NewDue: domain.DatePtr(thu)},
		{WorkItemID: "d", Cause: cause, NewStart: domain.DatePtr(fri)},
	}
	require.NoError(t, repo.Append(ctx, entries))

	got, err := repo.ListByWorkItem(ctx, "c")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cause, got[0].Cause)
	assert.Equal(t, thu, *got[0].NewDue)
	assert.Equal(t, wed, *got[0].OldDue)
	assert.False(t, got[0].CreatedAt.IsZero())

	got, err = repo.ListByWorkItem(ctx, "d")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].OldStart)
}
