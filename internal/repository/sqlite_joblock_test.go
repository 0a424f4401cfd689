package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLockRepo_SingleHolder(t *testing.T) {
	repo := NewSQLiteJobLockRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	ok, err := repo.TryAcquire(ctx, "working_days", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryAcquire(ctx, "working_days", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by run-1")

	ok, err = repo.TryAcquire(ctx, "other_job", "run-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per name")

	require.NoError(t, repo.Release(ctx, "working_days", "run-2"))
	ok, err = repo.TryAcquire(ctx, "working_days", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "release by a non-holder is ignored")

	require.NoError(t, repo.Release(ctx, "working_days", "run-1"))
	ok, err = repo.TryAcquire(ctx, "working_days", "run-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobLockRepo_ExpiredLockIsTakenOver(t *testing.T) {
	repo := NewSQLiteJobLockRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	clock := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	ok, err := repo.TryAcquire(ctx, "working_days", "crashed", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	clock = clock.Add(30 * time.Second)
	ok, err = repo.TryAcquire(ctx, "working_days", "next", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	clock = clock.Add(31 * time.Second)
	ok, err = repo.TryAcquire(ctx, "working_days", "next", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "stale lock expired")
}
