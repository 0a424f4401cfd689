package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mon = domain.Date(2025, 6, 2)
	tue = domain.Date(2025, 6, 3)
	wed = domain.Date(2025, 6, 4)
	thu = domain.Date(2025, 6, 5)
	fri = domain.Date(2025, 6, 6)
)

func TestWorkItemRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	parent := testutil.NewTestWorkItem("Parent")
	require.NoError(t, repo.Create(ctx, parent))
	w := testutil.NewTestWorkItem("Build",
		testutil.Automatic(),
		testutil.WithDates(mon, wed),
		testutil.WithDuration(3),
		testutil.WithParent(parent.ID),
		testutil.IgnoringNonWorkingDays(),
	)
	require.NoError(t, repo.Create(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Build", got.Subject)
	assert.Equal(t, domain.ScheduleAutomatic, got.ScheduleMode)
	assert.Equal(t, mon, *got.StartDate)
	assert.Equal(t, wed, *got.DueDate)
	assert.Equal(t, 3, *got.Duration)
	assert.Equal(t, parent.ID, *got.ParentID)
	assert.True(t, got.IgnoreNonWorkingDays)
	assert.Equal(t, 0, got.LockVersion)
}

func TestWorkItemRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkItemRepo_NullableFields(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	w := testutil.NewTestWorkItem("Bare")
	require.NoError(t, repo.Create(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.DueDate)
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, domain.ScheduleManual, got.ScheduleMode)
}

func TestWorkItemRepo_GetManyAndChildren(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p := testutil.NewTestWorkItem("P", testutil.WithID("p"))
	c1 := testutil.NewTestWorkItem("C1", testutil.WithID("c1"), testutil.WithParent("p"))
	c2 := testutil.NewTestWorkItem("C2", testutil.WithID("c2"), testutil.WithParent("p"))
	other := testutil.NewTestWorkItem("O", testutil.WithID("o"))
	for _, w := range []*domain.WorkItem{p, c1, c2, other} {
		require.NoError(t, repo.Create(ctx, w))
	}

	items, err := repo.GetMany(ctx, []string{"o", "p", "missing"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "o", items[0].ID)
	assert.Equal(t, "p", items[1].ID)

	kids, err := repo.ListChildren(ctx, []string{"p"})
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "c1", kids[0].ID)

	none, err := repo.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWorkItemRepo_ListRescheduleCandidates(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	items := []*domain.WorkItem{
		testutil.NewTestWorkItem("leaf", testutil.WithID("leaf"), testutil.Automatic(), testutil.WithDates(mon, wed)),
		testutil.NewTestWorkItem("manual", testutil.WithID("manual"), testutil.WithDates(mon, wed)),
		testutil.NewTestWorkItem("undated", testutil.WithID("undated"), testutil.Automatic()),
		testutil.NewTestWorkItem("ignores", testutil.WithID("ignores"), testutil.Automatic(), testutil.IgnoringNonWorkingDays(), testutil.WithDates(mon, wed)),
		testutil.NewTestWorkItem("parent", testutil.WithID("parent"), testutil.Automatic(), testutil.WithDates(mon, wed)),
		testutil.NewTestWorkItem("child", testutil.WithID("child"), testutil.WithParent("parent"), testutil.WithDates(mon, wed)),
	}
	for _, w := range items {
		require.NoError(t, repo.Create(ctx, w))
	}

	got, err := repo.ListRescheduleCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "leaf", got[0].ID)
}

func TestWorkItemRepo_UpdateBumpsLockVersion(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	w := testutil.NewTestWorkItem("Item", testutil.WithDates(mon, tue))
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, w.SetDates(domain.DatePtr(thu), domain.DatePtr(fri)))
	require.NoError(t, repo.Update(ctx, w))
	assert.Equal(t, 1, w.LockVersion)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, thu, *got.StartDate)
	assert.Equal(t, 1, got.LockVersion)
}

func TestWorkItemRepo_UpdateStaleObject(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	w := testutil.NewTestWorkItem("Item")
	require.NoError(t, repo.Create(ctx, w))

	first, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)

	first.Subject = "first"
	require.NoError(t, repo.Update(ctx, first))

	second.Subject = "second"
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, domain.ErrStaleObject)

	missing := testutil.NewTestWorkItem("ghost")
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestWorkItemRepo_SaveBatchPartialApply(t *testing.T) {
	repo := NewSQLiteWorkItemRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	a := testutil.NewTestWorkItem("A", testutil.WithID("a"))
	b := testutil.NewTestWorkItem("B", testutil.WithID("b"))
	c := testutil.NewTestWorkItem("C", testutil.WithID("c"))
	for _, w := range []*domain.WorkItem{a, b, c} {
		require.NoError(t, repo.Create(ctx, w))
	}

	stale := b.Clone()
	stale.LockVersion = 7
	for _, w := range []*domain.WorkItem{a, stale, c} {
		require.NoError(t, w.SetDates(domain.DatePtr(mon), domain.DatePtr(tue)))
	}

	failures := repo.SaveBatch(ctx, []*domain.WorkItem{a, stale, c})
	require.Len(t, failures, 1)
	assert.Equal(t, "b", failures[0].ItemID)
	assert.ErrorIs(t, failures[0], domain.ErrStaleObject)

	for _, id := range []string{"a", "c"} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, mon, *got.StartDate, "item %s saved despite the failure of b", id)
	}
	got, err := repo.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
}

func TestWorkItemRepo_DeleteDetachesChildrenAndDropsRelations(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteWorkItemRepo(database)
	rels := NewSQLiteRelationRepo(database)
	ctx := context.Background()

	p := testutil.NewTestWorkItem("P", testutil.WithID("p"))
	c := testutil.NewTestWorkItem("C", testutil.WithID("c"), testutil.WithParent("p"))
	s := testutil.NewTestWorkItem("S", testutil.WithID("s"))
	for _, w := range []*domain.WorkItem{p, c, s} {
		require.NoError(t, repo.Create(ctx, w))
	}
	rel := testutil.Follows("s", "p", 0)
	require.NoError(t, rels.Create(ctx, &rel))

	require.NoError(t, repo.Delete(ctx, "p"))

	child, err := repo.GetByID(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, child.ParentID)

	all, err := rels.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, repo.Delete(ctx, "p"), ErrNotFound)
}
