package scheduler

import (
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/graph"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Week of 2025-06-02 (Monday).
var (
	mon     = domain.Date(2025, 6, 2)
	tue     = domain.Date(2025, 6, 3)
	wed     = domain.Date(2025, 6, 4)
	thu     = domain.Date(2025, 6, 5)
	fri     = domain.Date(2025, 6, 6)
	sat     = domain.Date(2025, 6, 7)
	sun     = domain.Date(2025, 6, 8)
	nextMon = domain.Date(2025, 6, 9)
	nextTue = domain.Date(2025, 6, 10)
)

type fixture struct {
	items []*domain.WorkItem
	rels  []domain.Relation
}

func (f *fixture) add(id string, opts ...testutil.WorkItemOption) *domain.WorkItem {
	w := testutil.NewTestWorkItem(id, append([]testutil.WorkItemOption{testutil.WithID(id)}, opts...)...)
	f.items = append(f.items, w)
	return w
}

func (f *fixture) follows(succ, pred string, lag int) {
	f.rels = append(f.rels, testutil.Follows(succ, pred, lag))
}

func (f *fixture) graph() *graph.Graph {
	g := graph.New()
	for _, w := range f.items {
		g.AddItem(w.Clone())
	}
	for _, r := range f.rels {
		g.AddRelation(r)
	}
	return g
}

// apply writes the changed items back into the fixture, as persistence would.
func (f *fixture) apply(res *ScheduleResult) {
	for i, w := range f.items {
		if ch, ok := res.Items[w.ID]; ok {
			f.items[i] = ch.Item.Clone()
		}
	}
}

func compute(t *testing.T, cal *calendar.Calendar, f *fixture, origins ...string) *ScheduleResult {
	t.Helper()
	res := NewCalculator(cal).Compute(f.graph(), origins)
	require.NotNil(t, res)
	return res
}

func TestCompute_LeafOriginUnchangedAndSuccessorFollows(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.Automatic(), testutil.WithDates(mon, wed), testutil.WithDuration(3))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.NotContains(t, res.Items, "A", "automatic leaf without predecessors keeps its dates")
	require.Contains(t, res.Items, "B")
	b := res.Items["B"]
	assert.Equal(t, thu, *b.NewStart)
	assert.Equal(t, fri, *b.NewDue)
	assert.Equal(t, mon, *b.OldStart)
	assert.True(t, b.Changed)
	assert.Equal(t, []string{"B"}, res.Order)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Visited)
	assert.Empty(t, res.Failures)
}

func TestCompute_LagIsWorkingDaysAfterDue(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 2)

	res := compute(t, calendar.Default(), f, "A")

	require.Contains(t, res.Items, "B")
	assert.Equal(t, nextMon, *res.Items["B"].NewStart, "thu and fri are the lag")
	assert.Equal(t, nextTue, *res.Items["B"].NewDue)
}

func TestCompute_SkipsWeekend(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(thu, fri))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.Equal(t, nextMon, *res.Items["B"].NewStart)
	assert.Equal(t, nextTue, *res.Items["B"].NewDue)
}

func TestCompute_LatestPredecessorWins(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, mon))
	f.add("C", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, mon), testutil.WithDuration(1))
	f.follows("B", "A", 1)
	f.follows("B", "C", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.Equal(t, thu, *res.Items["B"].NewStart)
	assert.Equal(t, thu, *res.Items["B"].NewDue)
}

func TestCompute_ManualItemsNeverAltered(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, fri))
	f.add("M", testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.add("D", testutil.Automatic(), testutil.WithDates(mon, mon), testutil.WithDuration(1))
	f.follows("M", "A", 0)
	f.follows("D", "M", 0)

	res := compute(t, calendar.Default(), f, "A", "M")

	assert.NotContains(t, res.Items, "A")
	assert.NotContains(t, res.Items, "M", "manual successor overlaps its predecessor but stays put")
	require.Contains(t, res.Items, "D", "manual origin still pushes its automatic successors")
	assert.Equal(t, wed, *res.Items["D"].NewStart)
}

func TestCompute_ParentSpansChildren(t *testing.T) {
	f := &fixture{}
	f.add("P", testutil.Automatic(), testutil.WithDates(mon, mon))
	f.add("C1", testutil.Automatic(), testutil.WithParent("P"), testutil.WithDates(mon, tue))
	f.add("C2", testutil.Automatic(), testutil.WithParent("P"), testutil.WithDates(wed, thu))

	res := compute(t, calendar.Default(), f, "C1")

	require.Contains(t, res.Items, "P")
	p := res.Items["P"]
	assert.Equal(t, mon, *p.NewStart)
	assert.Equal(t, thu, *p.NewDue)
	require.NotNil(t, p.NewDuration)
	assert.Equal(t, 4, *p.NewDuration)
	assert.NotContains(t, res.Items, "C1")
	assert.NotContains(t, res.Items, "C2")
}

func TestCompute_ChildrenInheritParentPredecessors(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("P", testutil.Automatic(), testutil.WithDates(mon, tue))
	f.add("C", testutil.Automatic(), testutil.WithParent("P"), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("P", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	require.Equal(t, []string{"C", "P"}, res.Order, "children before parents")
	assert.Equal(t, thu, *res.Items["C"].NewStart)
	assert.Equal(t, fri, *res.Items["C"].NewDue)
	assert.Equal(t, thu, *res.Items["P"].NewStart)
	assert.Equal(t, fri, *res.Items["P"].NewDue)
}

func TestCompute_ManualParentShieldsChildren(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("P", testutil.WithDates(mon, tue))
	f.add("C", testutil.Automatic(), testutil.WithParent("P"), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("P", "A", 0)

	res := compute(t, calendar.Default(), f, "A", "C")

	assert.Empty(t, res.Items)
}

func TestCompute_IgnoreNonWorkingDays(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(thu, fri))
	f.add("B", testutil.Automatic(), testutil.IgnoringNonWorkingDays(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.Equal(t, sat, *res.Items["B"].NewStart)
	assert.Equal(t, sun, *res.Items["B"].NewDue)
}

func TestCompute_DerivesMissingDuration(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	b := res.Items["B"]
	assert.Equal(t, thu, *b.NewStart)
	assert.Equal(t, fri, *b.NewDue)
	require.NotNil(t, b.NewDuration)
	assert.Equal(t, 2, *b.NewDuration)
}

func TestCompute_StartOnlyItemMovesStart(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithStart(mon))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.Equal(t, thu, *res.Items["B"].NewStart)
	assert.Nil(t, res.Items["B"].NewDue)
}

func TestCompute_PredecessorWithoutDatesIsIgnored(t *testing.T) {
	f := &fixture{}
	f.add("A")
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	assert.Empty(t, res.Items)
}

func TestCompute_RespectsCalendar(t *testing.T) {
	cal, err := calendar.New(domain.NewWeekdaySet(time.Monday, time.Tuesday, time.Thursday, time.Friday), nil)
	require.NoError(t, err)

	f := &fixture{}
	f.add("A", testutil.WithDates(mon, tue))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)

	res := compute(t, cal, f, "A")

	assert.Equal(t, thu, *res.Items["B"].NewStart, "wednesday is not a working day")
	assert.Equal(t, fri, *res.Items["B"].NewDue)
}

func TestCompute_CycleIsolated(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, mon))
	f.add("X", testutil.Automatic(), testutil.WithDates(tue, tue), testutil.WithDuration(1))
	f.add("Y", testutil.Automatic(), testutil.WithDates(tue, tue), testutil.WithDuration(1))
	f.add("Z", testutil.Automatic(), testutil.WithDates(mon, mon), testutil.WithDuration(1))
	f.add("B", testutil.Automatic(), testutil.WithDates(fri, fri), testutil.WithDuration(1))
	f.follows("X", "A", 0)
	f.follows("Y", "X", 0)
	f.follows("X", "Y", 0)
	f.follows("Z", "Y", 0)
	f.follows("B", "A", 0)

	res := compute(t, calendar.Default(), f, "A")

	require.Len(t, res.Failures, 1)
	failure := res.Failures[0]
	assert.Equal(t, []string{"X", "Y"}, failure.IDs)
	assert.Equal(t, ReasonCyclicDependency, failure.Reason)
	assert.ErrorIs(t, failure.Err, domain.ErrCyclicDependency)
	assert.NotContains(t, res.Items, "X")
	assert.NotContains(t, res.Items, "Y")

	require.Contains(t, res.Items, "Z", "downstream of the cycle still schedules")
	assert.Equal(t, wed, *res.Items["Z"].NewStart)
	require.Contains(t, res.Items, "B")
	assert.Equal(t, tue, *res.Items["B"].NewStart)
	assert.Equal(t, map[string]bool{"X": true, "Y": true}, res.FailedIDs())
}

func TestCompute_ReportsEveryIndependentCycle(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, mon))
	for _, id := range []string{"C1", "C2", "C3", "D1", "D2"} {
		f.add(id, testutil.Automatic(), testutil.WithDates(tue, tue), testutil.WithDuration(1))
	}
	f.follows("C1", "A", 0)
	f.follows("C2", "C1", 0)
	f.follows("C3", "C2", 0)
	f.follows("C1", "C3", 0)
	f.follows("D1", "A", 0)
	f.follows("D2", "D1", 0)
	f.follows("D1", "D2", 0)

	res := compute(t, calendar.Default(), f, "A")

	require.Len(t, res.Failures, 2)
	assert.Equal(t, []string{"C1", "C2", "C3"}, res.Failures[0].IDs)
	assert.Equal(t, []string{"D1", "D2"}, res.Failures[1].IDs)
	assert.Empty(t, res.Items)
}

func TestCompute_SecondPassIsIdempotent(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.add("P", testutil.Automatic())
	f.add("C", testutil.Automatic(), testutil.WithParent("P"), testutil.WithDates(mon, mon), testutil.WithDuration(3))
	f.follows("B", "A", 1)
	f.follows("P", "B", 0)

	first := compute(t, calendar.Default(), f, "A")
	require.NotEmpty(t, first.Items)
	f.apply(first)

	second := compute(t, calendar.Default(), f, "A")
	assert.Empty(t, second.Items)
	assert.ElementsMatch(t, first.Visited, second.Visited)
}

func TestCompute_DoesNotMutateGraph(t *testing.T) {
	f := &fixture{}
	f.add("A", testutil.WithDates(mon, wed))
	f.add("B", testutil.Automatic(), testutil.WithDates(mon, tue), testutil.WithDuration(2))
	f.follows("B", "A", 0)
	g := f.graph()

	NewCalculator(calendar.Default()).Compute(g, []string{"A"})

	b, ok := g.Item("B")
	require.True(t, ok)
	assert.Equal(t, mon, *b.StartDate)
}
