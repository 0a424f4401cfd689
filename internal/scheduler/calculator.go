// Package scheduler computes start and due dates of automatically scheduled
// work items. It never persists anything.
package scheduler

import (
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/graph"
)

// FailureReason classifies items the calculator could not schedule.
type FailureReason string

const (
	ReasonCyclicDependency FailureReason = "cyclic_dependency"
)

// ItemChange is the computed schedule of one item. Item is a copy carrying
// the new dates, ready to hand to persistence.
type ItemChange struct {
	ID          string
	OldStart    *time.Time
	OldDue      *time.Time
	NewStart    *time.Time
	NewDue      *time.Time
	NewDuration *int
	Changed     bool
	Item        *domain.WorkItem
}

// Failure groups items that were skipped for the same reason.
type Failure struct {
	IDs    []string
	Reason FailureReason
	Err    error
}

// ScheduleResult is the outcome of one pass. Items holds changed items only;
// Order lists them predecessors first. Visited lists every automatic item
// the pass computed, changed or not.
type ScheduleResult struct {
	Items    map[string]ItemChange
	Order    []string
	Visited  []string
	Failures []Failure
}

// ChangedItems returns the changed items in dependency order.
func (r *ScheduleResult) ChangedItems() []ItemChange {
	out := make([]ItemChange, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Items[id])
	}
	return out
}

// FailedIDs returns the set of items named by any failure.
func (r *ScheduleResult) FailedIDs() map[string]bool {
	set := make(map[string]bool)
	for _, f := range r.Failures {
		for _, id := range f.IDs {
			set[id] = true
		}
	}
	return set
}

// Calculator schedules a closure against a calendar snapshot.
type Calculator struct {
	cal *calendar.Calendar
}

func NewCalculator(cal *calendar.Calendar) *Calculator {
	return &Calculator{cal: cal}
}

// Compute recomputes every automatic item in the closure of origins.
// Manually scheduled items are read but never rewritten.
func (c *Calculator) Compute(g *graph.Graph, origins []string) *ScheduleResult {
	result := &ScheduleResult{Items: make(map[string]ItemChange)}

	var nodes []string
	inSet := make(map[string]bool)
	for _, id := range g.Closure(origins) {
		if w, ok := g.Item(id); ok && w.IsAutomatic() {
			nodes = append(nodes, id)
			inSet[id] = true
		}
	}

	adj := make(map[string][]string, len(nodes))
	for _, id := range nodes {
		for _, e := range g.PredecessorsForScheduling(id) {
			if inSet[e.PredecessorID] {
				adj[id] = append(adj[id], e.PredecessorID)
			}
		}
		for _, child := range g.Children(id) {
			if inSet[child] {
				adj[id] = append(adj[id], child)
			}
		}
	}

	failed := make(map[string]bool)
	for _, cycle := range FindCycles(nodes, adj) {
		result.Failures = append(result.Failures, Failure{
			IDs:    cycle,
			Reason: ReasonCyclicDependency,
			Err:    domain.NewCyclicDependencyError(cycle),
		})
		for _, id := range cycle {
			failed[id] = true
		}
	}

	var acyclic []string
	for _, id := range nodes {
		if !failed[id] {
			acyclic = append(acyclic, id)
		}
	}

	work := make(map[string]*domain.WorkItem, len(acyclic))
	current := func(id string) *domain.WorkItem {
		if w, ok := work[id]; ok {
			return w
		}
		w, _ := g.Item(id)
		return w
	}

	for _, id := range TopoSort(acyclic, adj) {
		orig, _ := g.Item(id)
		next := orig.Clone()
		c.schedule(g, next, current)
		work[id] = next
		result.Visited = append(result.Visited, id)

		changed := !domain.DatesEqual(orig.StartDate, next.StartDate) ||
			!domain.DatesEqual(orig.DueDate, next.DueDate)
		if !changed {
			continue
		}
		result.Items[id] = ItemChange{
			ID:          id,
			OldStart:    orig.StartDate,
			OldDue:      orig.DueDate,
			NewStart:    next.StartDate,
			NewDue:      next.DueDate,
			NewDuration: next.Duration,
			Changed:     true,
			Item:        next,
		}
		result.Order = append(result.Order, id)
	}
	return result
}

// schedule derives w's dates in place. Parents take the span of their
// children; items with predecessors start after the latest of them; other
// items keep their dates.
func (c *Calculator) schedule(g *graph.Graph, w *domain.WorkItem, current func(string) *domain.WorkItem) {
	days := c.cal.ForItem(w.IgnoreNonWorkingDays)

	if g.HasChildren(w.ID) {
		c.spanChildren(g, w, days, current)
		return
	}

	start, ok := soonestStart(g.PredecessorsForScheduling(w.ID), days, current)
	if !ok {
		return
	}
	RescheduleFrom(w, start, days, days)
}

func (c *Calculator) spanChildren(g *graph.Graph, w *domain.WorkItem, days calendar.Days, current func(string) *domain.WorkItem) {
	var minStart, maxDue *time.Time
	for _, id := range g.Children(w.ID) {
		child := current(id)
		if child == nil {
			continue
		}
		if s := firstDate(child.StartDate, child.DueDate); s != nil && (minStart == nil || s.Before(*minStart)) {
			minStart = s
		}
		if d := firstDate(child.DueDate, child.StartDate); d != nil && (maxDue == nil || d.After(*maxDue)) {
			maxDue = d
		}
	}
	if minStart == nil {
		return
	}
	start, due := *minStart, *maxDue
	w.StartDate = &start
	w.DueDate = &due
	dur := days.CountWorkingDays(start, due)
	w.Duration = &dur
}

// soonestStart returns the earliest start allowed by the predecessors:
// the latest Advance(predEnd, 1+lag). Predecessors without dates are skipped.
func soonestStart(preds []graph.Edge, days calendar.Days, current func(string) *domain.WorkItem) (time.Time, bool) {
	var best time.Time
	found := false
	for _, e := range preds {
		p := current(e.PredecessorID)
		if p == nil {
			continue
		}
		end := firstDate(p.DueDate, p.StartDate)
		if end == nil {
			continue
		}
		candidate := days.SoonestWorkingDay(days.Advance(*end, 1+e.Lag))
		if !found || candidate.After(best) {
			best, found = candidate, true
		}
	}
	return best, found
}

// RescheduleFrom moves w to start (snapped to a working day) and derives its
// due date from its duration. A missing duration is derived from the current
// dates using durationDays. Without a duration and a due date only the start
// moves.
func RescheduleFrom(w *domain.WorkItem, start time.Time, days, durationDays calendar.Days) {
	start = days.SoonestWorkingDay(start)

	dur := w.Duration
	if dur == nil && w.StartDate != nil && w.DueDate != nil {
		n := durationDays.CountWorkingDays(*w.StartDate, *w.DueDate)
		dur = &n
	}

	w.StartDate = &start
	if dur == nil {
		return
	}
	n := max(*dur, 1)
	due := days.Advance(start, n-1)
	w.DueDate = &due
	w.Duration = &n
}

func firstDate(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}
