package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateCalendar(schema.Calendar)...)
	errs = append(errs, validateDefaults(schema.Defaults)...)

	refs := make(map[string]*WorkItemImport)
	errs = append(errs, validateWorkItems(schema.WorkItems, refs)...)
	errs = append(errs, validateHierarchy(schema.WorkItems, refs)...)
	errs = append(errs, validateRelations(schema.Relations, refs)...)

	return errs
}

func validateCalendar(c *CalendarImport) []error {
	if c == nil {
		return nil
	}
	var errs []error

	if len(c.WorkingDays) > 0 {
		days, err := domain.ParseWeekdays(c.WorkingDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("calendar.working_days: %w", err))
		} else if days.Empty() {
			errs = append(errs, fmt.Errorf("calendar.working_days: at least one weekday must be working"))
		}
	}
	seen := make(map[string]bool)
	for i, d := range c.NonWorkingDates {
		prefix := fmt.Sprintf("calendar.non_working_dates[%d]", i)
		if _, err := domain.ParseDate(d.Date); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", prefix, d.Date))
			continue
		}
		if seen[d.Date] {
			errs = append(errs, fmt.Errorf("%s: duplicate date %q", prefix, d.Date))
		}
		seen[d.Date] = true
	}
	return errs
}

func validateDefaults(d *DefaultsImport) []error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.ScheduleMode != "" && !domain.ScheduleMode(d.ScheduleMode).Valid() {
		errs = append(errs, fmt.Errorf("defaults.schedule_mode: invalid value %q", d.ScheduleMode))
	}
	if d.Duration != nil && *d.Duration < 1 {
		errs = append(errs, fmt.Errorf("defaults.duration must be at least 1"))
	}
	return errs
}

func validateWorkItems(items []WorkItemImport, refs map[string]*WorkItemImport) []error {
	var errs []error

	if len(items) == 0 {
		errs = append(errs, fmt.Errorf("work_items: at least one work item is required"))
	}
	for i := range items {
		wi := &items[i]
		prefix := fmt.Sprintf("work_items[%d]", i)
		if wi.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[wi.Ref] != nil {
			errs = append(errs, fmt.Errorf("%s.ref %q is duplicated", prefix, wi.Ref))
		} else {
			refs[wi.Ref] = wi
		}
		if strings.TrimSpace(wi.Subject) == "" {
			errs = append(errs, fmt.Errorf("%s.subject is required", prefix))
		}
		if wi.ScheduleMode != "" && !domain.ScheduleMode(wi.ScheduleMode).Valid() {
			errs = append(errs, fmt.Errorf("%s.schedule_mode: invalid value %q", prefix, wi.ScheduleMode))
		}
		if wi.Duration != nil && *wi.Duration < 1 {
			errs = append(errs, fmt.Errorf("%s.duration must be at least 1", prefix))
		}

		start, startErr := parseOptional(wi.StartDate)
		if startErr != nil {
			errs = append(errs, fmt.Errorf("%s.start_date: invalid date format %q (expected YYYY-MM-DD)", prefix, *wi.StartDate))
		}
		due, dueErr := parseOptional(wi.DueDate)
		if dueErr != nil {
			errs = append(errs, fmt.Errorf("%s.due_date: invalid date format %q (expected YYYY-MM-DD)", prefix, *wi.DueDate))
		}
		if start != nil && due != nil && due.Before(*start) {
			errs = append(errs, fmt.Errorf("%s.due_date %q must not be before start_date %q", prefix, *wi.DueDate, *wi.StartDate))
		}
	}
	return errs
}

func validateHierarchy(items []WorkItemImport, refs map[string]*WorkItemImport) []error {
	var errs []error

	for i, wi := range items {
		if wi.ParentRef == nil || *wi.ParentRef == "" {
			continue
		}
		if *wi.ParentRef == wi.Ref {
			errs = append(errs, fmt.Errorf("work_items[%d].parent_ref: %q cannot be its own parent", i, wi.Ref))
			continue
		}
		if refs[*wi.ParentRef] == nil {
			errs = append(errs, fmt.Errorf("work_items[%d].parent_ref: unknown work item ref %q", i, *wi.ParentRef))
		}
	}

	reported := make(map[string]bool)
	for _, wi := range items {
		seen := map[string]bool{wi.Ref: true}
		for cur := refs[wi.Ref]; cur != nil && cur.ParentRef != nil; cur = refs[*cur.ParentRef] {
			if seen[*cur.ParentRef] {
				if !reported[*cur.ParentRef] {
					reported[*cur.ParentRef] = true
					errs = append(errs, fmt.Errorf("work_items: parent cycle through %q", *cur.ParentRef))
				}
				break
			}
			seen[*cur.ParentRef] = true
		}
	}
	return errs
}

func validateRelations(rels []RelationImport, refs map[string]*WorkItemImport) []error {
	var errs []error

	adj := make(map[string][]string)
	pairs := make(map[[2]string]bool)
	for i, r := range rels {
		prefix := fmt.Sprintf("relations[%d]", i)
		t := domain.RelationType(r.Type)
		if t != domain.RelationFollows && t != domain.RelationPrecedes {
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q (expected follows or precedes)", prefix, r.Type))
			continue
		}
		if refs[r.From] == nil {
			errs = append(errs, fmt.Errorf("%s.from: unknown work item ref %q", prefix, r.From))
		}
		if refs[r.To] == nil {
			errs = append(errs, fmt.Errorf("%s.to: unknown work item ref %q", prefix, r.To))
		}
		if r.From == r.To {
			errs = append(errs, fmt.Errorf("%s: a work item cannot relate to itself", prefix))
			continue
		}
		if r.Lag < 0 {
			errs = append(errs, fmt.Errorf("%s.lag must be >= 0", prefix))
		}
		if refs[r.From] == nil || refs[r.To] == nil {
			continue
		}

		n := domain.Relation{Type: t, FromID: r.From, ToID: r.To}.Normalize()
		key := [2]string{n.FromID, n.ToID}
		if pairs[key] {
			errs = append(errs, fmt.Errorf("%s: %q already follows %q", prefix, n.FromID, n.ToID))
			continue
		}
		pairs[key] = true
		if isAncestor(refs, n.FromID, n.ToID) || isAncestor(refs, n.ToID, n.FromID) {
			errs = append(errs, fmt.Errorf("%s: %q and %q are in the same ancestry line", prefix, r.From, r.To))
		}
		adj[n.FromID] = append(adj[n.FromID], n.ToID)
	}

	nodes := make([]string, 0, len(refs))
	for ref := range refs {
		nodes = append(nodes, ref)
	}
	sort.Strings(nodes)
	for _, cycle := range scheduler.FindCycles(nodes, adj) {
		errs = append(errs, fmt.Errorf("relations: %w", domain.NewCyclicDependencyError(cycle)))
	}
	return errs
}

// isAncestor reports whether ancestor is above ref in the parent chain.
func isAncestor(refs map[string]*WorkItemImport, ancestor, ref string) bool {
	seen := make(map[string]bool)
	for cur := refs[ref]; cur != nil && cur.ParentRef != nil && !seen[cur.Ref]; cur = refs[*cur.ParentRef] {
		seen[cur.Ref] = true
		if *cur.ParentRef == ancestor {
			return true
		}
	}
	return false
}
