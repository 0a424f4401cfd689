package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/google/uuid"
)

// Converted holds domain objects ready for persistence. WorkItems are
// ordered parents first.
type Converted struct {
	WorkItems       []*domain.WorkItem
	Relations       []domain.Relation
	Weekdays        *domain.WeekdaySet
	NonWorkingDates []domain.NonWorkingDate
	// RefToID maps file refs to generated ids.
	RefToID map[string]string
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*Converted, error) {
	now := time.Now().UTC()
	out := &Converted{RefToID: make(map[string]string, len(schema.WorkItems))}

	if c := schema.Calendar; c != nil {
		if len(c.WorkingDays) > 0 {
			days, err := domain.ParseWeekdays(c.WorkingDays)
			if err != nil {
				return nil, fmt.Errorf("parsing working_days: %w", err)
			}
			out.Weekdays = &days
		}
		for _, d := range c.NonWorkingDates {
			date, err := domain.ParseDate(d.Date)
			if err != nil {
				return nil, fmt.Errorf("parsing non-working date: %w", err)
			}
			out.NonWorkingDates = append(out.NonWorkingDates, domain.NonWorkingDate{Date: date, Reason: d.Reason})
		}
	}

	for _, wi := range schema.WorkItems {
		out.RefToID[wi.Ref] = uuid.New().String()
	}

	var defaults DefaultsImport
	if schema.Defaults != nil {
		defaults = *schema.Defaults
	}

	byRef := make(map[string]*domain.WorkItem, len(schema.WorkItems))
	for _, wi := range schema.WorkItems {
		start, err := parseOptional(wi.StartDate)
		if err != nil {
			return nil, fmt.Errorf("work item %q: parsing start_date: %w", wi.Ref, err)
		}
		due, err := parseOptional(wi.DueDate)
		if err != nil {
			return nil, fmt.Errorf("work item %q: parsing due_date: %w", wi.Ref, err)
		}
		mode := domain.ScheduleMode(domain.CoalesceStr(wi.ScheduleMode, defaults.ScheduleMode, string(domain.ScheduleManual)))
		var duration *int
		if wi.Duration != nil || defaults.Duration != nil {
			duration = domain.IntPtr(domain.IntFromPtrWithDefault(0, wi.Duration, defaults.Duration))
		}

		w := &domain.WorkItem{
			ID:                   out.RefToID[wi.Ref],
			Subject:              wi.Subject,
			StartDate:            start,
			DueDate:              due,
			Duration:             duration,
			ScheduleMode:         mode,
			IgnoreNonWorkingDays: domain.BoolFromPtrWithDefault(false, wi.IgnoreNonWorkingDays, defaults.IgnoreNonWorkingDays),
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if wi.ParentRef != nil && *wi.ParentRef != "" {
			if pid, ok := out.RefToID[*wi.ParentRef]; ok {
				w.ParentID = &pid
			}
		}
		byRef[wi.Ref] = w
	}
	out.WorkItems = parentsFirst(schema.WorkItems, byRef)

	for _, r := range schema.Relations {
		rel := domain.Relation{
			ID:        uuid.New().String(),
			Type:      domain.RelationType(r.Type),
			FromID:    out.RefToID[r.From],
			ToID:      out.RefToID[r.To],
			Lag:       r.Lag,
			CreatedAt: now,
		}
		out.Relations = append(out.Relations, rel.Normalize())
	}
	return out, nil
}

// parentsFirst orders items so every parent precedes its children, keeping
// file order otherwise.
func parentsFirst(items []WorkItemImport, byRef map[string]*domain.WorkItem) []*domain.WorkItem {
	placed := make(map[string]bool, len(items))
	out := make([]*domain.WorkItem, 0, len(items))
	var place func(ref string)
	place = func(ref string) {
		if placed[ref] {
			return
		}
		placed[ref] = true
		for _, wi := range items {
			if wi.Ref == ref && wi.ParentRef != nil {
				if _, ok := byRef[*wi.ParentRef]; ok {
					place(*wi.ParentRef)
				}
				break
			}
		}
		out = append(out, byRef[ref])
	}
	for _, wi := range items {
		place(wi.Ref)
	}
	return out
}

func parseOptional(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
