package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
)

// FormatWorkItem renders the detail view of one work item.
func FormatWorkItem(w *domain.WorkItem, children []*domain.WorkItem) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(w.Subject), TruncID(w.ID)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("MODE    "), ModePill(w.ScheduleMode)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("START   "), FormatDate(w.StartDate)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("DUE     "), FormatDate(w.DueDate)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("DURATION"), FormatDuration(w.Duration)))
	if w.ParentID != nil {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("PARENT  "), *w.ParentID))
	}
	if w.IgnoreNonWorkingDays {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim("CALENDAR"), StyleYellow.Render("ignores non-working days")))
	}
	if len(children) > 0 {
		b.WriteString(fmt.Sprintf("  %s  %d\n", Dim("CHILDREN"), len(children)))
	}
	b.WriteString(fmt.Sprintf("  %s  v%d", Dim("VERSION "), w.LockVersion))

	return RenderBox("Work Item", b.String())
}

// FormatWorkItemTable renders work items as a flat table.
func FormatWorkItemTable(items []*domain.WorkItem) string {
	if len(items) == 0 {
		return Dim("No work items.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, w := range items {
		parent := Dim("--")
		if w.ParentID != nil {
			parent = TruncID(*w.ParentID)
		}
		rows = append(rows, []string{
			TruncID(w.ID),
			w.Subject,
			ModePill(w.ScheduleMode),
			FormatDate(w.StartDate),
			FormatDate(w.DueDate),
			FormatDuration(w.Duration),
			parent,
		})
	}
	return RenderTable([]string{"ID", "SUBJECT", "MODE", "START", "DUE", "DURATION", "PARENT"}, rows)
}

// BuildItemTree orders items by hierarchy, parents first. Items whose parent
// is not in the list are treated as roots.
func BuildItemTree(items []*domain.WorkItem) []TreeItem {
	present := make(map[string]bool, len(items))
	for _, w := range items {
		present[w.ID] = true
	}
	children := make(map[string][]*domain.WorkItem)
	var roots []*domain.WorkItem
	for _, w := range items {
		if w.ParentID != nil && present[*w.ParentID] {
			children[*w.ParentID] = append(children[*w.ParentID], w)
			continue
		}
		roots = append(roots, w)
	}

	var out []TreeItem
	var walk func(list []*domain.WorkItem, level int)
	walk = func(list []*domain.WorkItem, level int) {
		for i, w := range list {
			out = append(out, TreeItem{
				Title:     w.Subject,
				Level:     level,
				IsLast:    i == len(list)-1,
				Automatic: w.IsAutomatic(),
				Detail:    FormatSpan(w.StartDate, w.DueDate),
			})
			walk(children[w.ID], level+1)
		}
	}
	walk(roots, 0)
	return out
}

// FormatRelationTable renders follows relations with subjects resolved from
// names where available.
func FormatRelationTable(rels []domain.Relation, names map[string]string) string {
	if len(rels) == 0 {
		return Dim("No relations.") + "\n"
	}
	label := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return TruncID(id)
	}
	rows := make([][]string, 0, len(rels))
	for _, r := range rels {
		rows = append(rows, []string{
			Dim(r.ID),
			label(r.SuccessorID()),
			Dim("follows"),
			label(r.PredecessorID()),
			fmt.Sprintf("%d", r.Lag),
		})
	}
	return RenderTable([]string{"ID", "SUCCESSOR", "", "PREDECESSOR", "LAG"}, rows)
}
