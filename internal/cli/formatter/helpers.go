package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		inner := StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content
		return boxStyle.Render(inner)
	}
	return boxStyle.Render(content)
}

// FormatDate renders an optional calendar day as "Mon 2006-01-02".
func FormatDate(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Format("Mon " + domain.DateLayout)
}

// FormatSpan renders start and due as "start → due".
func FormatSpan(start, due *time.Time) string {
	return FormatDate(start) + " → " + FormatDate(due)
}

// FormatDuration renders an optional working-day count.
func FormatDuration(d *int) string {
	if d == nil {
		return "--"
	}
	if *d == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", *d)
}

// FormatDateChange renders old and new spans, highlighting a move.
func FormatDateChange(oldStart, oldDue, newStart, newDue *time.Time) string {
	from := FormatSpan(oldStart, oldDue)
	to := FormatSpan(newStart, newDue)
	if from == to {
		return Dim(to)
	}
	return Dim(from) + "  ⇒  " + StyleYellow.Render(to)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Weekdays renders a weekday set as a seven-cell strip, working days lit.
func Weekdays(set domain.WeekdaySet) string {
	cells := make([]string, 0, 7)
	for _, d := range []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	} {
		name := d.String()[:3]
		if set[d] {
			cells = append(cells, StyleGreen.Render(name))
		} else {
			cells = append(cells, Dim(strings.ToLower(name)))
		}
	}
	return strings.Join(cells, " ")
}
