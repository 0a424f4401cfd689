package formatter

import (
	"strings"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
)

// FormatCalendar renders the working weekdays and the non-working dates.
func FormatCalendar(cal *calendar.Calendar) string {
	var b strings.Builder
	b.WriteString(Header("Working days") + "\n")
	b.WriteString(Weekdays(cal.Weekdays()) + "\n\n")

	b.WriteString(Header("Non-working dates") + "\n")
	dates := cal.NonWorkingDates()
	if len(dates) == 0 {
		b.WriteString(Dim("none") + "\n")
		return b.String()
	}
	rows := make([][]string, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, []string{d.Date.Format("Mon " + domain.DateLayout), d.Reason})
	}
	b.WriteString(RenderTable([]string{"DATE", "REASON"}, rows))
	return b.String()
}

// FormatHistory renders the journal of scheduler-derived changes.
func FormatHistory(entries []domain.JournalEntry) string {
	if len(entries) == 0 {
		return Dim("No scheduling history.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		user := Dim("--")
		if e.Cause.UserID != "" {
			user = e.Cause.UserID
		}
		rows = append(rows, []string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			CausePill(e.Cause.Type),
			user,
			FormatDateChange(e.OldStart, e.OldDue, e.NewStart, e.NewDue),
		})
	}
	return RenderTable([]string{"WHEN", "CAUSE", "USER", "DATES"}, rows)
}
