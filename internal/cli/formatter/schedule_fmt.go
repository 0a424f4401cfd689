package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/app"
)

// FormatScheduleResponse renders the changes and failures of a scheduling
// pass. Nothing is printed for a pass that changed nothing and failed nothing.
func FormatScheduleResponse(resp *app.ScheduleResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder

	if len(resp.Changes) > 0 {
		rows := make([][]string, 0, len(resp.Changes))
		for _, c := range resp.Changes {
			rows = append(rows, []string{
				TruncID(c.ID),
				c.Subject,
				FormatDateChange(c.OldStart, c.OldDue, c.NewStart, c.NewDue),
			})
		}
		b.WriteString(RenderTable([]string{"ID", "SUBJECT", "DATES"}, rows))
	}

	for _, f := range resp.Failures {
		b.WriteString(StyleRed.Render("✖ "+failureText(f)) + "\n")
	}
	for _, f := range resp.DependentFailures {
		b.WriteString(StyleYellow.Render("! "+failureText(f)) + "\n")
	}
	return b.String()
}

// FormatOutcome renders an applied scheduling pass, including items that
// could not be saved.
func FormatOutcome(o *app.ScheduleOutcome) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(FormatScheduleResponse(o.Schedule))
	if o.Applied != nil {
		for _, f := range o.Applied.Failures {
			b.WriteString(StyleRed.Render("✖ not saved: "+f.Error()) + "\n")
		}
		if o.Applied.JournalErr != nil {
			b.WriteString(StyleYellow.Render("! history not recorded: "+o.Applied.JournalErr.Error()) + "\n")
		}
	}
	return b.String()
}

// FormatPropagation summarises a working-days propagation run.
func FormatPropagation(res *app.WorkingDaysChangeResult) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %d rescheduled\n", Dim("run "+res.RunID), len(res.Rescheduled)))
	if res.Dependents != nil {
		b.WriteString(FormatScheduleResponse(res.Dependents))
	}
	for _, f := range res.Failures {
		b.WriteString(StyleRed.Render("✖ not saved: "+f.Error()) + "\n")
	}
	return b.String()
}

func failureText(f app.ScheduleFailure) string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Reason, strings.Join(f.IDs, ", "))
}
