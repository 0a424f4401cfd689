package domain

import "time"

// CausedBy is the journal tag attached to every scheduler-derived write so
// history views can attribute the change.
type CausedBy struct {
	Type        CauseType   `json:"type"`
	UserID      string      `json:"user_id,omitempty"`
	WorkItemID  string      `json:"work_item_id,omitempty"`
	RelationID  string      `json:"relation_id,omitempty"`
	ChangedDays []time.Time `json:"changed_days,omitempty"`
	// ChangedWeekdays lists weekdays whose working flag flipped.
	ChangedWeekdays []time.Weekday `json:"changed_weekdays,omitempty"`
}

// JournalEntry records one scheduler-derived date change.
type JournalEntry struct {
	ID         int64      `json:"id,omitempty"`
	WorkItemID string     `json:"work_item_id"`
	Cause      CausedBy   `json:"cause"`
	OldStart   *time.Time `json:"old_start,omitempty"`
	OldDue     *time.Time `json:"old_due,omitempty"`
	NewStart   *time.Time `json:"new_start,omitempty"`
	NewDue     *time.Time `json:"new_due,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
