package app

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

type ScheduleRequest struct {
	// Origins are the work items whose dates, relations or children changed.
	Origins  []string
	CausedBy domain.CausedBy
	// Relevant names the items whose cyclic failures fail the call.
	// Defaults to Origins.
	Relevant []string
}

func NewScheduleRequest(cause domain.CausedBy, origins ...string) ScheduleRequest {
	return ScheduleRequest{Origins: origins, CausedBy: cause}
}

// ItemSchedule is the recomputed schedule of one changed work item.
type ItemSchedule struct {
	ID          string
	Subject     string
	OldStart    *time.Time
	OldDue      *time.Time
	NewStart    *time.Time
	NewDue      *time.Time
	NewDuration *int
	// Item carries the new dates and is what Apply hands to persistence.
	Item *domain.WorkItem
}

type FailureReason string

const (
	FailureCyclicDependency FailureReason = "cyclic_dependency"
)

// ScheduleFailure names items the calculator could not schedule.
type ScheduleFailure struct {
	IDs     []string
	Reason  FailureReason
	Message string
}

type ScheduleResponse struct {
	GeneratedAt time.Time
	CausedBy    domain.CausedBy
	// Success is false only when a cyclic failure touches a relevant item.
	Success bool
	// Changes lists changed items, predecessors and children first.
	Changes []ItemSchedule
	// Failures touch relevant items; DependentFailures are elsewhere in
	// the closure and do not fail the call.
	Failures          []ScheduleFailure
	DependentFailures []ScheduleFailure
	// VisitedCount is the number of automatic items the pass computed.
	VisitedCount int
}

// ChangedIDs returns the ids of changed items in dependency order.
func (r *ScheduleResponse) ChangedIDs() []string {
	ids := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		ids = append(ids, c.ID)
	}
	return ids
}

// ApplyResult reports which changed items were persisted. Saved items are
// never rolled back when others fail.
type ApplyResult struct {
	Saved    []string
	Failures []*domain.PersistenceFailure
	// JournalErr is set when the saved changes could not be journaled.
	JournalErr error
}

// AllSaved reports whether every changed item was persisted.
func (r *ApplyResult) AllSaved() bool {
	return len(r.Failures) == 0
}

type ScheduleErrorCode string

const (
	ScheduleErrInvalidRequest      ScheduleErrorCode = "INVALID_REQUEST"
	ScheduleErrNotFound            ScheduleErrorCode = "NOT_FOUND"
	ScheduleErrCalendarUnavailable ScheduleErrorCode = "CALENDAR_UNAVAILABLE"
	ScheduleErrGraphUnavailable    ScheduleErrorCode = "RELATION_GRAPH_UNAVAILABLE"
	ScheduleErrCyclicDependency    ScheduleErrorCode = "CYCLIC_DEPENDENCY"
	ScheduleErrInternal            ScheduleErrorCode = "INTERNAL_ERROR"
)

type ScheduleError struct {
	Code    ScheduleErrorCode
	Message string
	Err     error
}

func (e *ScheduleError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// ScheduleOutcome is a scheduling pass that has been applied.
type ScheduleOutcome struct {
	Schedule *ScheduleResponse
	Applied  *ApplyResult
}
