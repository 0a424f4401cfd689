package scheduler

import "github.com/alexanderramin/cadence/internal/domain"

// SwitchContext describes a follows relation being written.
type SwitchContext struct {
	// Creating is true only when the relation is being created, not updated.
	Creating bool
	// Successor is the item that would start after the predecessor.
	Successor *domain.WorkItem
	// SuccessorHasChildren reports whether the successor currently has children.
	SuccessorHasChildren bool
	// ExistingFromPredecessor counts follows relations already linking the
	// successor to the same predecessor.
	ExistingFromPredecessor int
}

// ShouldAutoSwitch reports whether a manually scheduled successor should be
// flipped to automatic when a follows relation is created. It applies once,
// on creation, to a childless successor receiving its first follows
// relation from that predecessor.
func ShouldAutoSwitch(c SwitchContext) bool {
	if !c.Creating || c.Successor == nil {
		return false
	}
	if c.Successor.IsAutomatic() {
		return false
	}
	return !c.SuccessorHasChildren && c.ExistingFromPredecessor == 0
}
