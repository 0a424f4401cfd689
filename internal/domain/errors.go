package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrStaleObject              = errors.New("work item was modified concurrently")
	ErrInvalidRelation          = errors.New("invalid relation")
	ErrCyclicDependency         = errors.New("cyclic dependency")
	ErrCalendarUnavailable      = errors.New("working-day calendar unavailable")
	ErrRelationGraphUnavailable = errors.New("relation graph unavailable")
	ErrConcurrencyLimitReached  = errors.New("concurrency limit reached")
)

// CyclicDependencyError names the work items forming one follows cycle.
type CyclicDependencyError struct {
	IDs []string
}

func NewCyclicDependencyError(ids []string) *CyclicDependencyError {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return &CyclicDependencyError{IDs: sorted}
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency between %s", strings.Join(e.IDs, ", "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// PersistenceFailure records a single work item that could not be saved.
type PersistenceFailure struct {
	ItemID string
	Err    error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("saving work item %s: %v", e.ItemID, e.Err)
}

func (e *PersistenceFailure) Unwrap() error {
	return e.Err
}
