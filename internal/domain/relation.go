package domain

import (
	"fmt"
	"time"
)

// Relation is an edge in the shared scheduling graph. For follows relations
// FromID is the successor and ToID the predecessor; for parent_child relations
// FromID is the parent and ToID the child.
type Relation struct {
	ID        string
	Type      RelationType
	FromID    string
	ToID      string
	Lag       int
	CreatedAt time.Time
}

// Normalize rewrites a precedes relation into the equivalent follows relation.
func (r Relation) Normalize() Relation {
	if r.Type == RelationPrecedes {
		r.Type = RelationFollows
		r.FromID, r.ToID = r.ToID, r.FromID
	}
	return r
}

// PredecessorID returns the predecessor of a follows/precedes relation.
func (r Relation) PredecessorID() string {
	return r.Normalize().ToID
}

// SuccessorID returns the successor of a follows/precedes relation.
func (r Relation) SuccessorID() string {
	return r.Normalize().FromID
}

// IsScheduling reports whether the relation orders dates (follows/precedes).
func (r Relation) IsScheduling() bool {
	return r.Type == RelationFollows || r.Type == RelationPrecedes
}

// Validate checks structural constraints that do not need the graph.
func (r Relation) Validate() error {
	if !ValidRelationTypes[string(r.Type)] {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRelation, r.Type)
	}
	if r.FromID == "" || r.ToID == "" {
		return fmt.Errorf("%w: both endpoints are required", ErrInvalidRelation)
	}
	if r.FromID == r.ToID {
		return fmt.Errorf("%w: a work item cannot relate to itself", ErrInvalidRelation)
	}
	if r.Lag < 0 {
		return fmt.Errorf("%w: lag must be >= 0, got %d", ErrInvalidRelation, r.Lag)
	}
	if r.Type == RelationParentChild && r.Lag != 0 {
		return fmt.Errorf("%w: parent_child relations carry no lag", ErrInvalidRelation)
	}
	return nil
}
