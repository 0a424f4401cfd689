package repository

import (
	"context"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/graph"
)

// GraphStore adapts the work item and relation repositories to graph.Store.
type GraphStore struct {
	items     WorkItemRepo
	relations RelationRepo
}

var _ graph.Store = (*GraphStore)(nil)

func NewGraphStore(items WorkItemRepo, relations RelationRepo) *GraphStore {
	return &GraphStore{items: items, relations: relations}
}

func (s *GraphStore) LoadWorkItems(ctx context.Context, ids []string) ([]*domain.WorkItem, error) {
	return s.items.GetMany(ctx, ids)
}

func (s *GraphStore) LoadRelationsFor(ctx context.Context, ids []string) ([]domain.Relation, error) {
	return s.relations.ListFor(ctx, ids)
}

func (s *GraphStore) LoadChildren(ctx context.Context, parentIDs []string) ([]*domain.WorkItem, error) {
	return s.items.ListChildren(ctx, parentIDs)
}
