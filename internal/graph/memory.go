package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alexanderramin/cadence/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and import dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]*domain.WorkItem
	relations []domain.Relation
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*domain.WorkItem)}
}

// Put stores a copy of the item.
func (m *MemoryStore) Put(items ...*domain.WorkItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range items {
		m.items[w.ID] = w.Clone()
	}
}

// Relate stores relations. parent_child relations update the child's parent.
func (m *MemoryStore) Relate(rels ...domain.Relation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rels {
		if r.Type == domain.RelationParentChild {
			if child, ok := m.items[r.ToID]; ok {
				parent := r.FromID
				child.ParentID = &parent
			}
			continue
		}
		m.relations = append(m.relations, r)
	}
}

// SaveBatch stores copies of items that already exist. Unknown items are
// reported as failures without affecting the others.
func (m *MemoryStore) SaveBatch(_ context.Context, items []*domain.WorkItem) []*domain.PersistenceFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failures []*domain.PersistenceFailure
	for _, w := range items {
		if _, ok := m.items[w.ID]; !ok {
			failures = append(failures, &domain.PersistenceFailure{
				ItemID: w.ID,
				Err:    fmt.Errorf("work item: %w", domain.ErrNotFound),
			})
			continue
		}
		m.items[w.ID] = w.Clone()
	}
	return failures
}

// Get returns a copy of the stored item.
func (m *MemoryStore) Get(id string) (*domain.WorkItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.items[id]
	if !ok {
		return nil, false
	}
	return w.Clone(), true
}

func (m *MemoryStore) LoadWorkItems(_ context.Context, ids []string) ([]*domain.WorkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WorkItem
	for _, id := range ids {
		if w, ok := m.items[id]; ok {
			out = append(out, w.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) LoadRelationsFor(_ context.Context, ids []string) ([]domain.Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Relation
	for _, r := range m.relations {
		if want[r.FromID] || want[r.ToID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) LoadChildren(_ context.Context, parentIDs []string) ([]*domain.WorkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		want[id] = true
	}
	var out []*domain.WorkItem
	for _, w := range m.items {
		if w.ParentID != nil && want[*w.ParentID] {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
