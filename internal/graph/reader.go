package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Store is the persistence collaborator the Reader loads from.
type Store interface {
	// LoadWorkItems returns the items that exist among ids.
	LoadWorkItems(ctx context.Context, ids []string) ([]*domain.WorkItem, error)
	// LoadRelationsFor returns every relation with either endpoint in ids.
	LoadRelationsFor(ctx context.Context, ids []string) ([]domain.Relation, error)
	// LoadChildren returns the direct children of the given parents.
	LoadChildren(ctx context.Context, parentIDs []string) ([]*domain.WorkItem, error)
}

// Reader fetches the scheduling closure of a set of origins in one pass.
type Reader struct {
	store Store
}

func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// Fetch loads the origins, every item in their closure and the read-only
// context the calculator needs: predecessors, children and ancestors with
// their predecessors. Any store failure aborts the fetch and is reported as
// domain.ErrRelationGraphUnavailable; a missing origin is domain.ErrNotFound.
func (r *Reader) Fetch(ctx context.Context, origins []string) (*Graph, error) {
	f := &fetch{
		ctx:        ctx,
		store:      r.store,
		g:          New(),
		expanded:   make(map[string]bool),
		relsLoaded: make(map[string]bool),
		kidsLoaded: make(map[string]bool),
		requested:  make(map[string]bool),
	}

	if err := f.loadItems(origins); err != nil {
		return nil, err
	}
	for _, id := range origins {
		if !f.g.Has(id) {
			return nil, fmt.Errorf("work item %s: %w", id, domain.ErrNotFound)
		}
	}

	for {
		var pending []string
		for _, id := range f.g.Closure(origins) {
			if !f.expanded[id] {
				pending = append(pending, id)
			}
		}
		if len(pending) == 0 {
			return f.g, nil
		}
		if err := f.expand(pending); err != nil {
			return nil, err
		}
	}
}

type fetch struct {
	ctx   context.Context
	store Store
	g     *Graph

	expanded   map[string]bool
	relsLoaded map[string]bool
	kidsLoaded map[string]bool
	requested  map[string]bool
}

func (f *fetch) expand(ids []string) error {
	for _, id := range ids {
		f.expanded[id] = true
	}
	if err := f.loadRelations(ids); err != nil {
		return err
	}

	var parents []string
	for _, id := range ids {
		if !f.kidsLoaded[id] {
			f.kidsLoaded[id] = true
			parents = append(parents, id)
		}
	}
	if len(parents) > 0 {
		kids, err := f.store.LoadChildren(f.ctx, parents)
		if err != nil {
			return unavailable("loading children", err)
		}
		for _, k := range kids {
			f.add(k)
		}
	}

	ancestors, err := f.loadAncestors(ids)
	if err != nil {
		return err
	}
	if err := f.loadRelations(ancestors); err != nil {
		return err
	}
	return f.loadEndpoints()
}

// loadAncestors walks parent links upward until every chain reaches a root
// and returns the ancestor ids seen.
func (f *fetch) loadAncestors(ids []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	frontier := ids
	for len(frontier) > 0 {
		var missing, next []string
		for _, id := range frontier {
			p, ok := f.g.Parent(id)
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			next = append(next, p)
			if !f.g.Has(p) {
				missing = append(missing, p)
			}
		}
		if err := f.loadItems(missing); err != nil {
			return nil, err
		}
		frontier = next
	}
	sort.Strings(out)
	return out, nil
}

func (f *fetch) loadRelations(ids []string) error {
	var todo []string
	for _, id := range ids {
		if !f.relsLoaded[id] {
			f.relsLoaded[id] = true
			todo = append(todo, id)
		}
	}
	if len(todo) == 0 {
		return nil
	}
	rels, err := f.store.LoadRelationsFor(f.ctx, todo)
	if err != nil {
		return unavailable("loading relations", err)
	}
	for _, rel := range rels {
		f.g.AddRelation(rel)
	}
	return nil
}

// loadEndpoints loads every item referenced by a loaded edge or hierarchy
// link that is not in the graph yet.
func (f *fetch) loadEndpoints() error {
	var missing []string
	want := func(id string) {
		if id != "" && !f.g.Has(id) && !f.requested[id] {
			missing = append(missing, id)
		}
	}
	for _, edges := range f.g.preds {
		for _, e := range edges {
			want(e.PredecessorID)
			want(e.SuccessorID)
		}
	}
	for child, parent := range f.g.parent {
		want(child)
		want(parent)
	}
	sort.Strings(missing)
	return f.loadItems(dedupe(missing))
}

func (f *fetch) loadItems(ids []string) error {
	var todo []string
	for _, id := range ids {
		if !f.requested[id] && !f.g.Has(id) {
			f.requested[id] = true
			todo = append(todo, id)
		}
	}
	if len(todo) == 0 {
		return nil
	}
	items, err := f.store.LoadWorkItems(f.ctx, todo)
	if err != nil {
		return unavailable("loading work items", err)
	}
	for _, w := range items {
		f.add(w)
	}
	return nil
}

func (f *fetch) add(w *domain.WorkItem) {
	if !f.g.Has(w.ID) {
		f.g.AddItem(w)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRelationGraphUnavailable, err)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
