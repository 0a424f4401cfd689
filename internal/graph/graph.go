// Package graph holds the in-memory relation graph the scheduler computes
// over, and the Reader that loads it from storage once per pass.
package graph

import (
	"sort"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Edge is a normalised follows relation: Successor starts after Predecessor.
type Edge struct {
	RelationID    string
	PredecessorID string
	SuccessorID   string
	Lag           int
}

// Graph is a snapshot of work items, follows edges and the parent hierarchy.
// It is not safe for concurrent mutation.
type Graph struct {
	items    map[string]*domain.WorkItem
	preds    map[string][]Edge // successor -> incoming edges
	succs    map[string][]Edge // predecessor -> outgoing edges
	edgeKeys map[string]bool
	parent   map[string]string
	children map[string]map[string]bool
}

func New() *Graph {
	return &Graph{
		items:    make(map[string]*domain.WorkItem),
		preds:    make(map[string][]Edge),
		succs:    make(map[string][]Edge),
		edgeKeys: make(map[string]bool),
		parent:   make(map[string]string),
		children: make(map[string]map[string]bool),
	}
}

// AddItem stores a work item, replacing any previous version, and records
// its parent link.
func (g *Graph) AddItem(w *domain.WorkItem) {
	g.items[w.ID] = w
	if w.ParentID != nil && *w.ParentID != "" {
		g.link(*w.ParentID, w.ID)
	}
}

// AddRelation records a follows/precedes edge or a parent_child link.
// Duplicate relations are ignored.
func (g *Graph) AddRelation(r domain.Relation) {
	if r.Type == domain.RelationParentChild {
		g.link(r.FromID, r.ToID)
		return
	}
	if !r.IsScheduling() {
		return
	}
	n := r.Normalize()
	key := n.ID
	if key == "" {
		key = n.ToID + ">" + n.FromID
	}
	if g.edgeKeys[key] {
		return
	}
	g.edgeKeys[key] = true
	e := Edge{RelationID: n.ID, PredecessorID: n.ToID, SuccessorID: n.FromID, Lag: n.Lag}
	g.preds[e.SuccessorID] = append(g.preds[e.SuccessorID], e)
	g.succs[e.PredecessorID] = append(g.succs[e.PredecessorID], e)
}

func (g *Graph) link(parentID, childID string) {
	if old, ok := g.parent[childID]; ok && old != parentID {
		delete(g.children[old], childID)
	}
	g.parent[childID] = parentID
	if g.children[parentID] == nil {
		g.children[parentID] = make(map[string]bool)
	}
	g.children[parentID][childID] = true
}

// Item returns the loaded work item with the given id.
func (g *Graph) Item(id string) (*domain.WorkItem, bool) {
	w, ok := g.items[id]
	return w, ok
}

// Has reports whether the item is loaded.
func (g *Graph) Has(id string) bool {
	_, ok := g.items[id]
	return ok
}

// Len returns the number of loaded items.
func (g *Graph) Len() int {
	return len(g.items)
}

// IDs returns all loaded item ids, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.items))
	for id := range g.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parent returns the parent id, if any.
func (g *Graph) Parent(id string) (string, bool) {
	p, ok := g.parent[id]
	return p, ok
}

// Children returns the ids of the known children, sorted.
func (g *Graph) Children(id string) []string {
	set := g.children[id]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) HasChildren(id string) bool {
	return len(g.children[id]) > 0
}

// Successors returns the outgoing follows edges of id.
func (g *Graph) Successors(id string) []Edge {
	return sortedEdges(g.succs[id], func(e Edge) string { return e.SuccessorID })
}

// DirectPredecessors returns the incoming follows edges of id.
func (g *Graph) DirectPredecessors(id string) []Edge {
	return sortedEdges(g.preds[id], func(e Edge) string { return e.PredecessorID })
}

// PredecessorsForScheduling returns the direct predecessors of id plus the
// predecessors of each automatically scheduled ancestor. The walk stops at
// the first manually scheduled ancestor, which shields everything below it.
func (g *Graph) PredecessorsForScheduling(id string) []Edge {
	edges := append([]Edge(nil), g.preds[id]...)
	seen := map[string]bool{id: true}
	for cur := id; ; {
		p, ok := g.parent[cur]
		if !ok || seen[p] {
			break
		}
		seen[p] = true
		ancestor, loaded := g.items[p]
		if !loaded || !ancestor.IsAutomatic() {
			break
		}
		edges = append(edges, g.preds[p]...)
		cur = p
	}
	return sortedEdges(edges, func(e Edge) string { return e.PredecessorID })
}

// Ancestors returns the parent chain of id, nearest first.
func (g *Graph) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	for cur := id; ; {
		p, ok := g.parent[cur]
		if !ok || seen[p] {
			return out
		}
		seen[p] = true
		out = append(out, p)
		cur = p
	}
}

func sortedEdges(edges []Edge, key func(Edge) string) []Edge {
	out := append([]Edge(nil), edges...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i].RelationID < out[j].RelationID
	})
	return out
}
