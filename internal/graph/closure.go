package graph

import "sort"

// Closure returns the origins plus every automatically scheduled item
// reachable from them: forward along follows edges, up to parents, and down
// from automatic items to their children. Manually scheduled items other
// than the origins are boundaries and are not included.
func (g *Graph) Closure(origins []string) []string {
	seen := make(map[string]bool)
	var order, queue []string

	starts := append([]string(nil), origins...)
	sort.Strings(starts)
	for _, id := range starts {
		if !seen[id] && g.Has(id) {
			seen[id] = true
			order = append(order, id)
			queue = append(queue, id)
		}
	}

	visit := func(id string) {
		if seen[id] {
			return
		}
		w, ok := g.items[id]
		if !ok || !w.IsAutomatic() {
			return
		}
		seen[id] = true
		order = append(order, id)
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, e := range g.Successors(id) {
			visit(e.SuccessorID)
		}
		if p, ok := g.parent[id]; ok {
			visit(p)
		}
		if w := g.items[id]; w != nil && w.IsAutomatic() {
			for _, c := range g.Children(id) {
				visit(c)
			}
		}
	}
	return order
}

// InClosure is Closure as a set.
func (g *Graph) InClosure(origins []string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range g.Closure(origins) {
		set[id] = true
	}
	return set
}
