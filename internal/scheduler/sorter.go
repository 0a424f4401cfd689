package scheduler

import "sort"

// TopoSort orders nodes so every node comes after the nodes it depends on.
// adj maps a node to its dependencies; dependencies outside nodes are
// ignored. Ties are broken by id so the order is deterministic. Nodes left
// on a cycle are omitted; callers remove cycles first with FindCycles.
func TopoSort(nodes []string, adj map[string][]string) []string {
	inSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		seen := make(map[string]bool)
		for _, d := range adj[n] {
			if !inSet[d] || seen[d] || d == n {
				continue
			}
			seen[d] = true
			indegree[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	var ready []string
	for n := range inSet {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		var released []string
		for _, m := range dependents[n] {
			indegree[m]--
			if indegree[m] == 0 {
				released = append(released, m)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}
	return order
}
