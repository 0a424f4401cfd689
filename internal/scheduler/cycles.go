package scheduler

import "sort"

// FindCycles returns every strongly connected component of adj that forms a
// cycle: components with more than one node, or a single node with an edge
// to itself. adj maps a node to the nodes it depends on. Each cycle is sorted
// and the cycles are ordered by their first id.
//
// The walk is a white/gray/black DFS that also tracks low-links, so all
// nodes of all cycles are reported instead of stopping at the first back
// edge.
func FindCycles(nodes []string, adj map[string][]string) [][]string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // finished
	)

	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)
	inGraph := make(map[string]bool, len(sorted))
	for _, n := range sorted {
		inGraph[n] = true
	}

	color := make(map[string]int, len(sorted))
	index := make(map[string]int, len(sorted))
	low := make(map[string]int, len(sorted))
	var stack []string
	counter := 0
	var cycles [][]string

	var visit func(n string)
	visit = func(n string) {
		color[n] = gray
		index[n] = counter
		low[n] = counter
		counter++
		stack = append(stack, n)

		for _, m := range adj[n] {
			if !inGraph[m] {
				continue
			}
			switch color[m] {
			case white:
				visit(m)
				low[n] = min(low[n], low[m])
			case gray:
				low[n] = min(low[n], index[m])
			}
		}

		if low[n] != index[n] {
			return
		}
		var comp []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			color[top] = black
			comp = append(comp, top)
			if top == n {
				break
			}
		}
		if len(comp) > 1 || selfLoop(n, adj[n]) {
			sort.Strings(comp)
			cycles = append(cycles, comp)
		}
	}

	for _, n := range sorted {
		if color[n] == white {
			visit(n)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func selfLoop(n string, deps []string) bool {
	for _, d := range deps {
		if d == n {
			return true
		}
	}
	return false
}
