package ordering

import (
	"strings"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/zerr"
)

// Sort returns the indexes of descs in execution order.
// Every pairwise constraint is honored; among steps that are free to run, the one that comes
// first in the input runs first. Constraints that form a cycle fail with ErrImpossibleOrder
// before anything is returned.
func (o *Orderer) Sort(descs []*domain.Descriptor) ([]int, error) {
	n := len(descs)
	preds := make([][]int, n)
	for i := range n {
		for j := i + 1; j < n; j++ {
			rel, err := o.Compare(descs[i], descs[j])
			if err != nil {
				return nil, err
			}
			switch rel {
			case domain.Before:
				preds[j] = append(preds[j], i)
			case domain.After:
				preds[i] = append(preds[i], j)
			case domain.Unrelated:
			}
		}
	}

	remaining := make([]int, n)
	for i := range n {
		remaining[i] = len(preds[i])
	}
	succs := make([][]int, n)
	for i, ps := range preds {
		for _, p := range ps {
			succs[p] = append(succs[p], i)
		}
	}

	order := make([]int, 0, n)
	emitted := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := range n {
			if !emitted[i] && remaining[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, cycleError(descs, preds, emitted)
		}
		emitted[next] = true
		order = append(order, next)
		for _, s := range succs[next] {
			remaining[s]--
		}
	}
	return order, nil
}

// cycleError walks predecessor links among the steps that could not be emitted and reports
// the first cycle it finds as "A -> B -> A".
func cycleError(descs []*domain.Descriptor, preds [][]int, emitted []bool) error {
	visited := make([]int, len(descs)) // 0: unvisited, 1: visiting, 2: visited
	var path []int

	var visit func(u int) []int
	visit = func(u int) []int {
		visited[u] = 1
		path = append(path, u)
		for _, p := range preds[u] {
			if emitted[p] {
				continue
			}
			if visited[p] == 1 {
				return cycleFrom(path, p)
			}
			if visited[p] == 0 {
				if cycle := visit(p); cycle != nil {
					return cycle
				}
			}
		}
		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for i := range descs {
		if emitted[i] || visited[i] != 0 {
			continue
		}
		if cycle := visit(i); cycle != nil {
			// Predecessor links point backwards in time; reverse them into execution order.
			keys := make([]string, len(cycle))
			for k, idx := range cycle {
				keys[len(cycle)-1-k] = descs[idx].Key
			}
			return zerr.With(zerr.Wrap(domain.ErrImpossibleOrder, "ordering constraints form a cycle"),
				"cycle", strings.Join(keys, " -> "))
		}
	}
	return zerr.Wrap(domain.ErrImpossibleOrder, "ordering constraints form a cycle")
}

// cycleFrom returns the part of path starting at start, closed by start again.
func cycleFrom(path []int, start int) []int {
	for i, node := range path {
		if node == start {
			cycle := append([]int(nil), path[i:]...)
			return append(cycle, start)
		}
	}
	return nil
}
