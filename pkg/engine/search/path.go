package search

import (
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
)

func newCostArray(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = pkg.INF_COST
	}
	return a
}

func newParentArray(n int) []da.Index {
	a := make([]da.Index, n)
	for i := range a {
		a[i] = da.INVALID_INDEX
	}
	return a
}

// addCost saturates at INF_COST.
func addCost(a, b int) int {
	if a >= pkg.INF_COST || b >= pkg.INF_COST {
		return pkg.INF_COST
	}
	return util.MinInt(a+b, pkg.INF_COST)
}

// collectPath walks from back to s and returns s..t.
func collectPath(from []da.Index, s, t da.Index) []da.Index {
	path := []da.Index{t}
	for x := t; x != s; {
		x = from[x]
		path = append(path, x)
	}
	return util.ReverseG(path)
}

func toCells(grid *da.Grid, path []da.Index) []da.Cell {
	cells := make([]da.Cell, len(path))
	for i, x := range path {
		cells[i] = grid.Unpack(x)
	}
	return cells
}

// PathCost sums the move costs of consecutive cells.
func PathCost(path []da.Cell) int {
	cost := 0
	for i := 1; i < len(path); i++ {
		cost += da.MoveCost(path[i-1], path[i])
	}
	return cost
}
