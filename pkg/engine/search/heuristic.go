package search

import (
	"math"

	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
)

// heuristicFunc estimates the cost from x to goal.
type heuristicFunc func(x, goal da.Index) int

func Manhattan(dRow, dCol int) int {
	return (util.Abs(dRow) + util.Abs(dCol)) * pkg.COST_UNIT
}

func Euclidean(dRow, dCol int) int {
	return int(math.Floor(math.Hypot(float64(dRow), float64(dCol)))) * pkg.COST_UNIT
}

func newHeuristic(grid *da.Grid, kind HeuristicKind) heuristicFunc {
	distance := Manhattan
	if kind == EUCLIDEAN {
		distance = Euclidean
	}
	return func(x, goal da.Index) int {
		return distance(grid.UnpackRow(goal)-grid.UnpackRow(x), grid.UnpackCol(goal)-grid.UnpackCol(x))
	}
}

func zeroHeuristic(_, _ da.Index) int {
	return 0
}
