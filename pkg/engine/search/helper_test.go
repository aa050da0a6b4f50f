package search

import (
	"testing"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const maxUpdates = 100000

// parseGrid builds a grid from rows where '#' is an obstacle and anything else is free.
func parseGrid(t *testing.T, rows ...string) *da.Grid {
	t.Helper()
	m := make([][]int, len(rows))
	for i, r := range rows {
		m[i] = make([]int, len(r))
		for j, ch := range r {
			if ch == '#' {
				m[i][j] = 1
			}
		}
	}
	g, err := da.NewGridFromMatrix(m)
	require.NoError(t, err)
	return g
}

func emptyGrid(t *testing.T, rows, cols int) *da.Grid {
	t.Helper()
	g, err := da.NewGrid(rows, cols)
	require.NoError(t, err)
	return g
}

func newOptions(start, target da.Cell, directionCount int, heuristic HeuristicKind, weight int) Options {
	return Options{
		Start:           start,
		Target:          target,
		DirectionCount:  directionCount,
		HeuristicWeight: weight,
		Heuristic:       heuristic,
	}
}

func newAlgorithm(t *testing.T, name string, grid *da.Grid) Algorithm {
	t.Helper()
	alg, err := New(name, grid, zap.NewNop())
	require.NoError(t, err)
	return alg
}

// runToEnd calls Update until it stops returning IN_PROGRESS.
func runToEnd(t *testing.T, alg Algorithm, b *Blackboard) (Status, int) {
	t.Helper()
	for n := 1; n <= maxUpdates; n++ {
		if status := alg.Update(b); status != IN_PROGRESS {
			return status, n
		}
	}
	t.Fatalf("%s did not finish after %d updates", alg.Name(), maxUpdates)
	return IN_PROGRESS, maxUpdates
}

func solve(t *testing.T, name string, grid *da.Grid, opts Options) (Status, *Blackboard) {
	t.Helper()
	alg := newAlgorithm(t, name, grid)
	b := NewBlackboard(grid.Rows(), grid.Cols())
	alg.Setup(b, opts)
	status, _ := runToEnd(t, alg, b)
	return status, b
}

// requireValidPath checks that path goes from start to target through adjacent free cells.
func requireValidPath(t *testing.T, grid *da.Grid, opts Options, path []da.Cell) {
	t.Helper()
	require.NotEmpty(t, path)
	require.Equal(t, opts.Start, path[0])
	require.Equal(t, opts.Target, path[len(path)-1])
	for i, c := range path {
		require.True(t, grid.Contains(c), "cell %v outside of the grid", c)
		require.False(t, grid.IsObstacle(c.Row, c.Col), "cell %v is an obstacle", c)
		if i == 0 {
			continue
		}
		dr, dc := c.Row-path[i-1].Row, c.Col-path[i-1].Col
		require.True(t, dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1 && (dr != 0 || dc != 0),
			"cells %v and %v are not adjacent", path[i-1], c)
		if opts.DirectionCount == 4 {
			require.True(t, dr == 0 || dc == 0, "diagonal move %v -> %v with 4 directions", path[i-1], c)
		}
	}
}
