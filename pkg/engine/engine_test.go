package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestEngine(t *testing.T, algorithm string, rows, cols int) *Engine {
	t.Helper()
	grid, err := da.NewGrid(rows, cols)
	require.NoError(t, err)
	e, err := NewEngine(grid, algorithm, search.DefaultOptions(rows, cols), zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestNewEngineValidation(t *testing.T) {
	testCases := []struct {
		name        string
		algorithm   string
		modify      func(grid *da.Grid, opts *search.Options)
		expectedErr error
	}{
		{
			name:      "ok",
			algorithm: search.ASTAR,
			modify:    func(*da.Grid, *search.Options) {},
		},
		{
			name:        "unknown algorithm",
			algorithm:   "bfs",
			modify:      func(*da.Grid, *search.Options) {},
			expectedErr: search.ErrUnknownAlgorithm,
		},
		{
			name:        "start outside",
			algorithm:   search.DIJKSTRA,
			modify:      func(_ *da.Grid, o *search.Options) { o.Start = da.NewCell(12, 0) },
			expectedErr: ErrInvalidStart,
		},
		{
			name:        "target outside",
			algorithm:   search.DIJKSTRA,
			modify:      func(_ *da.Grid, o *search.Options) { o.Target = da.NewCell(0, 15) },
			expectedErr: ErrInvalidTarget,
		},
		{
			name:      "start on obstacle",
			algorithm: search.DIJKSTRA,
			modify: func(g *da.Grid, o *search.Options) {
				_ = g.AddObstacle(o.Start)
			},
			expectedErr: ErrStartOnObstacle,
		},
		{
			name:      "target on obstacle",
			algorithm: search.DIJKSTRA,
			modify: func(g *da.Grid, o *search.Options) {
				_ = g.AddObstacle(o.Target)
			},
			expectedErr: ErrTargetOnObstacle,
		},
		{
			name:        "bad direction count",
			algorithm:   search.DIJKSTRA,
			modify:      func(_ *da.Grid, o *search.Options) { o.DirectionCount = 6 },
			expectedErr: util.ErrBadParamInput,
		},
		{
			name:        "negative weight",
			algorithm:   search.ASTAR,
			modify:      func(_ *da.Grid, o *search.Options) { o.HeuristicWeight = -1 },
			expectedErr: util.ErrBadParamInput,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := da.NewGrid(12, 15)
			require.NoError(t, err)
			opts := search.DefaultOptions(12, 15)
			tt.modify(grid, &opts)

			e, err := NewEngine(grid, tt.algorithm, opts, nil)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				assert.Equal(t, search.IN_PROGRESS, e.GetStatus())
				return
			}
			require.Error(t, err)
			if errors.Is(err, tt.expectedErr) {
				return
			}
			assert.Equal(t, tt.expectedErr, util.ErrorCode(err))
		})
	}
}

func TestValidationErrorsAreBadParamInput(t *testing.T) {
	grid, err := da.NewGrid(3, 3)
	require.NoError(t, err)
	opts := search.DefaultOptions(3, 3)
	opts.Start = da.NewCell(-1, 0)

	err = ValidateStartAndTarget(grid, opts)
	assert.ErrorIs(t, err, ErrInvalidStart)
	assert.Equal(t, util.ErrBadParamInput, util.ErrorCode(err))
}

func TestRun(t *testing.T) {
	e := newTestEngine(t, search.DIJKSTRA, 12, 15)

	steps := 0
	status, err := e.Run(context.Background(), nil, func(search.Status) error {
		steps++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, search.SUCCESS, status)
	assert.Equal(t, steps, e.GetSteps())
	assert.Equal(t, 184, e.GetBlackboard().PathCost())

	// stepping a stopped search does nothing
	assert.Equal(t, search.SUCCESS, e.Step())
	assert.Equal(t, steps, e.GetSteps())
}

func TestRunStopsOnCallbackError(t *testing.T) {
	e := newTestEngine(t, search.ASTAR, 12, 15)
	errStop := errors.New("stop")

	status, err := e.Run(context.Background(), nil, func(search.Status) error {
		if e.GetSteps() == 3 {
			return errStop
		}
		return nil
	})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, search.IN_PROGRESS, status)
	assert.Equal(t, 3, e.GetSteps())
}

func TestRunHonorsContext(t *testing.T) {
	e := newTestEngine(t, search.DIJKSTRA, 12, 15)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// 10 steps per second never finishes 180 expansions in time
	_, err := e.Run(ctx, rate.NewLimiter(rate.Limit(10), 1), nil)
	require.Error(t, err)
	assert.Less(t, e.GetSteps(), 180)
}

func TestApplyMapChanges(t *testing.T) {
	for _, name := range search.Names() {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, name, 5, 5)
			require.NoError(t, e.ChangeStart(da.NewCell(2, 0)))
			_, err := e.Run(context.Background(), nil, nil)
			require.NoError(t, err)
			opts := e.GetOptions()
			require.Equal(t, da.NewCell(2, 0), opts.Start)

			err = e.ApplyMapChanges([]da.Cell{opts.Target}, nil)
			assert.ErrorIs(t, err, ErrObstacleOnEndpoint)
			err = e.ApplyMapChanges([]da.Cell{da.NewCell(1, 1), da.NewCell(9, 9)}, nil)
			assert.ErrorIs(t, err, da.ErrOutOfBounds)
			assert.False(t, e.GetGrid().IsObstacle(1, 1), "rejected changes are not applied")

			wall := []da.Cell{da.NewCell(0, 2), da.NewCell(1, 2), da.NewCell(2, 2), da.NewCell(3, 2)}
			require.NoError(t, e.ApplyMapChanges(wall, nil))
			assert.Equal(t, search.IN_PROGRESS, e.GetStatus())
			assert.False(t, e.GetBlackboard().Stopped)
			assert.Len(t, e.GetGrid().ChangedCells(), 4)

			status, err := e.Run(context.Background(), nil, nil)
			require.NoError(t, err)
			require.Equal(t, search.SUCCESS, status)
			for _, c := range e.GetBlackboard().Path {
				assert.NotContains(t, wall, c)
			}
			assert.Contains(t, e.GetBlackboard().Path, da.NewCell(4, 2))
		})
	}
}

func TestApplyMapChangesSkipsNoops(t *testing.T) {
	e := newTestEngine(t, search.DIJKSTRA, 5, 5)
	_, err := e.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	before := e.Snapshot()

	require.NoError(t, e.ApplyMapChanges(nil, []da.Cell{da.NewCell(2, 2)}))
	assert.Equal(t, before, e.Snapshot())
}

func TestToggleObstacle(t *testing.T) {
	e := newTestEngine(t, search.LPASTAR, 5, 5)
	c := da.NewCell(2, 2)

	require.NoError(t, e.ToggleObstacle(c))
	assert.True(t, e.GetGrid().IsObstacle(2, 2))
	require.NoError(t, e.ToggleObstacle(c))
	assert.False(t, e.GetGrid().IsObstacle(2, 2))
	assert.Empty(t, e.GetGrid().ChangedCells())

	assert.ErrorIs(t, e.ToggleObstacle(da.NewCell(0, 0)), ErrObstacleOnEndpoint)
	assert.ErrorIs(t, e.ToggleObstacle(da.NewCell(5, 0)), da.ErrOutOfBounds)
}

func TestChangeStart(t *testing.T) {
	e := newTestEngine(t, search.FLOW_FIELD, 5, 5)
	_, err := e.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, e.ToggleObstacle(da.NewCell(1, 1)))
	_, err = e.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, e.ChangeStart(da.NewCell(1, 1)), ErrStartOnObstacle)
	assert.ErrorIs(t, e.ChangeStart(da.NewCell(-1, 1)), ErrInvalidStart)

	require.NoError(t, e.ChangeStart(da.NewCell(4, 0)))
	assert.Equal(t, da.NewCell(4, 0), e.GetOptions().Start)
	assert.Empty(t, e.GetBlackboard().Path)

	// the flow field is reused, one step extracts the new path
	assert.Equal(t, search.SUCCESS, e.Step())
	assert.Equal(t, 40, e.GetBlackboard().PathCost())
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(t, search.ASTAR, 4, 4)
	require.NoError(t, e.ToggleObstacle(da.NewCell(1, 2)))
	snap := e.Snapshot()

	assert.Equal(t, search.ASTAR, snap.Algorithm)
	assert.Equal(t, "in_progress", snap.Status)
	assert.Equal(t, []da.Cell{da.NewCell(1, 2)}, snap.Obstacles)
	assert.Equal(t, []da.Cell{da.NewCell(1, 2)}, snap.Changed)

	e.Step()
	assert.False(t, snap.Blackboard.IsVisited(da.NewCell(0, 0)))
	assert.True(t, e.GetBlackboard().IsVisited(da.NewCell(0, 0)))
}

func TestRestart(t *testing.T) {
	e := newTestEngine(t, search.GREEDY, 6, 6)
	_, err := e.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	first := e.GetBlackboard().Clone()

	e.Restart()
	assert.Equal(t, 0, e.GetSteps())
	assert.Equal(t, 0, e.GetBlackboard().NumberOfVisited())

	_, err = e.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, e.GetBlackboard())
}
