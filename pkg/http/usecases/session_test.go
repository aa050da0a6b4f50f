package usecases

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/render"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, maxSessions int) *SessionService {
	t.Helper()
	ss, err := NewSessionService(zap.NewNop(), maxSessions, render.NewRenderer(10), 0)
	require.NoError(t, err)
	return ss
}

func cellPtr(row, col int) *da.Cell {
	c := da.NewCell(row, col)
	return &c
}

func TestCreateSession(t *testing.T) {
	weight := 2
	testCases := []struct {
		name        string
		params      CreateSessionParams
		wantErrCode error
		check       func(t *testing.T, snap engine.Snapshot)
	}{
		{
			name:   "defaults",
			params: CreateSessionParams{},
			check: func(t *testing.T, snap engine.Snapshot) {
				assert.Equal(t, search.DIJKSTRA, snap.Algorithm)
				assert.Equal(t, 12, snap.Rows)
				assert.Equal(t, 15, snap.Cols)
				assert.Equal(t, da.NewCell(11, 14), snap.Target)
			},
		},
		{
			name: "custom map",
			params: CreateSessionParams{
				Algorithm:       search.ASTAR,
				Map:             [][]int{{0, 1, 0}, {0, 1, 0}, {0, 0, 0}},
				Use4Directions:  true,
				HeuristicWeight: &weight,
			},
			check: func(t *testing.T, snap engine.Snapshot) {
				assert.Equal(t, []da.Cell{da.NewCell(0, 1), da.NewCell(1, 1)}, snap.Obstacles)
				assert.Equal(t, da.NewCell(2, 2), snap.Target)
			},
		},
		{
			name:   "random map keeps endpoints free",
			params: CreateSessionParams{Rows: 8, Cols: 8, ObstacleDensity: 0.99, Seed: 3},
			check: func(t *testing.T, snap engine.Snapshot) {
				assert.NotContains(t, snap.Obstacles, snap.Start)
				assert.NotContains(t, snap.Obstacles, snap.Target)
				assert.Empty(t, snap.Changed)
			},
		},
		{
			name: "snap start",
			params: CreateSessionParams{
				Map:   [][]int{{1, 1, 0}, {1, 1, 0}, {0, 0, 0}},
				Start: cellPtr(0, 0),
				Snap:  true,
			},
			check: func(t *testing.T, snap engine.Snapshot) {
				// (0,2) and (2,0) are equally close, the smaller row wins
				assert.Equal(t, da.NewCell(0, 2), snap.Start)
			},
		},
		{
			name:        "start on obstacle without snap",
			params:      CreateSessionParams{Map: [][]int{{1, 0}, {0, 0}}},
			wantErrCode: util.ErrBadParamInput,
		},
		{
			name:        "unknown algorithm",
			params:      CreateSessionParams{Algorithm: "bogo"},
			wantErrCode: util.ErrBadParamInput,
		},
		{
			name:        "unknown heuristic",
			params:      CreateSessionParams{Heuristic: "chebyshev"},
			wantErrCode: util.ErrBadParamInput,
		},
		{
			name:        "ragged map",
			params:      CreateSessionParams{Map: [][]int{{0, 0}, {0}}},
			wantErrCode: util.ErrBadParamInput,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			ss := newService(t, 4)
			s, snap, err := ss.CreateSession(tt.params)
			if tt.wantErrCode != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrCode, util.ErrorCode(err))
				assert.Equal(t, 0, ss.NumberOfSessions())
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, s.ID())
			assert.Equal(t, "in_progress", snap.Status)
			tt.check(t, snap)
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	ss := newService(t, 4)
	_, err := ss.GetSnapshot("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(err))
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(ss.DeleteSession("nope")))
}

func TestStepAndRun(t *testing.T) {
	ss := newService(t, 4)
	s, _, err := ss.CreateSession(CreateSessionParams{Algorithm: search.ASTAR})
	require.NoError(t, err)

	snap, err := ss.Step(s.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Steps)

	snap, err = ss.Run(context.Background(), s.ID(), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Steps)
	assert.Equal(t, "in_progress", snap.Status)

	frames := 0
	snap, err = ss.Run(context.Background(), s.ID(), 0, func(engine.Snapshot) error {
		frames++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "success", snap.Status)
	assert.Equal(t, 184, snap.PathCost)
	assert.Equal(t, snap.Steps-5, frames)

	// stepping a finished search changes nothing
	again, err := ss.Step(s.ID(), 10)
	require.NoError(t, err)
	assert.Equal(t, snap.Steps, again.Steps)

	snap, err = ss.Restart(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Steps)
}

func TestRunStopsOnFrameError(t *testing.T) {
	ss := newService(t, 4)
	s, _, err := ss.CreateSession(CreateSessionParams{})
	require.NoError(t, err)

	errClosed := errors.New("client gone")
	_, err = ss.Run(context.Background(), s.ID(), 0, func(engine.Snapshot) error { return errClosed })
	assert.ErrorIs(t, err, errClosed)
}

func TestObstaclesKeepSpatialIndexInSync(t *testing.T) {
	ss := newService(t, 4)
	s, _, err := ss.CreateSession(CreateSessionParams{Algorithm: search.LPASTAR, Rows: 3, Cols: 3})
	require.NoError(t, err)

	snap, err := ss.UpdateObstacles(s.ID(), []da.Cell{da.NewCell(1, 0), da.NewCell(1, 1), da.NewCell(2, 0)}, nil)
	require.NoError(t, err)
	assert.Len(t, snap.Obstacles, 3)

	_, err = ss.UpdateObstacles(s.ID(), []da.Cell{da.NewCell(0, 0)}, nil)
	assert.ErrorIs(t, err, engine.ErrObstacleOnEndpoint)

	// (1,1) is blocked, the closest free cell is (0,1)
	snap, err = ss.ChangeStart(s.ID(), da.NewCell(1, 1), true)
	require.NoError(t, err)
	assert.Equal(t, da.NewCell(0, 1), snap.Start)

	_, err = ss.ChangeStart(s.ID(), da.NewCell(2, 0), false)
	assert.ErrorIs(t, err, engine.ErrStartOnObstacle)

	snap, err = ss.ToggleObstacle(s.ID(), da.NewCell(2, 0))
	require.NoError(t, err)
	assert.Len(t, snap.Obstacles, 2)

	snap, err = ss.ChangeStart(s.ID(), da.NewCell(1, 0), true)
	require.NoError(t, err)
	assert.Contains(t, []da.Cell{da.NewCell(0, 0), da.NewCell(2, 0)}, snap.Start)

	snap, err = ss.Run(context.Background(), s.ID(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", snap.Status)
}

func TestRenderPNG(t *testing.T) {
	ss := newService(t, 4)
	s, _, err := ss.CreateSession(CreateSessionParams{Rows: 4, Cols: 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ss.RenderPNG(s.ID(), &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestSessionEviction(t *testing.T) {
	ss := newService(t, 2)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		s, _, err := ss.CreateSession(CreateSessionParams{Rows: 3, Cols: 3})
		require.NoError(t, err)
		ids = append(ids, s.ID())
	}
	assert.Equal(t, 2, ss.NumberOfSessions())

	_, err := ss.GetSnapshot(ids[0])
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, ss.DeleteSession(ids[2]))
	assert.Equal(t, 1, ss.NumberOfSessions())
}

func TestEncodePath(t *testing.T) {
	path := []da.Cell{da.NewCell(0, 0), da.NewCell(1, 1), da.NewCell(1, 2), da.NewCell(11, 14)}
	encoded := EncodePath(path)
	assert.NotEmpty(t, encoded)

	decoded, err := DecodePath(encoded)
	require.NoError(t, err)
	assert.Equal(t, path, decoded)
	assert.Equal(t, "", EncodePath(nil))
}
