package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/spatialindex"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"
	"golang.org/x/time/rate"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoFreeCell      = errors.New("no free cell to snap to")
)

// Session is one engine with its own grid. Every access holds mu.
type Session struct {
	mu           sync.Mutex
	id           string
	engine       *engine.Engine
	spatialIndex SpatialIndex
	createdAt    time.Time
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

type CreateSessionParams struct {
	Algorithm       string
	Rows            int
	Cols            int
	Map             [][]int
	ObstacleDensity float64
	Seed            uint64
	Start           *da.Cell
	Target          *da.Cell
	Use4Directions  bool
	Heuristic       string
	HeuristicWeight *int
	Snap            bool
}

type SessionService struct {
	log         *zap.Logger
	sessions    *lru.Cache[string, *Session]
	renderer    Renderer
	streamDelay time.Duration
}

func NewSessionService(log *zap.Logger, maxSessions int, renderer Renderer, streamDelay time.Duration) (*SessionService, error) {
	sessions, err := lru.NewWithEvict[string, *Session](maxSessions, func(id string, _ *Session) {
		log.Info("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, err
	}
	return &SessionService{
		log:         log,
		sessions:    sessions,
		renderer:    renderer,
		streamDelay: streamDelay,
	}, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (ss *SessionService) Algorithms() []string {
	return search.Names()
}

func (ss *SessionService) buildGrid(p CreateSessionParams) (*da.Grid, error) {
	if len(p.Map) > 0 {
		grid, err := da.NewGridFromMatrix(p.Map)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "map: %v", err)
		}
		return grid, nil
	}

	rows, cols := p.Rows, p.Cols
	if rows == 0 {
		rows = pkg.DEFAULT_ROWS
	}
	if cols == 0 {
		cols = pkg.DEFAULT_COLS
	}
	var (
		grid *da.Grid
		err  error
	)
	if p.ObstacleDensity > 0 {
		grid, err = da.RandomGrid(rows, cols, p.ObstacleDensity, xrand.New(xrand.NewSource(p.Seed)))
	} else {
		grid, err = da.NewGrid(rows, cols)
	}
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "grid %dx%d: %v", rows, cols, err)
	}
	return grid, nil
}

// snapToFree moves c to the nearest free cell when it is on an obstacle.
func (ss *SessionService) snapToFree(index SpatialIndex, grid *da.Grid, c da.Cell) (da.Cell, error) {
	if !grid.Contains(c) || !grid.IsObstacle(c.Row, c.Col) {
		return c, nil
	}
	nearest, ok := index.Nearest(c)
	if !ok {
		return c, util.WrapErrorf(ErrNoFreeCell, util.ErrBadParamInput, "cell %v: %v", c, ErrNoFreeCell)
	}
	ss.log.Info("snapped point to nearest free cell", zap.String("from", c.String()), zap.String("to", nearest.String()))
	return nearest, nil
}

func (ss *SessionService) CreateSession(p CreateSessionParams) (*Session, engine.Snapshot, error) {
	grid, err := ss.buildGrid(p)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	opts := search.DefaultOptions(grid.Rows(), grid.Cols())
	opts.DirectionCount = da.DirectionCount(p.Use4Directions)
	if p.Start != nil {
		opts.Start = *p.Start
	}
	if p.Target != nil {
		opts.Target = *p.Target
	}
	if p.HeuristicWeight != nil {
		opts.HeuristicWeight = *p.HeuristicWeight
	}
	opts.Heuristic, err = search.ParseHeuristic(p.Heuristic, opts.DirectionCount)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	// random maps keep the endpoints free unless they are snapped
	if p.ObstacleDensity > 0 && len(p.Map) == 0 && !p.Snap {
		for _, c := range []da.Cell{opts.Start, opts.Target} {
			if grid.Contains(c) && grid.IsObstacle(c.Row, c.Col) {
				_ = grid.RemoveObstacle(c)
			}
		}
		grid.ClearChanged()
	}

	index := spatialindex.NewRtree()
	index.Build(grid, ss.log)
	if p.Snap {
		if opts.Start, err = ss.snapToFree(index, grid, opts.Start); err != nil {
			return nil, engine.Snapshot{}, err
		}
		if opts.Target, err = ss.snapToFree(index, grid, opts.Target); err != nil {
			return nil, engine.Snapshot{}, err
		}
	}

	algorithm := p.Algorithm
	if algorithm == "" {
		algorithm = search.DIJKSTRA
	}
	e, err := engine.NewEngine(grid, algorithm, opts, ss.log)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	id, err := newSessionID()
	if err != nil {
		return nil, engine.Snapshot{}, util.WrapErrorf(err, util.ErrInternalServerError, "session id: %v", err)
	}
	s := &Session{
		id:           id,
		engine:       e,
		spatialIndex: index,
		createdAt:    time.Now(),
	}
	ss.sessions.Add(id, s)
	ss.log.Info("session created", zap.String("session_id", id), zap.String("algorithm", algorithm),
		zap.Int("rows", grid.Rows()), zap.Int("cols", grid.Cols()))
	return s, e.Snapshot(), nil
}

func (ss *SessionService) getSession(id string) (*Session, error) {
	s, ok := ss.sessions.Get(id)
	if !ok {
		return nil, util.WrapErrorf(ErrSessionNotFound, util.ErrNotFound, "session %s: %v", id, ErrSessionNotFound)
	}
	return s, nil
}

// withSession runs fn under the session lock and returns the snapshot taken right after.
func (ss *SessionService) withSession(id string, fn func(s *Session) error) (engine.Snapshot, error) {
	s, err := ss.getSession(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s); err != nil {
		return engine.Snapshot{}, err
	}
	return s.engine.Snapshot(), nil
}

func (ss *SessionService) GetSnapshot(id string) (engine.Snapshot, error) {
	return ss.withSession(id, func(*Session) error { return nil })
}

// Step advances the search by at most count updates.
func (ss *SessionService) Step(id string, count int) (engine.Snapshot, error) {
	return ss.withSession(id, func(s *Session) error {
		for i := 0; i < count; i++ {
			if s.engine.Step() != search.IN_PROGRESS {
				break
			}
		}
		return nil
	})
}

// Run steps until the search ends or maxSteps updates were made. When onFrame is not
// nil every step is paced by the stream delay and reported to it.
func (ss *SessionService) Run(ctx context.Context, id string, maxSteps int, onFrame func(snap engine.Snapshot) error) (engine.Snapshot, error) {
	var limiter *rate.Limiter
	if onFrame != nil && ss.streamDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(ss.streamDelay), 1)
	}
	errMaxSteps := errors.New("max steps reached")

	return ss.withSession(id, func(s *Session) error {
		start := s.engine.GetSteps()
		_, err := s.engine.Run(ctx, limiter, func(search.Status) error {
			if onFrame != nil {
				if err := onFrame(s.engine.Snapshot()); err != nil {
					return err
				}
			}
			if maxSteps > 0 && s.engine.GetSteps()-start >= maxSteps {
				return errMaxSteps
			}
			return nil
		})
		if errors.Is(err, errMaxSteps) {
			return nil
		}
		return err
	})
}

func (ss *SessionService) Restart(id string) (engine.Snapshot, error) {
	return ss.withSession(id, func(s *Session) error {
		s.engine.Restart()
		return nil
	})
}

// UpdateObstacles applies a batch of obstacle changes and keeps the spatial index in sync.
func (ss *SessionService) UpdateObstacles(id string, toAdd, toRemove []da.Cell) (engine.Snapshot, error) {
	return ss.withSession(id, func(s *Session) error {
		grid := s.engine.GetGrid()
		var added, removed []da.Cell
		for _, c := range toAdd {
			if grid.Contains(c) && !grid.IsObstacle(c.Row, c.Col) {
				added = append(added, c)
			}
		}
		for _, c := range toRemove {
			if grid.Contains(c) && grid.IsObstacle(c.Row, c.Col) {
				removed = append(removed, c)
			}
		}
		if err := s.engine.ApplyMapChanges(toAdd, toRemove); err != nil {
			return err
		}
		s.spatialIndex.Update(added, removed)
		return nil
	})
}

func (ss *SessionService) ToggleObstacle(id string, c da.Cell) (engine.Snapshot, error) {
	return ss.withSession(id, func(s *Session) error {
		grid := s.engine.GetGrid()
		wasObstacle := grid.Contains(c) && grid.IsObstacle(c.Row, c.Col)
		if err := s.engine.ToggleObstacle(c); err != nil {
			return err
		}
		if wasObstacle {
			s.spatialIndex.Update(nil, []da.Cell{c})
		} else {
			s.spatialIndex.Update([]da.Cell{c}, nil)
		}
		return nil
	})
}

func (ss *SessionService) ChangeStart(id string, c da.Cell, snap bool) (engine.Snapshot, error) {
	return ss.withSession(id, func(s *Session) error {
		if snap {
			var err error
			if c, err = ss.snapToFree(s.spatialIndex, s.engine.GetGrid(), c); err != nil {
				return err
			}
		}
		return s.engine.ChangeStart(c)
	})
}

func (ss *SessionService) RenderPNG(id string, w io.Writer) error {
	snap, err := ss.GetSnapshot(id)
	if err != nil {
		return err
	}
	if err := ss.renderer.EncodePNG(w, &snap); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "render: %v", err)
	}
	return nil
}

func (ss *SessionService) DeleteSession(id string) error {
	if !ss.sessions.Remove(id) {
		return util.WrapErrorf(ErrSessionNotFound, util.ErrNotFound, "session %s: %v", id, ErrSessionNotFound)
	}
	ss.log.Info("session deleted", zap.String("session_id", id))
	return nil
}

func (ss *SessionService) NumberOfSessions() int {
	return ss.sessions.Len()
}

// EncodePath encodes path cells as a polyline of (row, col) pairs.
func EncodePath(path []da.Cell) string {
	coords := make([][]float64, 0, len(path))
	for _, c := range path {
		coords = append(coords, []float64{float64(c.Row), float64(c.Col)})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePath is the inverse of EncodePath.
func DecodePath(s string) ([]da.Cell, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	path := make([]da.Cell, 0, len(coords))
	for _, c := range coords {
		path = append(path, da.NewCell(int(c[0]+0.5), int(c[1]+0.5)))
	}
	return path, nil
}
