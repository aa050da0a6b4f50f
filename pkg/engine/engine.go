package engine

import (
	"context"
	"errors"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidStart       = errors.New("start point is outside of the map")
	ErrInvalidTarget      = errors.New("target point is outside of the map")
	ErrStartOnObstacle    = errors.New("start point is on an obstacle")
	ErrTargetOnObstacle   = errors.New("target point is on an obstacle")
	ErrObstacleOnEndpoint = errors.New("obstacle can not be placed on the start or target point")
)

// Engine drives one search algorithm over one grid. It owns the grid, the blackboard
// and the options, so every mutation goes through it and happens between two Steps.
// Engine is not safe for concurrent use.
type Engine struct {
	grid          *da.Grid
	algorithm     search.Algorithm
	algorithmName string
	blackboard    *search.Blackboard
	opts          search.Options
	status        search.Status
	steps         int
	logger        *zap.Logger
}

// NewEngine validates opts against grid, builds the named algorithm and runs its Setup.
func NewEngine(grid *da.Grid, algorithmName string, opts search.Options, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateStartAndTarget(grid, opts); err != nil {
		return nil, err
	}
	algorithm, err := search.New(algorithmName, grid, logger)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "%v", err)
	}

	e := &Engine{
		grid:          grid,
		algorithm:     algorithm,
		algorithmName: algorithmName,
		blackboard:    search.NewBlackboard(grid.Rows(), grid.Cols()),
		opts:          opts,
		logger:        logger,
	}
	e.Setup()
	logger.Info("engine ready", zap.String("algorithm", algorithmName), zap.String("options", opts.String()))
	return e, nil
}

// ValidateStartAndTarget rejects start/target points outside of the grid or on an obstacle.
func ValidateStartAndTarget(grid *da.Grid, opts search.Options) error {
	if !grid.Contains(opts.Start) {
		return util.WrapErrorf(ErrInvalidStart, util.ErrBadParamInput, "start %v: %v", opts.Start, ErrInvalidStart)
	}
	if !grid.Contains(opts.Target) {
		return util.WrapErrorf(ErrInvalidTarget, util.ErrBadParamInput, "target %v: %v", opts.Target, ErrInvalidTarget)
	}
	if grid.IsObstacle(opts.Start.Row, opts.Start.Col) {
		return util.WrapErrorf(ErrStartOnObstacle, util.ErrBadParamInput, "start %v: %v", opts.Start, ErrStartOnObstacle)
	}
	if grid.IsObstacle(opts.Target.Row, opts.Target.Col) {
		return util.WrapErrorf(ErrTargetOnObstacle, util.ErrBadParamInput, "target %v: %v", opts.Target, ErrTargetOnObstacle)
	}
	return nil
}

// Setup restarts the search from scratch.
func (e *Engine) Setup() {
	e.algorithm.Setup(e.blackboard, e.opts)
	e.status = search.IN_PROGRESS
	e.steps = 0
}

func (e *Engine) Restart() {
	e.logger.Info("restarting search", zap.String("algorithm", e.algorithmName))
	e.Setup()
}

// Step calls Update once unless the search already stopped.
func (e *Engine) Step() search.Status {
	if e.blackboard.Stopped {
		return search.SUCCESS
	}
	e.steps++
	e.status = e.algorithm.Update(e.blackboard)
	switch e.status {
	case search.SUCCESS:
		e.logger.Info("search finished", zap.String("algorithm", e.algorithmName),
			zap.Int("steps", e.steps), zap.Int("path_cost", e.blackboard.PathCost()))
	case search.FAILURE:
		e.logger.Info("search failed, target is unreachable", zap.String("algorithm", e.algorithmName),
			zap.Int("steps", e.steps))
	}
	return e.status
}

// Run steps until the search succeeds or fails. limiter paces the steps when not nil,
// onStep is called after every step and aborts the run if it returns an error.
func (e *Engine) Run(ctx context.Context, limiter *rate.Limiter, onStep func(status search.Status) error) (search.Status, error) {
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return e.status, err
			}
		} else if util.StopConcurrentOperation(ctx) {
			return e.status, ctx.Err()
		}

		status := e.Step()
		if onStep != nil {
			if err := onStep(status); err != nil {
				return status, err
			}
		}
		if status != search.IN_PROGRESS {
			return status, nil
		}
	}
}

// ApplyMapChanges mutates the grid and notifies the algorithm. Cells already in the
// requested state are skipped. Nothing is applied if any cell is invalid.
func (e *Engine) ApplyMapChanges(toAdd, toRemove []da.Cell) error {
	for _, c := range append(append([]da.Cell{}, toAdd...), toRemove...) {
		if !e.grid.Contains(c) {
			return util.WrapErrorf(da.ErrOutOfBounds, util.ErrBadParamInput, "cell %v: %v", c, da.ErrOutOfBounds)
		}
	}
	for _, c := range toAdd {
		if c == e.opts.Start || c == e.opts.Target {
			return util.WrapErrorf(ErrObstacleOnEndpoint, util.ErrBadParamInput, "cell %v: %v", c, ErrObstacleOnEndpoint)
		}
	}

	added := make([]da.Cell, 0, len(toAdd))
	for _, c := range toAdd {
		if !e.grid.IsObstacle(c.Row, c.Col) {
			_ = e.grid.AddObstacle(c)
			added = append(added, c)
		}
	}
	removed := make([]da.Cell, 0, len(toRemove))
	for _, c := range toRemove {
		if e.grid.IsObstacle(c.Row, c.Col) {
			_ = e.grid.RemoveObstacle(c)
			removed = append(removed, c)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	e.logger.Info("map changed", zap.Int("added_obstacles", len(added)), zap.Int("removed_obstacles", len(removed)))
	e.algorithm.HandleMapChanges(e.blackboard, e.opts, added, removed)
	e.status = search.IN_PROGRESS
	return nil
}

// ToggleObstacle adds an obstacle on a free cell or removes it from a blocked one.
func (e *Engine) ToggleObstacle(c da.Cell) error {
	if !e.grid.Contains(c) {
		return util.WrapErrorf(da.ErrOutOfBounds, util.ErrBadParamInput, "cell %v: %v", c, da.ErrOutOfBounds)
	}
	if e.grid.IsObstacle(c.Row, c.Col) {
		return e.ApplyMapChanges(nil, []da.Cell{c})
	}
	return e.ApplyMapChanges([]da.Cell{c}, nil)
}

// ChangeStart moves the start point. Moving it onto itself is a no-op.
func (e *Engine) ChangeStart(c da.Cell) error {
	if c == e.opts.Start {
		return nil
	}
	opts := e.opts
	opts.Start = c
	if err := ValidateStartAndTarget(e.grid, opts); err != nil {
		return err
	}

	e.logger.Info("start point changed", zap.String("start", c.String()))
	e.opts = opts
	e.algorithm.HandleStartPointChange(e.blackboard, e.opts)
	e.status = search.IN_PROGRESS
	return nil
}

func (e *Engine) GetGrid() *da.Grid {
	return e.grid
}

func (e *Engine) GetBlackboard() *search.Blackboard {
	return e.blackboard
}

func (e *Engine) GetOptions() search.Options {
	return e.opts
}

func (e *Engine) GetStatus() search.Status {
	return e.status
}

func (e *Engine) GetSteps() int {
	return e.steps
}

func (e *Engine) GetAlgorithmName() string {
	return e.algorithmName
}
