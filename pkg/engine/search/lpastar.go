package search

import (
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"go.uber.org/zap"
)

// LPAStar is Lifelong Planning A*. It keeps g (committed cost) and rhs (one step
// lookahead) per cell and only re-propagates the inconsistent cells after a map change.
type LPAStar struct {
	grid   *da.Grid
	logger *zap.Logger

	graph     *da.IncrementalGraph
	heuristic heuristicFunc
	weight    int

	g   []int
	rhs []int
	pq  *da.KeyedQueue

	s, t da.Index

	// ignore the early stop bound until the queue drains
	force bool
}

func NewLPAStar(grid *da.Grid, logger *zap.Logger) *LPAStar {
	return &LPAStar{
		grid:   grid,
		logger: logger,
	}
}

func (l *LPAStar) Name() string {
	return LPASTAR
}

func (l *LPAStar) Setup(b *Blackboard, opts Options) {
	b.Reset()

	if opts.HeuristicWeight > 1 {
		l.logger.Warn("heuristic weight above 1 is not admissible, incremental path may differ from full recompute",
			zap.Int("weight", opts.HeuristicWeight))
	}
	if opts.Heuristic == MANHATTAN && opts.DirectionCount == 8 {
		l.logger.Warn("manhattan heuristic overestimates diagonal moves", zap.Int("direction_count", opts.DirectionCount))
	}

	l.heuristic = newHeuristic(l.grid, opts.Heuristic)
	l.weight = opts.HeuristicWeight
	l.graph = da.BuildIncrementalGraph(l.grid, opts.DirectionCount)

	n := l.grid.NumberOfCells()
	l.g = newCostArray(n)
	l.rhs = newCostArray(n)
	l.pq = da.NewKeyedQueue(n)
	l.force = false

	l.s = l.grid.PackCell(opts.Start)
	l.t = l.grid.PackCell(opts.Target)

	l.rhs[l.s] = 0
	l.pq.Upsert(l.s, l.calculateKey(l.s))
}

func (l *LPAStar) calculateKey(x da.Index) da.LPAKey {
	m := util.MinInt(l.g[x], l.rhs[x])
	return da.NewLPAKey(addCost(m, l.weight*l.heuristic(x, l.t)), m)
}

func (l *LPAStar) updateVertex(x da.Index) {
	if x != l.s {
		rhs := pkg.INF_COST
		l.graph.ForInEdgesOf(x, func(e da.InEdge) {
			rhs = util.MinInt(rhs, addCost(l.g[e.GetTail()], e.GetWeight()))
		})
		l.rhs[x] = rhs
	}
	l.pq.Remove(x)
	if l.g[x] != l.rhs[x] {
		l.pq.Upsert(x, l.calculateKey(x))
	}
}

func (l *LPAStar) Update(b *Blackboard) Status {
	if b.Stopped {
		return SUCCESS
	}

	for !l.pq.IsEmpty() {
		_, topKey, _ := l.pq.Top()
		if !l.force && !topKey.Less(l.calculateKey(l.t)) && l.rhs[l.t] == l.g[l.t] {
			break
		}

		x, _, _ := l.pq.Pop()
		xc := l.grid.Unpack(x)
		b.unexplore(xc)
		b.visit(xc)

		if l.g[x] > l.rhs[x] {
			l.g[x] = l.rhs[x]
		} else {
			l.g[x] = pkg.INF_COST
			l.updateVertex(x)
		}

		l.graph.ForSuccessorsOf(x, func(y da.Index) {
			l.updateVertex(y)
			if l.pq.Contains(y) {
				b.explore(l.grid.Unpack(y), util.MinInt(l.g[y], l.rhs[y]))
			}
		})

		return IN_PROGRESS
	}

	if l.g[l.t] >= pkg.INF_COST {
		l.force = false
		return FAILURE
	}

	path, ok := l.collectPath()
	if !ok {
		if l.pq.IsEmpty() {
			l.logger.Error("lpastar path reconstruction failed on a fully propagated graph",
				zap.String("target", l.grid.Unpack(l.t).String()))
			l.force = false
			return FAILURE
		}
		l.logger.Warn("cycle in lpastar path, forcing full propagation",
			zap.Int("weight", l.weight))
		l.force = true
		return IN_PROGRESS
	}

	l.force = false
	b.Path = toCells(l.grid, path)
	b.Stopped = true
	return SUCCESS
}

// collectPath walks back from t choosing the predecessor minimizing g + edge weight.
// It reports false if the walk revisits a cell or runs into an unreachable one.
func (l *LPAStar) collectPath() ([]da.Index, bool) {
	seen := make([]bool, l.grid.NumberOfCells())
	path := []da.Index{l.t}
	for x := l.t; x != l.s; {
		seen[x] = true

		best, bestCost := da.INVALID_INDEX, pkg.INF_COST
		l.graph.ForInEdgesOf(x, func(e da.InEdge) {
			if c := addCost(l.g[e.GetTail()], e.GetWeight()); c < bestCost {
				best, bestCost = e.GetTail(), c
			}
		})
		if best == da.INVALID_INDEX || seen[best] {
			return nil, false
		}
		x = best
		path = append(path, x)
	}
	return util.ReverseG(path), true
}

// HandleMapChanges patches the edge weights around every changed cell and re-derives
// rhs for the cell and its successors. The grid must already reflect the changes.
func (l *LPAStar) HandleMapChanges(b *Blackboard, opts Options, toBecomeObstacles, toRemoveObstacles []da.Cell) {
	if len(toBecomeObstacles) == 0 && len(toRemoveObstacles) == 0 {
		return
	}
	l.logger.Info("applying incremental map changes",
		zap.Int("added_obstacles", len(toBecomeObstacles)), zap.Int("removed_obstacles", len(toRemoveObstacles)))

	b.Reset()
	l.force = false

	for _, c := range toBecomeObstacles {
		x := l.grid.PackCell(c)
		l.graph.BlockVertex(x)
		l.propagateChange(x)
	}
	for _, c := range toRemoveObstacles {
		x := l.grid.PackCell(c)
		l.graph.UnblockVertex(x)
		l.propagateChange(x)
	}
}

func (l *LPAStar) propagateChange(x da.Index) {
	l.updateVertex(x)
	l.graph.ForSuccessorsOf(x, func(y da.Index) {
		l.updateVertex(y)
	})
}

func (l *LPAStar) HandleStartPointChange(b *Blackboard, opts Options) {
	l.logger.Info("start point changed, recomputing", zap.String("algorithm", LPASTAR))
	l.Setup(b, opts)
}

// G returns the committed cost of c.
func (l *LPAStar) G(c da.Cell) int {
	return l.g[l.grid.PackCell(c)]
}

// Rhs returns the lookahead cost of c.
func (l *LPAStar) Rhs(c da.Cell) int {
	return l.rhs[l.grid.PackCell(c)]
}

// IsConsistent reports whether every cell has g == rhs.
func (l *LPAStar) IsConsistent() bool {
	return l.pq.IsEmpty()
}
