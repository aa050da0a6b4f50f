package search

import (
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"go.uber.org/zap"
)

// priorityFunc combines the realized cost g and the heuristic estimate h into a
// frontier priority.
type priorityFunc func(g, h int) int

// BestFirstSearch is the label-setting search shared by dijkstra, greedy and astar.
// Only the frontier priority differs between them.
type BestFirstSearch struct {
	name          string
	grid          *da.Grid
	logger        *zap.Logger
	priority      priorityFunc
	withHeuristic bool

	// re-expand closed nodes reached by a cheaper label. the euclidean heuristic is
	// admissible but not consistent on 8 directions
	reopen bool

	graph     *da.Graph
	heuristic heuristicFunc
	weight    int

	dist     []int      // realized cost from s
	from     []da.Index // shortest path parent, INVALID_INDEX if unreached
	expanded []int      // dist[x] at the last expansion of x
	pq       *da.MinHeap[da.Index]

	s, t da.Index

	numSettledNodes int
}

func newBestFirstSearch(name string, grid *da.Grid, logger *zap.Logger, withHeuristic bool) *BestFirstSearch {
	return &BestFirstSearch{
		name:          name,
		grid:          grid,
		logger:        logger,
		withHeuristic: withHeuristic,
		pq:            da.NewFourAryHeap[da.Index](),
	}
}

func NewDijkstra(grid *da.Grid, logger *zap.Logger) *BestFirstSearch {
	bfs := newBestFirstSearch(DIJKSTRA, grid, logger, false)
	bfs.priority = func(g, _ int) int { return g }
	return bfs
}

// NewGreedy orders the frontier by the heuristic estimate alone.
func NewGreedy(grid *da.Grid, logger *zap.Logger) *BestFirstSearch {
	bfs := newBestFirstSearch(GREEDY, grid, logger, true)
	bfs.priority = func(_, h int) int { return h }
	return bfs
}

// NewAStar orders the frontier by g + weight*h. Weight 0 degenerates to dijkstra.
func NewAStar(grid *da.Grid, logger *zap.Logger) *BestFirstSearch {
	bfs := newBestFirstSearch(ASTAR, grid, logger, true)
	bfs.reopen = true
	bfs.priority = func(g, h int) int { return g + bfs.weight*h }
	return bfs
}

func (bfs *BestFirstSearch) Name() string {
	return bfs.name
}

func (bfs *BestFirstSearch) Setup(b *Blackboard, opts Options) {
	b.Reset()

	bfs.heuristic = zeroHeuristic
	if bfs.withHeuristic {
		bfs.heuristic = newHeuristic(bfs.grid, opts.Heuristic)
		bfs.logger.Info("heuristic selected", zap.String("algorithm", bfs.name),
			zap.String("heuristic", string(opts.Heuristic)), zap.Int("weight", opts.HeuristicWeight))
	}
	bfs.weight = opts.HeuristicWeight

	bfs.graph = da.BuildEdges(bfs.grid, opts.DirectionCount)

	n := bfs.grid.NumberOfCells()
	bfs.dist = newCostArray(n)
	bfs.from = newParentArray(n)
	bfs.expanded = newCostArray(n)
	bfs.pq.Clear()
	bfs.pq.Preallocate(n)
	bfs.numSettledNodes = 0

	bfs.s = bfs.grid.PackCell(opts.Start)
	bfs.t = bfs.grid.PackCell(opts.Target)

	bfs.dist[bfs.s] = 0
	bfs.from[bfs.s] = bfs.s
	bfs.pq.Insert(da.NewPriorityQueueNode(bfs.priority(0, bfs.heuristic(bfs.s, bfs.t)), bfs.s))
}

func (bfs *BestFirstSearch) Update(b *Blackboard) Status {
	if b.Stopped {
		return SUCCESS
	}
	for !bfs.pq.IsEmpty() {
		node, _ := bfs.pq.ExtractMin()
		x := node.GetItem()
		xc := bfs.grid.Unpack(x)

		b.unexplore(xc)
		if bfs.isStale(x, b.IsVisited(xc)) {
			continue
		}
		b.visit(xc)
		bfs.expanded[x] = bfs.dist[x]
		bfs.numSettledNodes++

		if x == bfs.t {
			break
		}

		bfs.graph.ForOutEdgesOf(x, func(e da.OutEdge) {
			y := e.GetHead()
			g := bfs.dist[x] + e.GetWeight()
			if g >= bfs.dist[y] {
				return
			}
			bfs.dist[y] = g
			bfs.from[y] = x
			bfs.pq.Insert(da.NewPriorityQueueNode(bfs.priority(g, bfs.heuristic(y, bfs.t)), y))
			b.explore(bfs.grid.Unpack(y), g)
		})

		// one expansion per Update
		return IN_PROGRESS
	}

	if bfs.from[bfs.t] == da.INVALID_INDEX {
		return FAILURE
	}
	b.Path = toCells(bfs.grid, collectPath(bfs.from, bfs.s, bfs.t))
	b.Stopped = true
	return SUCCESS
}

// isStale reports whether a popped entry must be discarded. Without reopening every
// pop of a closed node is stale, with it only those not improved since the last expansion.
func (bfs *BestFirstSearch) isStale(x da.Index, closed bool) bool {
	if bfs.reopen {
		return bfs.dist[x] >= bfs.expanded[x]
	}
	return closed
}

func (bfs *BestFirstSearch) HandleMapChanges(b *Blackboard, opts Options, toBecomeObstacles, toRemoveObstacles []da.Cell) {
	if len(toBecomeObstacles) == 0 && len(toRemoveObstacles) == 0 {
		return
	}
	bfs.logger.Info("incremental update is not supported, recomputing", zap.String("algorithm", bfs.name))
	bfs.Setup(b, opts)
}

func (bfs *BestFirstSearch) HandleStartPointChange(b *Blackboard, opts Options) {
	bfs.logger.Info("start point change is not supported, recomputing", zap.String("algorithm", bfs.name))
	bfs.Setup(b, opts)
}

// Distance returns the realized cost of c found so far.
func (bfs *BestFirstSearch) Distance(c da.Cell) int {
	return bfs.dist[bfs.grid.PackCell(c)]
}

func (bfs *BestFirstSearch) NumberOfSettledNodes() int {
	return bfs.numSettledNodes
}
