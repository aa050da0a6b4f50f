package search

import (
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"go.uber.org/zap"
)

// searchSide holds the labels of one direction of a bidirectional search.
// The backward side runs on the same graph since every grid move is symmetric.
type searchSide struct {
	dist     []int
	from     []da.Index // forward: parent toward s. backward: successor toward t
	closed   []bool
	expanded []int // dist at the last expansion, for reopening
	pq       *da.MinHeap[da.Index]
	goal     da.Index
}

func newSearchSide() *searchSide {
	return &searchSide{pq: da.NewFourAryHeap[da.Index]()}
}

func (side *searchSide) reset(n int, root, goal da.Index) {
	side.dist = newCostArray(n)
	side.from = newParentArray(n)
	side.closed = make([]bool, n)
	side.expanded = newCostArray(n)
	side.pq.Clear()
	side.pq.Preallocate(n)
	side.goal = goal
	side.dist[root] = 0
	side.from[root] = root
}

// BidirectionalSearch grows one frontier from s and one from t and joins them at
// the node minimizing forward + backward cost (mu). Each Update expands the smaller
// frontier, the backward one on ties.
type BidirectionalSearch struct {
	name          string
	grid          *da.Grid
	logger        *zap.Logger
	withHeuristic bool

	// stop as soon as one node is closed by both sides
	stopOnMeet bool
	// re-expand closed nodes reached by a cheaper label
	reopen bool

	graph     *da.Graph
	heuristic heuristicFunc
	weight    int

	forward, backward *searchSide

	mu      int
	meeting da.Index

	s, t da.Index
}

func newBidirectionalSearch(name string, grid *da.Grid, logger *zap.Logger, withHeuristic bool) *BidirectionalSearch {
	return &BidirectionalSearch{
		name:          name,
		grid:          grid,
		logger:        logger,
		withHeuristic: withHeuristic,
		stopOnMeet:    !withHeuristic,
		reopen:        withHeuristic,
		forward:       newSearchSide(),
		backward:      newSearchSide(),
	}
}

func NewBidirectionalDijkstra(grid *da.Grid, logger *zap.Logger) *BidirectionalSearch {
	return newBidirectionalSearch(DIJKSTRA_BI, grid, logger, false)
}

// NewBidirectionalAStar guides each side with the weighted heuristic toward its own goal.
// It only stops once the smallest popped key reaches mu.
func NewBidirectionalAStar(grid *da.Grid, logger *zap.Logger) *BidirectionalSearch {
	return newBidirectionalSearch(ASTAR_BI, grid, logger, true)
}

func (bi *BidirectionalSearch) Name() string {
	return bi.name
}

func (bi *BidirectionalSearch) Setup(b *Blackboard, opts Options) {
	b.Reset()

	bi.heuristic = zeroHeuristic
	bi.weight = 0
	if bi.withHeuristic {
		bi.heuristic = newHeuristic(bi.grid, opts.Heuristic)
		bi.weight = opts.HeuristicWeight
	}

	bi.graph = da.BuildEdges(bi.grid, opts.DirectionCount)

	n := bi.grid.NumberOfCells()
	bi.s = bi.grid.PackCell(opts.Start)
	bi.t = bi.grid.PackCell(opts.Target)

	bi.forward.reset(n, bi.s, bi.t)
	bi.backward.reset(n, bi.t, bi.s)

	bi.mu = pkg.INF_COST
	bi.meeting = da.INVALID_INDEX
	if bi.s == bi.t {
		bi.mu = 0
		bi.meeting = bi.s
	}

	bi.forward.pq.Insert(da.NewPriorityQueueNode(bi.priority(0, bi.s, bi.t), bi.s))
	bi.backward.pq.Insert(da.NewPriorityQueueNode(bi.priority(0, bi.t, bi.s), bi.t))
}

func (bi *BidirectionalSearch) priority(g int, x, goal da.Index) int {
	return g + bi.weight*bi.heuristic(x, goal)
}

func (bi *BidirectionalSearch) Update(b *Blackboard) Status {
	if b.Stopped {
		return SUCCESS
	}

	for !bi.forward.pq.IsEmpty() && !bi.backward.pq.IsEmpty() {
		side, other := bi.backward, bi.forward
		if bi.forward.pq.Size() < bi.backward.pq.Size() {
			side, other = bi.forward, bi.backward
		}

		node, _ := side.pq.ExtractMin()
		x := node.GetItem()
		if bi.isStale(side, x) {
			continue
		}
		if node.GetRank() >= bi.mu {
			break
		}

		xc := bi.grid.Unpack(x)
		side.closed[x] = true
		side.expanded[x] = side.dist[x]
		b.unexplore(xc)
		b.visit(xc)

		if bi.stopOnMeet && other.closed[x] {
			break
		}

		bi.graph.ForOutEdgesOf(x, func(e da.OutEdge) {
			y := e.GetHead()
			g := side.dist[x] + e.GetWeight()
			if g >= side.dist[y] {
				return
			}
			side.dist[y] = g
			side.from[y] = x
			side.pq.Insert(da.NewPriorityQueueNode(bi.priority(g, y, side.goal), y))
			b.explore(bi.grid.Unpack(y), g)

			if through := addCost(g, other.dist[y]); through < bi.mu {
				bi.mu = through
				bi.meeting = y
			}
		})

		return IN_PROGRESS
	}

	if bi.mu >= pkg.INF_COST {
		return FAILURE
	}

	b.Path = toCells(bi.grid, bi.joinPath())
	b.Stopped = true
	return SUCCESS
}

func (bi *BidirectionalSearch) isStale(side *searchSide, x da.Index) bool {
	if bi.reopen {
		return side.dist[x] >= side.expanded[x]
	}
	return side.closed[x]
}

// joinPath returns s..meeting from the forward parents followed by meeting..t from
// the backward successors, meeting appearing once.
func (bi *BidirectionalSearch) joinPath() []da.Index {
	path := collectPath(bi.forward.from, bi.s, bi.meeting)
	for x := bi.meeting; x != bi.t; {
		x = bi.backward.from[x]
		path = append(path, x)
	}
	return path
}

func (bi *BidirectionalSearch) HandleMapChanges(b *Blackboard, opts Options, toBecomeObstacles, toRemoveObstacles []da.Cell) {
	if len(toBecomeObstacles) == 0 && len(toRemoveObstacles) == 0 {
		return
	}
	bi.logger.Info("incremental update is not supported, recomputing", zap.String("algorithm", bi.name))
	bi.Setup(b, opts)
}

func (bi *BidirectionalSearch) HandleStartPointChange(b *Blackboard, opts Options) {
	bi.logger.Info("start point change is not supported, recomputing", zap.String("algorithm", bi.name))
	bi.Setup(b, opts)
}

// Mu returns the cost of the best s-t connection found so far.
func (bi *BidirectionalSearch) Mu() int {
	return bi.mu
}
