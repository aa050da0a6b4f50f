package search

import (
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"go.uber.org/zap"
)

// FlowField runs a backward dijkstra from the target, then points every free cell at
// its neighbor with the smallest distance. Any start follows the arrows to the target.
type FlowField struct {
	grid   *da.Grid
	logger *zap.Logger

	graph          *da.Graph
	directionCount int

	dist []int // backward distance to t
	pq   *da.MinHeap[da.Index]

	s, t      da.Index
	flowReady bool
}

func NewFlowField(grid *da.Grid, logger *zap.Logger) *FlowField {
	return &FlowField{
		grid:   grid,
		logger: logger,
		pq:     da.NewFourAryHeap[da.Index](),
	}
}

func (ff *FlowField) Name() string {
	return FLOW_FIELD
}

func (ff *FlowField) Setup(b *Blackboard, opts Options) {
	b.Reset()
	b.SupportsFlowField = true

	ff.directionCount = opts.DirectionCount
	ff.graph = da.BuildEdges(ff.grid, opts.DirectionCount)

	n := ff.grid.NumberOfCells()
	ff.dist = newCostArray(n)
	ff.pq.Clear()
	ff.pq.Preallocate(n)
	ff.flowReady = false

	ff.s = ff.grid.PackCell(opts.Start)
	ff.t = ff.grid.PackCell(opts.Target)

	ff.dist[ff.t] = 0
	ff.pq.Insert(da.NewPriorityQueueNode(0, ff.t))
}

func (ff *FlowField) Update(b *Blackboard) Status {
	if b.Stopped {
		return SUCCESS
	}

	if !ff.flowReady {
		for !ff.pq.IsEmpty() {
			node, _ := ff.pq.ExtractMin()
			x := node.GetItem()
			xc := ff.grid.Unpack(x)

			b.unexplore(xc)
			if b.IsVisited(xc) {
				continue
			}
			b.visit(xc)

			ff.graph.ForOutEdgesOf(x, func(e da.OutEdge) {
				y := e.GetHead()
				d := ff.dist[x] + e.GetWeight()
				if d >= ff.dist[y] {
					return
				}
				ff.dist[y] = d
				ff.pq.Insert(da.NewPriorityQueueNode(d, y))
				b.explore(ff.grid.Unpack(y), d)
			})
			return IN_PROGRESS
		}

		ff.calculateFlows(b)
		ff.flowReady = true
		return IN_PROGRESS
	}

	path, ok := ff.followFlows(b)
	if !ok {
		b.Path = nil
		return FAILURE
	}
	b.Path = path
	b.Stopped = true
	return SUCCESS
}

// calculateFlows records, for every free cell, the direction of its free neighbor with
// the strictly smallest distance. Unreachable cells and the target get NO_DIRECTION.
func (ff *FlowField) calculateFlows(b *Blackboard) {
	for x := da.Index(0); x < da.Index(ff.grid.NumberOfCells()); x++ {
		xc := ff.grid.Unpack(x)
		b.Flows[xc.Row][xc.Col] = pkg.NO_DIRECTION
		if x == ff.t || ff.grid.IsObstacleIndex(x) || ff.dist[x] >= pkg.INF_COST {
			continue
		}

		best := pkg.INF_COST
		ff.grid.ForNeighborsOf(x, ff.directionCount, func(y da.Index, dir int, _ int) {
			if ff.grid.IsObstacleIndex(y) {
				return
			}
			if ff.dist[y] < best {
				best = ff.dist[y]
				b.Flows[xc.Row][xc.Col] = dir
			}
		})
	}
}

// followFlows walks the arrows from s. The walk is bounded by the cell count.
func (ff *FlowField) followFlows(b *Blackboard) ([]da.Cell, bool) {
	c := ff.grid.Unpack(ff.s)
	target := ff.grid.Unpack(ff.t)
	path := []da.Cell{c}
	for steps := 0; c != target; steps++ {
		if steps >= ff.grid.NumberOfCells() {
			ff.logger.Warn("flow field walk did not reach the target", zap.String("start", path[0].String()))
			return nil, false
		}
		dir := b.Flows[c.Row][c.Col]
		if dir == pkg.NO_DIRECTION {
			return nil, false
		}
		c = da.Step(c, dir)
		path = append(path, c)
	}
	return path, true
}

func (ff *FlowField) HandleMapChanges(b *Blackboard, opts Options, toBecomeObstacles, toRemoveObstacles []da.Cell) {
	if len(toBecomeObstacles) == 0 && len(toRemoveObstacles) == 0 {
		return
	}
	ff.logger.Info("incremental update is not supported, recomputing", zap.String("algorithm", FLOW_FIELD))
	ff.Setup(b, opts)
}

// HandleStartPointChange keeps the flow field and only forgets the extracted path.
func (ff *FlowField) HandleStartPointChange(b *Blackboard, opts Options) {
	ff.s = ff.grid.PackCell(opts.Start)
	b.Path = nil
	b.Stopped = false
}

// Distance returns the backward distance of c to the target.
func (ff *FlowField) Distance(c da.Cell) int {
	return ff.dist[ff.grid.PackCell(c)]
}
