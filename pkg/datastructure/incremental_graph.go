package datastructure

import "github.com/lintang-b-s/Pathviz/pkg"

// InEdge is a predecessor entry: the edge tail -> v with the current weight.
type InEdge struct {
	tail   Index
	weight int
	dir    int // index into DIRECTIONS of the move tail -> v
}

func (e InEdge) GetTail() Index {
	return e.tail
}

func (e InEdge) GetWeight() int {
	return e.weight
}

// IncrementalGraph keeps predecessor & successor lists for every cell pair within
// direction range. Obstacles are modelled as INF_COST weights, never as missing
// edges, so a map change only patches the edges around the changed cell.
type IncrementalGraph struct {
	grid *Grid
	pred [][]InEdge
	succ [][]Index
}

func BuildIncrementalGraph(grid *Grid, directionCount int) *IncrementalGraph {
	n := grid.NumberOfCells()
	g := &IncrementalGraph{
		grid: grid,
		pred: make([][]InEdge, n),
		succ: make([][]Index, n),
	}
	for x := Index(0); x < Index(n); x++ {
		grid.ForNeighborsOf(x, directionCount, func(y Index, dir int, cost int) {
			g.succ[x] = append(g.succ[x], y)
			w := cost
			if grid.IsObstacleIndex(x) || grid.IsObstacleIndex(y) {
				w = pkg.INF_COST
			}
			g.pred[y] = append(g.pred[y], InEdge{tail: x, weight: w, dir: dir})
		})
	}
	return g
}

func (g *IncrementalGraph) NumberOfVertices() int {
	return len(g.succ)
}

func (g *IncrementalGraph) ForInEdgesOf(v Index, handle func(e InEdge)) {
	for _, e := range g.pred[v] {
		handle(e)
	}
}

func (g *IncrementalGraph) ForSuccessorsOf(u Index, handle func(v Index)) {
	for _, v := range g.succ[u] {
		handle(v)
	}
}

// GetWeight returns the current weight of u -> v, or INF_COST if v is not a successor of u.
func (g *IncrementalGraph) GetWeight(u, v Index) int {
	for _, e := range g.pred[v] {
		if e.tail == u {
			return e.weight
		}
	}
	return pkg.INF_COST
}

// BlockVertex saturates every edge entering or leaving x.
func (g *IncrementalGraph) BlockVertex(x Index) {
	for i := range g.pred[x] {
		g.pred[x][i].weight = pkg.INF_COST
	}
	for _, y := range g.succ[x] {
		for i := range g.pred[y] {
			if g.pred[y][i].tail == x {
				g.pred[y][i].weight = pkg.INF_COST
			}
		}
	}
}

// UnblockVertex restores the true cost of the edges around x whose other endpoint
// is free in the grid. The grid must already reflect the removal.
func (g *IncrementalGraph) UnblockVertex(x Index) {
	for i := range g.pred[x] {
		e := &g.pred[x][i]
		e.weight = g.edgeCost(e.tail, x, e.dir)
	}
	for _, y := range g.succ[x] {
		for i := range g.pred[y] {
			e := &g.pred[y][i]
			if e.tail == x {
				e.weight = g.edgeCost(x, y, e.dir)
			}
		}
	}
}

func (g *IncrementalGraph) edgeCost(u, v Index, dir int) int {
	if g.grid.IsObstacleIndex(u) || g.grid.IsObstacleIndex(v) {
		return pkg.INF_COST
	}
	return DIRECTIONS[dir].cost
}
