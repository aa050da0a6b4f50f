package datastructure

// OutEdge is a (weight, head) pair of the adjacency list.
type OutEdge struct {
	weight int
	head   Index
}

func NewOutEdge(head Index, weight int) OutEdge {
	return OutEdge{weight: weight, head: head}
}

func (e OutEdge) GetWeight() int {
	return e.weight
}

func (e OutEdge) GetHead() Index {
	return e.head
}

// Graph is the adjacency list derived from a grid. Obstacle cells have no edges,
// and no edge lands on an obstacle.
type Graph struct {
	outEdges [][]OutEdge
}

// BuildEdges derives the adjacency list of grid using the first directionCount
// entries of DIRECTIONS. Calling it again after the grid changed rebuilds from scratch.
func BuildEdges(grid *Grid, directionCount int) *Graph {
	g := &Graph{outEdges: make([][]OutEdge, grid.NumberOfCells())}
	for x := Index(0); x < Index(grid.NumberOfCells()); x++ {
		if grid.IsObstacleIndex(x) {
			continue
		}
		edges := make([]OutEdge, 0, directionCount)
		grid.ForNeighborsOf(x, directionCount, func(y Index, _ int, cost int) {
			if grid.IsObstacleIndex(y) {
				return
			}
			edges = append(edges, NewOutEdge(y, cost))
		})
		g.outEdges[x] = edges
	}
	return g
}

func (g *Graph) NumberOfVertices() int {
	return len(g.outEdges)
}

func (g *Graph) GetOutDegree(u Index) int {
	return len(g.outEdges[u])
}

func (g *Graph) ForOutEdgesOf(u Index, handle func(e OutEdge)) {
	for _, e := range g.outEdges[u] {
		handle(e)
	}
}
