package search

import (
	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
)

// Blackboard is the only channel between the active algorithm and its readers.
// The algorithm writes it, everybody else reads it.
type Blackboard struct {
	// set once the path is final
	Stopped bool `json:"stopped"`
	// closed set
	Visited [][]bool `json:"visited"`
	// best known cost of cells in the open set, NOT_EXPLORING otherwise
	Exploring [][]int `json:"exploring"`
	// start to target inclusive, empty until success
	Path []da.Cell `json:"path"`

	SupportsFlowField bool `json:"supports_flow_field"`
	// direction index into DIRECTIONS, NO_DIRECTION when there is no flow
	Flows [][]int `json:"flows"`
}

func NewBlackboard(rows, cols int) *Blackboard {
	b := &Blackboard{
		Visited:   make([][]bool, rows),
		Exploring: make([][]int, rows),
		Flows:     make([][]int, rows),
	}
	for i := 0; i < rows; i++ {
		b.Visited[i] = make([]bool, cols)
		b.Exploring[i] = make([]int, cols)
		b.Flows[i] = make([]int, cols)
	}
	b.Reset()
	return b
}

// Reset clears the blackboard. Flow field support is off by default.
func (b *Blackboard) Reset() {
	b.Stopped = false
	for i := range b.Visited {
		for j := range b.Visited[i] {
			b.Visited[i][j] = false
			b.Exploring[i][j] = pkg.NOT_EXPLORING
			b.Flows[i][j] = pkg.NO_DIRECTION
		}
	}
	b.SupportsFlowField = false
	b.Path = nil
}

func (b *Blackboard) Rows() int {
	return len(b.Visited)
}

func (b *Blackboard) Cols() int {
	if len(b.Visited) == 0 {
		return 0
	}
	return len(b.Visited[0])
}

func (b *Blackboard) visit(c da.Cell) {
	b.Visited[c.Row][c.Col] = true
}

func (b *Blackboard) explore(c da.Cell, cost int) {
	b.Exploring[c.Row][c.Col] = cost
}

func (b *Blackboard) unexplore(c da.Cell) {
	b.Exploring[c.Row][c.Col] = pkg.NOT_EXPLORING
}

func (b *Blackboard) IsVisited(c da.Cell) bool {
	return b.Visited[c.Row][c.Col]
}

func (b *Blackboard) NumberOfVisited() int {
	n := 0
	for i := range b.Visited {
		for _, v := range b.Visited[i] {
			if v {
				n++
			}
		}
	}
	return n
}

// PathCost sums the move costs along Path.
func (b *Blackboard) PathCost() int {
	return PathCost(b.Path)
}

func (b *Blackboard) Clone() *Blackboard {
	c := NewBlackboard(b.Rows(), b.Cols())
	c.Stopped = b.Stopped
	c.SupportsFlowField = b.SupportsFlowField
	for i := range b.Visited {
		copy(c.Visited[i], b.Visited[i])
		copy(c.Exploring[i], b.Exploring[i])
		copy(c.Flows[i], b.Flows[i])
	}
	c.Path = append([]da.Cell(nil), b.Path...)
	return c
}
