package datastructure

import (
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/Pathviz/pkg"
	"golang.org/x/exp/rand"
)

type Index uint32

const (
	INVALID_INDEX Index = math.MaxUint32
)

var (
	ErrOutOfBounds       = errors.New("datastructure: cell is outside of the grid")
	ErrDimensionMismatch = errors.New("datastructure: grid dimensions must be positive and rectangular")
)

// Cell is a (row, col) coordinate on the grid.
type Cell struct {
	Row int `json:"row" validate:"min=0"`
	Col int `json:"col" validate:"min=0"`
}

func NewCell(row, col int) Cell {
	return Cell{Row: row, Col: col}
}

func (c Cell) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

type Direction struct {
	cost int
	dRow int
	dCol int
}

func (d Direction) GetCost() int {
	return d.cost
}

func (d Direction) GetDRow() int {
	return d.dRow
}

func (d Direction) GetDCol() int {
	return d.dCol
}

// the first 4 directions are horizontal & vertical, the last 4 are diagonal
var DIRECTIONS = [8]Direction{
	{pkg.COST_UNIT, 0, 1},       // right
	{pkg.COST_UNIT, 0, -1},      // left
	{pkg.COST_UNIT, -1, 0},      // up
	{pkg.COST_UNIT, 1, 0},       // down
	{pkg.DIAGONAL_COST, -1, -1}, // up-left
	{pkg.DIAGONAL_COST, 1, -1},  // down-left
	{pkg.DIAGONAL_COST, -1, 1},  // up-right
	{pkg.DIAGONAL_COST, 1, 1},   // down-right
}

// DirectionCount returns how many entries of DIRECTIONS are used.
func DirectionCount(use4Directions bool) int {
	if use4Directions {
		return 4
	}
	return 8
}

// Grid is a fixed-size obstacle bitmap. Node ids are packed as row*cols + col.
type Grid struct {
	rows      int
	cols      int
	obstacles []bool
	changed   []bool // cells flipped an odd number of times since the last ClearChanged
}

func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrDimensionMismatch
	}
	return &Grid{
		rows:      rows,
		cols:      cols,
		obstacles: make([]bool, rows*cols),
		changed:   make([]bool, rows*cols),
	}, nil
}

// NewGridFromMatrix builds a grid from rows of 0 (free) / non-zero (obstacle) values.
func NewGridFromMatrix(m [][]int) (*Grid, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, ErrDimensionMismatch
	}
	g, err := NewGrid(len(m), len(m[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range m {
		if len(row) != g.cols {
			return nil, ErrDimensionMismatch
		}
		for j, v := range row {
			g.obstacles[g.Pack(i, j)] = v != 0
		}
	}
	return g, nil
}

// RandomGrid places obstacles independently with the given density, keeping the
// cells listed in keepFree clear.
func RandomGrid(rows, cols int, density float64, rd *rand.Rand, keepFree ...Cell) (*Grid, error) {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	for x := range g.obstacles {
		g.obstacles[x] = rd.Float64() < density
	}
	for _, c := range keepFree {
		if g.InBounds(c.Row, c.Col) {
			g.obstacles[g.PackCell(c)] = false
		}
	}
	return g, nil
}

func (g *Grid) Rows() int {
	return g.rows
}

func (g *Grid) Cols() int {
	return g.cols
}

func (g *Grid) NumberOfCells() int {
	return g.rows * g.cols
}

func (g *Grid) Pack(row, col int) Index {
	return Index(row*g.cols + col)
}

func (g *Grid) PackCell(c Cell) Index {
	return g.Pack(c.Row, c.Col)
}

func (g *Grid) UnpackRow(x Index) int {
	return int(x) / g.cols
}

func (g *Grid) UnpackCol(x Index) int {
	return int(x) % g.cols
}

func (g *Grid) Unpack(x Index) Cell {
	return Cell{Row: g.UnpackRow(x), Col: g.UnpackCol(x)}
}

func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

func (g *Grid) Contains(c Cell) bool {
	return g.InBounds(c.Row, c.Col)
}

func (g *Grid) IsObstacle(row, col int) bool {
	return g.obstacles[g.Pack(row, col)]
}

func (g *Grid) IsObstacleIndex(x Index) bool {
	return g.obstacles[x]
}

func (g *Grid) SetObstacle(c Cell, obstacle bool) error {
	if !g.Contains(c) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	x := g.PackCell(c)
	if g.obstacles[x] != obstacle {
		g.obstacles[x] = obstacle
		// flipping a cell twice restores it
		g.changed[x] = !g.changed[x]
	}
	return nil
}

func (g *Grid) AddObstacle(c Cell) error {
	return g.SetObstacle(c, true)
}

func (g *Grid) RemoveObstacle(c Cell) error {
	return g.SetObstacle(c, false)
}

func (g *Grid) NumberOfObstacles() int {
	n := 0
	for _, o := range g.obstacles {
		if o {
			n++
		}
	}
	return n
}

func (g *Grid) ChangedCells() []Cell {
	cells := make([]Cell, 0)
	for x, c := range g.changed {
		if c {
			cells = append(cells, g.Unpack(Index(x)))
		}
	}
	return cells
}

func (g *Grid) ClearChanged() {
	for x := range g.changed {
		g.changed[x] = false
	}
}

func (g *Grid) Clone() *Grid {
	c := &Grid{
		rows:      g.rows,
		cols:      g.cols,
		obstacles: make([]bool, len(g.obstacles)),
		changed:   make([]bool, len(g.changed)),
	}
	copy(c.obstacles, g.obstacles)
	copy(c.changed, g.changed)
	return c
}

// ForNeighborsOf iterates the in-bounds neighbors of x over the first directionCount
// entries of DIRECTIONS. Obstacles are not filtered.
func (g *Grid) ForNeighborsOf(x Index, directionCount int, handle func(y Index, dir int, cost int)) {
	i, j := g.UnpackRow(x), g.UnpackCol(x)
	for k := 0; k < directionCount; k++ {
		d := DIRECTIONS[k]
		i1, j1 := i+d.dRow, j+d.dCol
		if !g.InBounds(i1, j1) {
			continue
		}
		handle(g.Pack(i1, j1), k, d.cost)
	}
}

// Step returns the neighbor of c in direction dir.
func Step(c Cell, dir int) Cell {
	d := DIRECTIONS[dir]
	return Cell{Row: c.Row + d.dRow, Col: c.Col + d.dCol}
}

// MoveCost returns the cost of a single move between two adjacent cells.
func MoveCost(a, b Cell) int {
	if a.Row != b.Row && a.Col != b.Col {
		return pkg.DIAGONAL_COST
	}
	return pkg.COST_UNIT
}
