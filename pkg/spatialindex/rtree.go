package spatialindex

import (
	"math"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree indexes the free cells of a grid as points (col, row).
type Rtree struct {
	tr         *rtree.RTreeG[da.Cell]
	rows, cols int
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[da.Cell]
	return &Rtree{
		tr: &tr,
	}
}

func point(c da.Cell) [2]float64 {
	return [2]float64{float64(c.Col), float64(c.Row)}
}

// Build indexes every free cell of grid, dropping any previous content.
func (rt *Rtree) Build(grid *da.Grid, log *zap.Logger) {
	log.Info("Building R-tree spatial index of free cells...")
	var tr rtree.RTreeG[da.Cell]
	rt.tr = &tr
	rt.rows, rt.cols = grid.Rows(), grid.Cols()
	for i := 0; i < grid.Rows(); i++ {
		for j := 0; j < grid.Cols(); j++ {
			if !grid.IsObstacle(i, j) {
				rt.Insert(da.NewCell(i, j))
			}
		}
	}
	log.Info("R-tree spatial index built.", zap.Int("free_cells", rt.tr.Len()))
}

// Insert marks c as free.
func (rt *Rtree) Insert(c da.Cell) {
	p := point(c)
	rt.tr.Insert(p, p, c)
}

// Delete marks c as blocked.
func (rt *Rtree) Delete(c da.Cell) {
	p := point(c)
	rt.tr.Delete(p, p, c)
}

// Update applies a map change to the index.
func (rt *Rtree) Update(toBecomeObstacles, toRemoveObstacles []da.Cell) {
	for _, c := range toBecomeObstacles {
		rt.Delete(c)
	}
	for _, c := range toRemoveObstacles {
		rt.Insert(c)
	}
}

func (rt *Rtree) Len() int {
	return rt.tr.Len()
}

// SearchWithinRadius returns the free cells whose row and col are both within radius of c.
func (rt *Rtree) SearchWithinRadius(c da.Cell, radius int) []da.Cell {
	lower := [2]float64{float64(c.Col - radius), float64(c.Row - radius)}
	upper := [2]float64{float64(c.Col + radius), float64(c.Row + radius)}

	results := make([]da.Cell, 0, 10)
	rt.tr.Search(lower, upper,
		func(min, max [2]float64, data da.Cell) bool {
			results = append(results, data)
			return true
		})
	return results
}

func squaredDist(a, b da.Cell) int {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	return dr*dr + dc*dc
}

// closest picks the cell with the smallest euclidean distance to c, ties go to the
// smaller (row, col).
func closest(c da.Cell, cells []da.Cell) (da.Cell, int) {
	best, bestDist := da.Cell{}, math.MaxInt
	for _, x := range cells {
		d := squaredDist(c, x)
		if d < bestDist || (d == bestDist && (x.Row < best.Row || (x.Row == best.Row && x.Col < best.Col))) {
			best, bestDist = x, d
		}
	}
	return best, bestDist
}

// Nearest returns the free cell closest to c. The square window grows until it holds a
// candidate, then one more search with the candidate's distance as radius makes the
// answer exact.
func (rt *Rtree) Nearest(c da.Cell) (da.Cell, bool) {
	if rt.tr.Len() == 0 {
		return da.Cell{}, false
	}
	maxRadius := max(rt.rows, rt.cols, 1)
	for radius := 0; ; radius = max(1, radius*2) {
		cells := rt.SearchWithinRadius(c, radius)
		if len(cells) > 0 {
			_, d := closest(c, cells)
			exact := int(math.Ceil(math.Sqrt(float64(d))))
			best, _ := closest(c, rt.SearchWithinRadius(c, exact))
			return best, true
		}
		if radius >= maxRadius {
			break
		}
	}
	return da.Cell{}, false
}
