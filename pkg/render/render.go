package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"

	"github.com/fogleman/gg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
)

const (
	DEFAULT_CELL_SIZE = 40
)

var (
	ColorBorder    = color.RGBA{0, 0, 0, 255}
	ColorChanged   = color.RGBA{255, 0, 0, 255}
	ColorObstacle  = color.RGBA{64, 64, 64, 255}
	ColorEndpoint  = color.RGBA{0, 255, 0, 255}
	ColorPath      = color.RGBA{0, 255, 0, 255}
	ColorVisited   = color.RGBA{0, 150, 255, 255}
	ColorExploring = color.RGBA{173, 216, 230, 255}
	ColorFree      = color.RGBA{255, 255, 255, 255}
	ColorArrow     = color.RGBA{0, 0, 0, 255}
)

// Renderer draws engine snapshots, one square of cellSize pixels per cell with a one
// pixel border.
type Renderer struct {
	cellSize int
}

func NewRenderer(cellSize int) *Renderer {
	if cellSize < 4 {
		cellSize = DEFAULT_CELL_SIZE
	}
	return &Renderer{cellSize: cellSize}
}

func (r *Renderer) CellSize() int {
	return r.cellSize
}

// CellAt maps a pixel to the cell under it.
func (r *Renderer) CellAt(x, y int) da.Cell {
	return da.NewCell(y/r.cellSize, x/r.cellSize)
}

func (r *Renderer) fillColor(snap *engine.Snapshot, c da.Cell, obstacles, path map[da.Cell]bool) color.Color {
	b := snap.Blackboard
	switch {
	case obstacles[c]:
		return ColorObstacle
	case c == snap.Start || c == snap.Target:
		return ColorEndpoint
	case path[c]:
		return ColorPath
	case b.Visited[c.Row][c.Col]:
		return ColorVisited
	case b.Exploring[c.Row][c.Col] >= 0:
		return ColorExploring
	default:
		return ColorFree
	}
}

func toSet(cells []da.Cell) map[da.Cell]bool {
	set := make(map[da.Cell]bool, len(cells))
	for _, c := range cells {
		set[c] = true
	}
	return set
}

func (r *Renderer) Draw(snap *engine.Snapshot) image.Image {
	cs := float64(r.cellSize)
	dc := gg.NewContext(snap.Cols*r.cellSize, snap.Rows*r.cellSize)
	dc.SetColor(ColorFree)
	dc.Clear()

	obstacles := toSet(snap.Obstacles)
	changed := toSet(snap.Changed)
	path := toSet(snap.Blackboard.Path)

	for i := 0; i < snap.Rows; i++ {
		for j := 0; j < snap.Cols; j++ {
			c := da.NewCell(i, j)
			x, y := float64(j)*cs, float64(i)*cs

			if changed[c] {
				dc.SetColor(ColorChanged)
			} else {
				dc.SetColor(ColorBorder)
			}
			dc.DrawRectangle(x, y, cs, cs)
			dc.Fill()

			dc.SetColor(r.fillColor(snap, c, obstacles, path))
			dc.DrawRectangle(x+1, y+1, cs-2, cs-2)
			dc.Fill()

			if snap.Blackboard.SupportsFlowField {
				r.drawArrow(dc, x, y, snap.Blackboard.Flows[i][j])
			}
		}
	}
	return dc.Image()
}

// drawArrow draws a line from the center of the cell at (x, y) towards its flow
// direction, with a dot at the tip.
func (r *Renderer) drawArrow(dc *gg.Context, x, y float64, flow int) {
	if flow < 0 || flow >= len(da.DIRECTIONS) {
		return
	}
	d := da.DIRECTIONS[flow]
	cs := float64(r.cellSize)
	cx, cy := x+cs/2, y+cs/2
	tx, ty := cx+float64(d.GetDCol())*cs*0.35, cy+float64(d.GetDRow())*cs*0.35

	dc.SetColor(ColorArrow)
	dc.SetLineWidth(2)
	dc.DrawLine(cx, cy, tx, ty)
	dc.Stroke()
	dc.DrawCircle(tx, ty, cs*0.08)
	dc.Fill()
}

func (r *Renderer) EncodePNG(w io.Writer, snap *engine.Snapshot) error {
	dc := gg.NewContextForImage(r.Draw(snap))
	return dc.EncodePNG(w)
}

func (r *Renderer) SavePNG(filename string, snap *engine.Snapshot) error {
	dc := gg.NewContextForImage(r.Draw(snap))
	return dc.SavePNG(filename)
}

// SaveStep writes the snapshot to {dir}/{step}.png.
func (r *Renderer) SaveStep(dir string, snap *engine.Snapshot) (string, error) {
	filename := filepath.Join(dir, fmt.Sprintf("%d.png", snap.Steps))
	return filename, r.SavePNG(filename, snap)
}
