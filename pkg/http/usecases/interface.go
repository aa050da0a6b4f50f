package usecases

import (
	"io"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"go.uber.org/zap"
)

type SpatialIndex interface {
	Build(grid *da.Grid, log *zap.Logger)
	Update(toBecomeObstacles, toRemoveObstacles []da.Cell)
	Nearest(c da.Cell) (da.Cell, bool)
}

type Renderer interface {
	EncodePNG(w io.Writer, snap *engine.Snapshot) error
}
