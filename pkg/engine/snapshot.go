package engine

import (
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
)

// Snapshot is a deep copy of the engine state, safe to hand to another goroutine.
type Snapshot struct {
	Algorithm  string             `json:"algorithm"`
	Status     string             `json:"status"`
	Steps      int                `json:"steps"`
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Start      da.Cell            `json:"start"`
	Target     da.Cell            `json:"target"`
	Obstacles  []da.Cell          `json:"obstacles"`
	Changed    []da.Cell          `json:"changed"`
	PathCost   int                `json:"path_cost"`
	Blackboard *search.Blackboard `json:"blackboard"`
}

func (e *Engine) Snapshot() Snapshot {
	obstacles := make([]da.Cell, 0, e.grid.NumberOfObstacles())
	for i := 0; i < e.grid.Rows(); i++ {
		for j := 0; j < e.grid.Cols(); j++ {
			if e.grid.IsObstacle(i, j) {
				obstacles = append(obstacles, da.NewCell(i, j))
			}
		}
	}
	return Snapshot{
		Algorithm:  e.algorithmName,
		Status:     e.status.String(),
		Steps:      e.steps,
		Rows:       e.grid.Rows(),
		Cols:       e.grid.Cols(),
		Start:      e.opts.Start,
		Target:     e.opts.Target,
		Obstacles:  obstacles,
		Changed:    e.grid.ChangedCells(),
		PathCost:   e.blackboard.PathCost(),
		Blackboard: e.blackboard.Clone(),
	}
}
