package search

import (
	"errors"
	"fmt"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"go.uber.org/zap"
)

const (
	DIJKSTRA    = "dijkstra"
	GREEDY      = "greedy"
	ASTAR       = "astar"
	LPASTAR     = "lpastar"
	DIJKSTRA_BI = "dijkstra-bi"
	ASTAR_BI    = "astar-bi"
	FLOW_FIELD  = "flow-field"
)

var ErrUnknownAlgorithm = errors.New("search: unknown algorithm")

type constructor func(grid *da.Grid, logger *zap.Logger) Algorithm

var algorithms = []struct {
	name string
	new  constructor
}{
	{DIJKSTRA, func(g *da.Grid, l *zap.Logger) Algorithm { return NewDijkstra(g, l) }},
	{GREEDY, func(g *da.Grid, l *zap.Logger) Algorithm { return NewGreedy(g, l) }},
	{ASTAR, func(g *da.Grid, l *zap.Logger) Algorithm { return NewAStar(g, l) }},
	{LPASTAR, func(g *da.Grid, l *zap.Logger) Algorithm { return NewLPAStar(g, l) }},
	{DIJKSTRA_BI, func(g *da.Grid, l *zap.Logger) Algorithm { return NewBidirectionalDijkstra(g, l) }},
	{ASTAR_BI, func(g *da.Grid, l *zap.Logger) Algorithm { return NewBidirectionalAStar(g, l) }},
	{FLOW_FIELD, func(g *da.Grid, l *zap.Logger) Algorithm { return NewFlowField(g, l) }},
}

// New returns the algorithm registered under name, bound to grid.
func New(name string, grid *da.Grid, logger *zap.Logger) (Algorithm, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, a := range algorithms {
		if a.name == name {
			return a.new(grid, logger), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Names lists the registered algorithms in a stable order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		names = append(names, a.name)
	}
	return names
}

// IsIncremental reports whether the algorithm patches map changes without a full Setup.
func IsIncremental(name string) bool {
	return name == LPASTAR
}
