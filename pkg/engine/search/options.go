package search

import (
	"fmt"

	"github.com/lintang-b-s/Pathviz/pkg"
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/util"
)

type HeuristicKind string

const (
	MANHATTAN HeuristicKind = "manhattan"
	EUCLIDEAN HeuristicKind = "euclidean"
)

// Options is fixed for the duration of a run. Only Start may be changed between
// Update calls, followed by HandleStartPointChange.
type Options struct {
	Start           da.Cell       `json:"start"`
	Target          da.Cell       `json:"target"`
	DirectionCount  int           `json:"direction_count" validate:"oneof=4 8"`
	HeuristicWeight int           `json:"heuristic_weight" validate:"min=0"`
	Heuristic       HeuristicKind `json:"heuristic" validate:"oneof=manhattan euclidean"`
}

// DefaultOptions mirrors the command line defaults: 8 directions from the top left
// to the bottom right corner with an euclidean heuristic of weight 1.
func DefaultOptions(rows, cols int) Options {
	return Options{
		Start:           da.NewCell(0, 0),
		Target:          da.NewCell(rows-1, cols-1),
		DirectionCount:  8,
		HeuristicWeight: pkg.DEFAULT_HEURISTIC_WEIGHT,
		Heuristic:       DefaultHeuristic(8),
	}
}

// DefaultHeuristic picks manhattan for 4 directions and euclidean for 8.
func DefaultHeuristic(directionCount int) HeuristicKind {
	if directionCount == 4 {
		return MANHATTAN
	}
	return EUCLIDEAN
}

func ParseHeuristic(s string, directionCount int) (HeuristicKind, error) {
	switch HeuristicKind(s) {
	case "":
		return DefaultHeuristic(directionCount), nil
	case MANHATTAN, EUCLIDEAN:
		return HeuristicKind(s), nil
	default:
		return "", util.WrapErrorf(nil, util.ErrBadParamInput, "unknown heuristic %q, want manhattan or euclidean", s)
	}
}

func (o Options) Validate() error {
	if err := util.ValidateStruct(o); err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "invalid search options: %v", err)
	}
	return nil
}

func (o Options) String() string {
	return fmt.Sprintf("start=%v target=%v directions=%d heuristic=%s weight=%d",
		o.Start, o.Target, o.DirectionCount, o.Heuristic, o.HeuristicWeight)
}
