package controllers

import (
	"time"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/http/usecases"
	"github.com/lintang-b-s/Pathviz/pkg/util"
)

type createSessionRequest struct {
	Algorithm       string  `json:"algorithm" validate:"omitempty,oneof=dijkstra greedy astar lpastar dijkstra-bi astar-bi flow-field"`
	Rows            int     `json:"rows" validate:"omitempty,min=1,max=512"`
	Cols            int     `json:"cols" validate:"omitempty,min=1,max=512"`
	Map             [][]int `json:"map" validate:"omitempty,max=512,dive,min=1,max=512,dive,oneof=0 1"`
	ObstacleDensity float64 `json:"obstacle_density" validate:"min=0,max=1"`
	Seed            uint64  `json:"seed"`
	Start           string  `json:"start"`
	Target          string  `json:"target"`
	Use4Directions  bool    `json:"use_4_directions"`
	Heuristic       string  `json:"heuristic" validate:"omitempty,oneof=manhattan euclidean"`
	HeuristicWeight *int    `json:"heuristic_weight" validate:"omitempty,min=0"`
	Snap            bool    `json:"snap"`
}

func parseCell(s string) (*da.Cell, error) {
	if s == "" {
		return nil, nil
	}
	row, col, err := util.ParsePoint(s)
	if err != nil {
		return nil, err
	}
	c := da.NewCell(row, col)
	return &c, nil
}

func (req createSessionRequest) toParams() (usecases.CreateSessionParams, error) {
	start, err := parseCell(req.Start)
	if err != nil {
		return usecases.CreateSessionParams{}, err
	}
	target, err := parseCell(req.Target)
	if err != nil {
		return usecases.CreateSessionParams{}, err
	}
	return usecases.CreateSessionParams{
		Algorithm:       req.Algorithm,
		Rows:            req.Rows,
		Cols:            req.Cols,
		Map:             req.Map,
		ObstacleDensity: req.ObstacleDensity,
		Seed:            req.Seed,
		Start:           start,
		Target:          target,
		Use4Directions:  req.Use4Directions,
		Heuristic:       req.Heuristic,
		HeuristicWeight: req.HeuristicWeight,
		Snap:            req.Snap,
	}, nil
}

type stepRequest struct {
	Count int `json:"count" validate:"min=1,max=100000"`
}

type runRequest struct {
	MaxSteps int `json:"max_steps" validate:"min=0"`
}

type obstaclesRequest struct {
	Add    []da.Cell `json:"add" validate:"dive"`
	Remove []da.Cell `json:"remove" validate:"dive"`
}

type cellRequest struct {
	Cell da.Cell `json:"cell"`
	Snap bool    `json:"snap"`
}

type sessionResponse struct {
	ID         string             `json:"id,omitempty"`
	CreatedAt  *time.Time         `json:"created_at,omitempty"`
	Algorithm  string             `json:"algorithm"`
	Status     string             `json:"status"`
	Steps      int                `json:"steps"`
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Start      da.Cell            `json:"start"`
	Target     da.Cell            `json:"target"`
	Obstacles  []da.Cell          `json:"obstacles"`
	Changed    []da.Cell          `json:"changed"`
	Visited    int                `json:"visited"`
	PathCost   int                `json:"path_cost"`
	PathLength int                `json:"path_length"`
	Path       string             `json:"path"`
	Blackboard *search.Blackboard `json:"blackboard,omitempty"`
}

// NewSessionResponse flattens a snapshot. The blackboard grids are only included
// when full is set.
func NewSessionResponse(id string, snap engine.Snapshot, full bool) sessionResponse {
	resp := sessionResponse{
		ID:         id,
		Algorithm:  snap.Algorithm,
		Status:     snap.Status,
		Steps:      snap.Steps,
		Rows:       snap.Rows,
		Cols:       snap.Cols,
		Start:      snap.Start,
		Target:     snap.Target,
		Obstacles:  snap.Obstacles,
		Changed:    snap.Changed,
		Visited:    snap.Blackboard.NumberOfVisited(),
		PathCost:   snap.PathCost,
		PathLength: len(snap.Blackboard.Path),
		Path:       usecases.EncodePath(snap.Blackboard.Path),
	}
	if full {
		resp.Blackboard = snap.Blackboard
	}
	return resp
}

type algorithmResponse struct {
	Name        string `json:"name"`
	Incremental bool   `json:"incremental"`
}

func NewAlgorithmsResponse(names []string) []algorithmResponse {
	resp := make([]algorithmResponse, 0, len(names))
	for _, name := range names {
		resp = append(resp, algorithmResponse{Name: name, Incremental: search.IsIncremental(name)})
	}
	return resp
}

// streamRequest is one websocket command.
type streamRequest struct {
	SessionID string   `json:"session_id" validate:"required"`
	Action    string   `json:"action" validate:"required,oneof=run step snapshot toggle start"`
	Count     int      `json:"count" validate:"min=0,max=100000"`
	MaxSteps  int      `json:"max_steps" validate:"min=0"`
	Cell      *da.Cell `json:"cell"`
	Snap      bool     `json:"snap"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
