package controllers

import (
	"context"
	"io"

	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/http/usecases"
)

type SessionService interface {
	Algorithms() []string
	CreateSession(p usecases.CreateSessionParams) (*usecases.Session, engine.Snapshot, error)
	GetSnapshot(id string) (engine.Snapshot, error)
	Step(id string, count int) (engine.Snapshot, error)
	Run(ctx context.Context, id string, maxSteps int, onFrame func(snap engine.Snapshot) error) (engine.Snapshot, error)
	Restart(id string) (engine.Snapshot, error)
	UpdateObstacles(id string, toAdd, toRemove []da.Cell) (engine.Snapshot, error)
	ToggleObstacle(id string, c da.Cell) (engine.Snapshot, error)
	ChangeStart(id string, c da.Cell, snap bool) (engine.Snapshot, error)
	RenderPNG(id string, w io.Writer) error
	DeleteSession(id string) error
}
