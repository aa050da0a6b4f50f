package search

import (
	da "github.com/lintang-b-s/Pathviz/pkg/datastructure"
)

type Status uint8

const (
	// frontier not exhausted, more Update calls are needed
	IN_PROGRESS Status = iota
	// path written to the blackboard and Stopped set
	SUCCESS
	// frontier exhausted without reaching the target
	FAILURE
)

func (s Status) String() string {
	switch s {
	case IN_PROGRESS:
		return "in_progress"
	case SUCCESS:
		return "success"
	case FAILURE:
		return "failure"
	default:
		return "unknown"
	}
}

// Algorithm is a step-at-a-time search state machine. The caller serializes all
// calls and only mutates the grid between them.
type Algorithm interface {
	// Setup resets the blackboard and every internal array, rebuilds the graph from the
	// grid and seeds the frontier. Safe to call repeatedly.
	Setup(b *Blackboard, opts Options)
	// Update expands at most one frontier node and writes the progress to the blackboard.
	Update(b *Blackboard) Status
	// HandleMapChanges is called after the grid already reflects the added and removed
	// obstacles. Variants without incremental support fall back to Setup.
	HandleMapChanges(b *Blackboard, opts Options, toBecomeObstacles, toRemoveObstacles []da.Cell)
	// HandleStartPointChange is called after opts.Start changed.
	HandleStartPointChange(b *Blackboard, opts Options)
	Name() string
}
