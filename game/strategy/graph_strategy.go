package strategy

import (
	"fmt"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// GraphStrategy builds the reachability graph of its car on the first turn and
// follows a path found by its search function, one position per turn.
type GraphStrategy struct {
	kind    Kind
	search  SearchFunc
	graph   *Graph
	pending []engine.Vector2
}

// NewGraphStrategy returns a graph strategy with an empty graph
func NewGraphStrategy(kind Kind, search SearchFunc) *GraphStrategy {
	return &GraphStrategy{
		kind:   kind,
		search: search,
		graph:  NewGraph(),
	}
}

func (s *GraphStrategy) Name() string { return string(s.kind) }

// Graph returns the reachability graph built so far
func (s *GraphStrategy) Graph() *Graph { return s.graph }

// Pending returns the positions still to be visited, next first
func (s *GraphStrategy) Pending() []engine.Vector2 {
	return append([]engine.Vector2(nil), s.pending...)
}

func (s *GraphStrategy) DecideNextMove(candidates []engine.Vector2, car *engine.Car, view engine.RaceView) (engine.Vector2, error) {
	if s.graph.IsEmpty() {
		BuildReachability(s.graph, view.Track, car.Position(), candidates)
	}

	if len(s.pending) == 0 {
		path, err := s.search(s.graph, car.Position(), view.Track.VictoryPositions())
		if err != nil {
			return engine.Vector2{}, fmt.Errorf("%s from %v: %w", s.kind, car.Position(), err)
		}
		log.Debugf("%s path for %c: %v", s.kind, car.Name(), path)
		s.pending = path
	}

	next := s.pending[0]
	s.pending = s.pending[1:]
	return next.Sub(car.Position()), nil
}
