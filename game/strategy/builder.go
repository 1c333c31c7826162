package strategy

import (
	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// expansion is a position waiting to be expanded with the move that reached it
type expansion struct {
	position engine.Vector2
	move     engine.Vector2
}

// BuildReachability extends g with every position reachable from start. The
// first step tries the given candidate moves; later steps use the candidates
// of the move that reached each position, restricted to road tiles. A
// position is expanded only when its node is first created, so the edges
// form a tree rooted at start.
func BuildReachability(g *Graph, track *engine.Track, start engine.Vector2, candidates []engine.Vector2) {
	g.AddNode(start)

	var work []expansion
	expand := func(from engine.Vector2, moves []engine.Vector2) {
		for _, move := range moves {
			to := from.Add(move)
			if to == from || track.HasCrashed(from, to) {
				continue
			}
			if _, created := g.AddNode(to); created {
				_ = g.AddEdge(from, to)
				work = append(work, expansion{position: to, move: move})
			}
		}
	}

	expand(start, candidates)
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]

		moves := make([]engine.Vector2, 0, 9)
		for _, move := range engine.CandidateMoves(next.move) {
			if track.IsInsideRoad(next.position.Add(move)) {
				moves = append(moves, move)
			}
		}
		expand(next.position, moves)
	}

	log.Debugf("reachability from %v: %d nodes, %d edges", start, g.NodeCount(), g.EdgeCount())
}
