package strategy

import (
	"errors"
	"slices"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// ErrNoPathFound is returned when no victory position is reachable
var ErrNoPathFound = errors.New("no path to a victory position")

// SearchFunc finds a path from start to any of the victory positions. The
// path excludes start and ends on a victory position.
type SearchFunc func(g *Graph, start engine.Vector2, victories []engine.Vector2) ([]engine.Vector2, error)

// BreadthFirst returns a path with the fewest edges
func BreadthFirst(g *Graph, start engine.Vector2, victories []engine.Vector2) ([]engine.Vector2, error) {
	if !g.Contains(start) {
		return nil, ErrNoPathFound
	}
	goal := goalSet(victories)

	pred := make(map[engine.Vector2]engine.Vector2)
	visited := map[engine.Vector2]bool{start: true}
	queue := []engine.Vector2{start}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		if v != start && goal[v] {
			return reconstruct(pred, start, v), nil
		}
		for _, next := range g.Successors(v) {
			if visited[next] {
				continue
			}
			visited[next] = true
			pred[next] = v
			queue = append(queue, next)
		}
	}
	return nil, ErrNoPathFound
}

// DepthFirst returns the first path found by a stack-based depth-first walk
func DepthFirst(g *Graph, start engine.Vector2, victories []engine.Vector2) ([]engine.Vector2, error) {
	if !g.Contains(start) {
		return nil, ErrNoPathFound
	}
	goal := goalSet(victories)

	pred := make(map[engine.Vector2]engine.Vector2)
	visited := make(map[engine.Vector2]bool)
	stack := []engine.Vector2{start}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if v != start && goal[v] {
			return reconstruct(pred, start, v), nil
		}
		if visited[v] {
			continue
		}
		visited[v] = true
		for _, next := range g.Successors(v) {
			if !visited[next] {
				pred[next] = v
				stack = append(stack, next)
			}
		}
	}
	return nil, ErrNoPathFound
}

func goalSet(victories []engine.Vector2) map[engine.Vector2]bool {
	goal := make(map[engine.Vector2]bool, len(victories))
	for _, v := range victories {
		goal[v] = true
	}
	return goal
}

// reconstruct walks the predecessor map back from end and returns the path
// from the node after start up to end
func reconstruct(pred map[engine.Vector2]engine.Vector2, start, end engine.Vector2) []engine.Vector2 {
	var path []engine.Vector2
	for v := end; v != start; v = pred[v] {
		path = append(path, v)
	}
	slices.Reverse(path)
	return path
}
