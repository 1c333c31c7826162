package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

func TestBreadthFirstCorridor(t *testing.T) {
	g, track, start := buildFromStart(t, corridorRows)

	path, err := BreadthFirst(g, start, track.VictoryPositions())
	require.NoError(t, err)
	assert.Equal(t, []engine.Vector2{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 4, Y: 1}}, path)
}

func TestSearchPathsFollowEdges(t *testing.T) {
	searches := map[string]SearchFunc{
		"bfs": BreadthFirst,
		"dfs": DepthFirst,
	}

	for name, search := range searches {
		t.Run(name, func(t *testing.T) {
			g, track, start := buildFromStart(t, loopRows)

			path, err := search(g, start, track.VictoryPositions())
			require.NoError(t, err)
			require.NotEmpty(t, path)
			assert.NotEqual(t, start, path[0])
			assert.True(t, track.IsOnVictory(path[len(path)-1]))

			prev := start
			for _, p := range path {
				assert.True(t, g.ContainsEdge(prev, p), "missing edge %v -> %v", prev, p)
				prev = p
			}
		})
	}
}

func TestBreadthFirstNotLongerThanDepthFirst(t *testing.T) {
	tracks := map[string][]string{
		"corridor": corridorRows,
		"loop":     loopRows,
		"open field": {
			"#########",
			"#^......#",
			"#.......#",
			"#.......#",
			"#......-#",
			"#########",
		},
	}

	for name, rows := range tracks {
		t.Run(name, func(t *testing.T) {
			g, track, start := buildFromStart(t, rows)

			bfs, err := BreadthFirst(g, start, track.VictoryPositions())
			require.NoError(t, err)
			dfs, err := DepthFirst(g, start, track.VictoryPositions())
			require.NoError(t, err)

			assert.LessOrEqual(t, len(bfs), len(dfs))
		})
	}
}

func TestSearchNoPath(t *testing.T) {
	g, track, start := buildFromStart(t, []string{"^.#-"})

	_, err := BreadthFirst(g, start, track.VictoryPositions())
	assert.ErrorIs(t, err, ErrNoPathFound)
	_, err = DepthFirst(g, start, track.VictoryPositions())
	assert.ErrorIs(t, err, ErrNoPathFound)

	_, err = BreadthFirst(g, engine.Vector2{X: 7, Y: 7}, track.VictoryPositions())
	assert.ErrorIs(t, err, ErrNoPathFound)
	_, err = DepthFirst(NewGraph(), start, nil)
	assert.ErrorIs(t, err, ErrNoPathFound)
}
