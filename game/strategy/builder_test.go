package strategy

import (
	"cmp"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

var corridorRows = []string{
	"#####",
	"^...-",
	"#####",
}

var loopRows = []string{
	"##########",
	"#^.......#",
	"#.######.#",
	"#.......-#",
	"##########",
}

func parseTrack(t *testing.T, rows []string) *engine.Track {
	t.Helper()
	track, err := engine.ParseTrack(rows)
	require.NoError(t, err)
	return track
}

func buildFromStart(t *testing.T, rows []string) (*Graph, *engine.Track, engine.Vector2) {
	t.Helper()
	track := parseTrack(t, rows)
	start := track.PositionsOf(engine.Start)[0]
	g := NewGraph()
	BuildReachability(g, track, start, engine.CandidateMoves(engine.Vector2{}))
	return g, track, start
}

func TestBuildReachabilityCorridor(t *testing.T) {
	g, _, start := buildFromStart(t, corridorRows)

	assert.Equal(t, []engine.Vector2{
		{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 4, Y: 1},
	}, sortedNodes(g))
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []engine.Vector2{{X: 1, Y: 1}}, g.Successors(start))
	assert.True(t, g.ContainsEdge(engine.Vector2{X: 3, Y: 1}, engine.Vector2{X: 4, Y: 1}))
}

func TestBuildReachabilityIsATree(t *testing.T) {
	g, track, start := buildFromStart(t, loopRows)

	assert.Equal(t, g.NodeCount()-1, g.EdgeCount())
	assert.Empty(t, g.Predecessors(start))
	for _, node := range g.Nodes() {
		assert.True(t, track.IsInsideRoad(node), "node %v is off the road", node)
		if node != start {
			assert.Len(t, g.Predecessors(node), 1, "node %v", node)
		}
	}
	for _, e := range g.Edges() {
		assert.False(t, track.HasCrashed(e.From, e.To), "edge %v -> %v crashes", e.From, e.To)
		assert.NotEqual(t, e.From, e.To)
	}
}

func TestBuildReachabilityIsIdempotent(t *testing.T) {
	first, _, _ := buildFromStart(t, loopRows)
	second, _, _ := buildFromStart(t, loopRows)

	assert.Equal(t, first.Nodes(), second.Nodes())
	assert.Equal(t, first.Edges(), second.Edges())
}

func TestBuildReachabilityBlockedStart(t *testing.T) {
	g, _, start := buildFromStart(t, []string{
		"###",
		"#^#",
		"###",
	})

	assert.Equal(t, []engine.Vector2{start}, g.Nodes())
	assert.Equal(t, 0, g.EdgeCount())
}

func sortedNodes(g *Graph) []engine.Vector2 {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b engine.Vector2) int {
		if a.Y != b.Y {
			return cmp.Compare(a.Y, b.Y)
		}
		return cmp.Compare(a.X, b.X)
	})
	return nodes
}
