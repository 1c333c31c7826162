// Command analyze prints quick, human-readable statistics about race files.
// For every car placed on a start tile it builds the reachability graph a
// graph-based bot would build and reports its size and the length of the
// breadth-first and depth-first paths to a victory tile.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/strategy"
)

// CarAnalysis holds the graph statistics seen from one start tile
type CarAnalysis struct {
	Glyph     string
	Strategy  string
	Start     engine.Vector2
	Placed    bool
	Nodes     int
	Edges     int
	BFSLength int // -1 when no path exists
	DFSLength int
}

// Analysis summarizes a race file
type Analysis struct {
	Name      string
	Rows      int
	Width     int
	Road      int
	Starts    int
	Victories int
	Cars      []CarAnalysis
}

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		var err error
		paths, err = filepath.Glob(filepath.Join("configs", "*.race"))
		if err != nil || len(paths) == 0 {
			fmt.Println("usage: analyze <race-file>...")
			os.Exit(1)
		}
	}

	failed := false
	for _, path := range paths {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		analysis, err := analyzeFile(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
	if failed {
		os.Exit(1)
	}
}

func analyzeFile(path string) (*Analysis, error) {
	config, err := engine.LoadRaceConfig(path)
	if err != nil {
		return nil, err
	}
	return analyzeRace(config)
}

// analyzeRace places the cars the way a race does and explores the track from
// each start tile
func analyzeRace(config *engine.RaceConfig) (*Analysis, error) {
	track, err := engine.ParseTrack(config.Track)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Name:      config.Name,
		Rows:      track.Height(),
		Starts:    len(track.PositionsOf(engine.Start)),
		Victories: len(track.VictoryPositions()),
	}
	for y := 0; y < track.Height(); y++ {
		analysis.Width = max(analysis.Width, track.Width(y))
	}
	analysis.Road = len(track.PositionsOf(engine.Road)) + analysis.Starts + analysis.Victories

	starts := track.PositionsOf(engine.Start)
	for i, car := range config.Cars {
		ca := CarAnalysis{
			Glyph:     car.Glyph,
			Strategy:  car.Strategy,
			BFSLength: -1,
			DFSLength: -1,
		}
		if i >= len(starts) {
			analysis.Cars = append(analysis.Cars, ca)
			continue
		}

		ca.Placed = true
		ca.Start = starts[i]

		g := strategy.NewGraph()
		strategy.BuildReachability(g, track, ca.Start, engine.CandidateMoves(engine.Vector2{}))
		ca.Nodes = g.NodeCount()
		ca.Edges = g.EdgeCount()

		if ca.BFSLength, err = pathLength(strategy.BreadthFirst, g, ca.Start, track); err != nil {
			return nil, err
		}
		if ca.DFSLength, err = pathLength(strategy.DepthFirst, g, ca.Start, track); err != nil {
			return nil, err
		}
		analysis.Cars = append(analysis.Cars, ca)
	}
	return analysis, nil
}

func pathLength(search strategy.SearchFunc, g *strategy.Graph, start engine.Vector2, track *engine.Track) (int, error) {
	path, err := search(g, start, track.VictoryPositions())
	if errors.Is(err, strategy.ErrNoPathFound) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return len(path), nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Track: %d x %d, %d drivable tiles\n", a.Width, a.Rows, a.Road)
	fmt.Fprintf(w, "Start tiles: %d, victory tiles: %d\n", a.Starts, a.Victories)

	for _, car := range a.Cars {
		if !car.Placed {
			fmt.Fprintf(w, "⚠️  Car %s (%s): no start tile left\n", car.Glyph, car.Strategy)
			continue
		}
		fmt.Fprintf(w, "Car %s (%s) from %v: graph %d nodes, %d edges\n",
			car.Glyph, car.Strategy, car.Start, car.Nodes, car.Edges)
		if car.BFSLength < 0 {
			fmt.Fprintf(w, "   ⚠️  CRITICAL: no victory tile reachable\n")
			continue
		}
		fmt.Fprintf(w, "   ✅ BFS path: %d moves, DFS path: %d moves\n", car.BFSLength, car.DFSLength)
	}
}
