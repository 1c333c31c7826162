// Command validate checks the race files of a configs directory (../configs
// unless a directory is given). It checks:
//   - race file format: track rows, the $ line and one "<strategy> <glyph>" line per car
//   - tile characters and car glyphs
//   - strategy identifiers
//   - at least one start and one victory tile, and a start tile for every car
//   - solvability: a victory tile is reachable from every occupied start tile
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/strategy"
)

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Info holds the summary of a valid file and
// Warnings problems that do not stop a race.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateRace loads and validates a single race file
func validateRace(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	config, err := engine.LoadRaceConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	for _, car := range config.Cars {
		if _, err := strategy.ParseKind(car.Strategy); err != nil {
			result.fail("Car %s: %v", car.Glyph, err)
		}
	}

	track, err := engine.ParseTrack(config.Track)
	if err != nil {
		result.fail("Invalid track: %v", err)
		return result
	}

	starts := track.PositionsOf(engine.Start)
	victories := track.VictoryPositions()
	if len(starts) == 0 {
		result.fail("Must have at least 1 start (%c) tile", engine.Start)
	}
	if len(victories) == 0 {
		result.fail("Must have at least 1 victory (%c) tile", engine.Victory)
	}
	if len(starts) < len(config.Cars) && len(starts) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d cars but only %d start tiles: cars after the first %d are not placed",
				len(config.Cars), len(starts), len(starts)))
	}

	if !result.Valid {
		return result
	}

	solvability := validateSolvability(track, starts, len(config.Cars))
	if !solvability.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, solvability.Errors...)
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Track: %d rows", track.Height()),
		fmt.Sprintf("✓ Start tiles: %d", len(starts)),
		fmt.Sprintf("✓ Victory tiles: %d", len(victories)),
		fmt.Sprintf("✓ Cars: %d", len(config.Cars)),
	)
	result.Info = append(result.Info, solvability.Info...)
	return result
}

// validateSolvability builds the reachability graph of every start tile a
// car is placed on and searches it for a victory tile
func validateSolvability(track *engine.Track, starts []engine.Vector2, cars int) ValidationResult {
	result := ValidationResult{Valid: true}

	if cars < len(starts) {
		starts = starts[:cars]
	}

	for _, start := range starts {
		g := strategy.NewGraph()
		strategy.BuildReachability(g, track, start, engine.CandidateMoves(engine.Vector2{}))

		path, err := strategy.BreadthFirst(g, start, track.VictoryPositions())
		if err != nil {
			result.fail("No victory tile reachable from start %v (%d positions explored)", start, g.NodeCount())
			continue
		}
		result.Info = append(result.Info, fmt.Sprintf("✓ Start %v: finish in %d moves", start, len(path)))
	}
	return result
}

// main validates every *.race file of the configs directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.race"))
	if err != nil {
		fmt.Printf("Error finding race files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No race files in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateRace(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All race files are valid!")
	} else {
		fmt.Println("❌ Some race files have errors")
		os.Exit(1)
	}
}
