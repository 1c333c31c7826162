package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRaceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.race")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write race file: %v", err)
	}
	return path
}

func containsMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestValidateRace_ValidRace(t *testing.T) {
	path := writeRaceFile(t, `#######
^.....-
^.....-
#######
$
bfs-bot a
dfs-bot b
`)

	result := validateRace(path)
	if !result.Valid {
		t.Fatalf("Expected valid race, but got errors: %v", result.Errors)
	}
	if result.File != "test.race" {
		t.Errorf("Expected file name test.race, got %s", result.File)
	}
	if !containsMessage(result.Info, "Start tiles: 2") {
		t.Errorf("Expected start tile count in %v", result.Info)
	}
	if !containsMessage(result.Info, "Start (0,1): finish in") {
		t.Errorf("Expected solvability info in %v", result.Info)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateRace_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing sentinel",
			content: "^...-\nbfs-bot a\n",
			want:    "missing",
		},
		{
			name:    "no cars",
			content: "^...-\n$\n",
			want:    "no cars",
		},
		{
			name:    "unknown tile",
			content: "^..x-\n$\nbfs-bot a\n",
			want:    "unknown tile",
		},
		{
			name:    "duplicate glyph",
			content: "^^..-\n$\nbfs-bot a\ndfs-bot a\n",
			want:    "duplicate glyph",
		},
		{
			name:    "unknown strategy",
			content: "^...-\n$\nturbo-bot a\n",
			want:    "unknown strategy",
		},
		{
			name:    "no start tile",
			content: "....-\n$\nbfs-bot a\n",
			want:    "start",
		},
		{
			name:    "no victory tile",
			content: "^....\n$\nbfs-bot a\n",
			want:    "victory",
		},
		{
			name:    "victory walled off",
			content: "#####\n^.#-#\n#####\n$\nbfs-bot a\n",
			want:    "No victory tile reachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateRace(writeRaceFile(t, tt.content))
			if result.Valid {
				t.Fatal("Expected invalid race")
			}
			if !containsMessage(result.Errors, tt.want) {
				t.Errorf("Expected an error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateRace_MissingFile(t *testing.T) {
	result := validateRace(filepath.Join(t.TempDir(), "missing.race"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
}

func TestValidateRace_MoreCarsThanStarts(t *testing.T) {
	path := writeRaceFile(t, "#####\n^...-\n#####\n$\nbfs-bot a\ndfs-bot b\n")

	result := validateRace(path)
	if !result.Valid {
		t.Fatalf("Expected valid race, got errors: %v", result.Errors)
	}
	if !containsMessage(result.Warnings, "only 1 start tiles") {
		t.Errorf("Expected a placement warning, got %v", result.Warnings)
	}
}

func TestValidateSolvability_OnlyOccupiedStarts(t *testing.T) {
	path := writeRaceFile(t, `######
^...-#
######
#^####
######
$
bfs-bot a
`)

	// the second start tile is boxed in, but no car is placed on it
	result := validateRace(path)
	if !result.Valid {
		t.Errorf("Expected valid race, got errors: %v", result.Errors)
	}
}

func TestShippedRaceFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.race"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := validateRace(file)
			if !result.Valid {
				t.Errorf("Expected %s to be valid, got errors: %v", file, result.Errors)
			}
		})
	}
}
