package engine

import (
	"fmt"
	"strings"
)

// tileNames maps every recognized tile to its display name
var tileNames = map[Tile]string{
	Wall:    "wall",
	Start:   "start",
	Victory: "victory",
	Road:    "road",
	Air:     "air",
}

// ParseTile converts a race file character into a Tile
func ParseTile(char rune) (Tile, error) {
	t := Tile(char)
	if _, ok := tileNames[t]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTile, char)
	}
	return t, nil
}

// Char returns the character the tile is written with
func (t Tile) Char() rune {
	return rune(t)
}

// String returns the tile display name
func (t Tile) String() string {
	if name, ok := tileNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%q)", rune(t))
}

// Track is an immutable grid of tiles. Rows may have different lengths.
type Track struct {
	rows      [][]Tile
	positions map[Tile][]Vector2
	victory   map[Vector2]bool
}

// NewTrack builds a track from tile rows and indexes its tile positions
func NewTrack(rows [][]Tile) (*Track, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTrack
	}

	t := &Track{
		rows:      make([][]Tile, len(rows)),
		positions: make(map[Tile][]Vector2),
		victory:   make(map[Vector2]bool),
	}

	for y, row := range rows {
		t.rows[y] = append([]Tile(nil), row...)
		for x, tile := range row {
			pos := Vector2{X: x, Y: y}
			t.positions[tile] = append(t.positions[tile], pos)
			if tile == Victory {
				t.victory[pos] = true
			}
		}
	}

	return t, nil
}

// ParseTrack builds a track from race file rows
func ParseTrack(lines []string) (*Track, error) {
	rows := make([][]Tile, 0, len(lines))
	for y, line := range lines {
		row := make([]Tile, 0, len(line))
		for x, char := range []rune(line) {
			tile, err := ParseTile(char)
			if err != nil {
				return nil, fmt.Errorf("row %d, col %d: %w", y+1, x+1, err)
			}
			row = append(row, tile)
		}
		rows = append(rows, row)
	}
	return NewTrack(rows)
}

// Height returns the number of rows
func (t *Track) Height() int {
	return len(t.rows)
}

// Width returns the length of the given row, or 0 if the row does not exist
func (t *Track) Width(row int) int {
	if row < 0 || row >= len(t.rows) {
		return 0
	}
	return len(t.rows[row])
}

// TileAt returns the tile at pos
func (t *Track) TileAt(pos Vector2) (Tile, error) {
	if !t.IsValid(pos) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	return t.rows[pos.Y][pos.X], nil
}

// IsValid checks that pos lies within the grid bounds
func (t *Track) IsValid(pos Vector2) bool {
	if pos.Y < 0 || pos.Y >= len(t.rows) {
		return false
	}
	return pos.X >= 0 && pos.X < len(t.rows[pos.Y])
}

// IsInsideRoad checks that pos is valid and neither a wall nor air
func (t *Track) IsInsideRoad(pos Vector2) bool {
	if !t.IsValid(pos) {
		return false
	}
	tile := t.rows[pos.Y][pos.X]
	return tile != Wall && tile != Air
}

// IsOnVictory checks whether pos is a victory tile
func (t *Track) IsOnVictory(pos Vector2) bool {
	return t.victory[pos]
}

// PositionsOf returns every position holding the given tile in row-major order
func (t *Track) PositionsOf(kind Tile) []Vector2 {
	return append([]Vector2(nil), t.positions[kind]...)
}

// VictoryPositions returns all victory positions in row-major order
func (t *Track) VictoryPositions() []Vector2 {
	return t.PositionsOf(Victory)
}

// PlaceAtStart puts the first N cars on the first N start tiles and returns
// the cars that did not get a start tile.
func (t *Track) PlaceAtStart(cars []*Car) []*Car {
	starts := t.positions[Start]
	var unplaced []*Car
	for i, car := range cars {
		if i >= len(starts) {
			unplaced = append(unplaced, car)
			continue
		}
		car.place(starts[i])
	}
	return unplaced
}

// HasCrashed reports whether moving from start to end crashes: the end is off
// the road or the straight line between them crosses a wall.
func (t *Track) HasCrashed(start, end Vector2) bool {
	if !t.IsInsideRoad(end) {
		return true
	}
	for _, p := range Segment(start, end) {
		if !t.IsValid(p) || t.rows[p.Y][p.X] == Wall {
			return true
		}
	}
	return false
}

// Rows returns the track as race file rows
func (t *Track) Rows() []string {
	lines := make([]string, len(t.rows))
	for y, row := range t.rows {
		var b strings.Builder
		for _, tile := range row {
			b.WriteRune(tile.Char())
		}
		lines[y] = b.String()
	}
	return lines
}

// Render returns the track rows with the glyphs of placed, living cars drawn
// over their tiles.
func (t *Track) Render(cars []*Car) []string {
	grid := make([][]rune, len(t.rows))
	for y, row := range t.rows {
		grid[y] = make([]rune, len(row))
		for x, tile := range row {
			grid[y][x] = tile.Char()
		}
	}

	for _, car := range cars {
		if !car.Placed() || !car.Alive() || !t.IsValid(car.Position()) {
			continue
		}
		pos := car.Position()
		grid[pos.Y][pos.X] = car.Name()
	}

	lines := make([]string, len(grid))
	for y, row := range grid {
		lines[y] = string(row)
	}
	return lines
}
