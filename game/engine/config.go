package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StrategyFactory creates the strategy for a race file identifier
type StrategyFactory func(name string) (Strategy, error)

// ParseRace reads a race file: track rows, a line holding only the sentinel,
// then one "<strategy> <glyph>" line per car.
func ParseRace(r io.Reader) (*RaceConfig, error) {
	config := &RaceConfig{}
	scanner := bufio.NewScanner(r)

	sawSentinel := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if !sawSentinel {
			if line == TrackSentinel {
				sawSentinel = true
				continue
			}
			config.Track = append(config.Track, line)
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"<strategy> <glyph>\", got %q", ErrInvalidRace, lineNo, line)
		}
		config.Cars = append(config.Cars, CarSpec{Strategy: fields[0], Glyph: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading race file: %w", err)
	}

	if !sawSentinel {
		return nil, fmt.Errorf("%w: missing %q line after the track", ErrInvalidRace, TrackSentinel)
	}
	if err := ValidateRaceConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ValidateRaceConfig checks the track characters and the car roster. Strategy
// identifiers are checked when the race is built.
func ValidateRaceConfig(config *RaceConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidRace)
	}
	if len(config.Track) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRace, ErrEmptyTrack)
	}
	for y, row := range config.Track {
		for x, char := range []rune(row) {
			if _, err := ParseTile(char); err != nil {
				return fmt.Errorf("%w: row %d, col %d: %w", ErrInvalidRace, y+1, x+1, err)
			}
		}
	}

	if len(config.Cars) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRace, ErrNoCars)
	}
	glyphs := make(map[string]bool, len(config.Cars))
	for i, car := range config.Cars {
		if car.Strategy == "" {
			return fmt.Errorf("%w: car %d has no strategy", ErrInvalidRace, i+1)
		}
		if utf8.RuneCountInString(car.Glyph) != 1 {
			return fmt.Errorf("%w: car %d glyph %q must be a single character", ErrInvalidRace, i+1, car.Glyph)
		}
		if unicode.IsSpace([]rune(car.Glyph)[0]) {
			return fmt.Errorf("%w: car %d glyph cannot be whitespace", ErrInvalidRace, i+1)
		}
		if glyphs[car.Glyph] {
			return fmt.Errorf("%w: duplicate glyph %q", ErrInvalidRace, car.Glyph)
		}
		glyphs[car.Glyph] = true
	}
	return nil
}

// FormatRace writes a config back in race file format
func FormatRace(config *RaceConfig) string {
	var b strings.Builder
	for _, row := range config.Track {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString(TrackSentinel)
	b.WriteByte('\n')
	for _, car := range config.Cars {
		fmt.Fprintf(&b, "%s %s\n", car.Strategy, car.Glyph)
	}
	return b.String()
}

// LoadRaceConfig loads a race file from disk. The config is named after the
// file without its extension.
func LoadRaceConfig(path string) (*RaceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config, err := ParseRace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	config.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return config, nil
}

// NewRaceFromConfig builds the track and cars of a config and starts a race
func NewRaceFromConfig(config *RaceConfig, factory StrategyFactory, ui UI) (*Race, error) {
	if err := ValidateRaceConfig(config); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: no strategy factory", ErrInvalidRace)
	}

	track, err := ParseTrack(config.Track)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRace, err)
	}

	cars := make([]*Car, 0, len(config.Cars))
	for _, spec := range config.Cars {
		strategy, err := factory(spec.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%w: car %s: %w", ErrInvalidRace, spec.Glyph, err)
		}
		cars = append(cars, NewCar([]rune(spec.Glyph)[0], strategy))
	}

	return NewRace(track, cars, ui)
}
