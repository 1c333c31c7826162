package engine

import "errors"

// Tile represents the terrain kind of a single track cell. The underlying
// value is the character used for the cell in race files.
type Tile rune

const (
	Wall    Tile = '#'
	Start   Tile = '^'
	Victory Tile = '-'
	Road    Tile = '.'
	Air     Tile = ' '

	// Race file constants
	TrackSentinel = "$"
	MaxBulkRounds = 500
)

// RaceStatus is the state of the race state machine
type RaceStatus string

const (
	StatusRunning  RaceStatus = "running"
	StatusFinished RaceStatus = "finished"
)

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrEmptyTrack   = errors.New("track has no rows")
	ErrUnknownTile  = errors.New("unknown tile character")
	ErrNotPlaced    = errors.New("car was never placed on a start tile")
	ErrIllegalMove  = errors.New("move is not one of the candidate moves")
	ErrCarDead      = errors.New("car is not alive")
	ErrNoCars       = errors.New("race has no cars")
	ErrInvalidRace  = errors.New("invalid race configuration")
	ErrRaceFinished = errors.New("race already finished")
)

// Vector2 is an integer 2D vector used both for positions and accelerations
type Vector2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CarSpec describes one car of a race file
type CarSpec struct {
	Strategy string `json:"strategy"`
	Glyph    string `json:"glyph"`
}

// RaceConfig represents a race file: a track and the cars racing on it
type RaceConfig struct {
	Name  string    `json:"name"`
	Track []string  `json:"track"`
	Cars  []CarSpec `json:"cars"`
}

// CarState is the serializable state of a car
type CarState struct {
	Name         string  `json:"name"`
	Strategy     string  `json:"strategy"`
	Position     Vector2 `json:"position"`
	Acceleration Vector2 `json:"acceleration"`
	Alive        bool    `json:"alive"`
	Placed       bool    `json:"placed"`
}

// TurnRecord is one entry of the race history
type TurnRecord struct {
	Turn         int     `json:"turn"`
	Round        int     `json:"round"`
	Car          string  `json:"car"`
	From         Vector2 `json:"from"`
	To           Vector2 `json:"to"`
	Acceleration Vector2 `json:"acceleration"`
	Crashed      bool    `json:"crashed,omitempty"`
	Won          bool    `json:"won,omitempty"`
	Retired      bool    `json:"retired,omitempty"`
	Error        string  `json:"error,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

// RaceState is a complete snapshot of a race
type RaceState struct {
	Track   []string     `json:"track"`
	Cars    []CarState   `json:"cars"`
	Status  RaceStatus   `json:"status"`
	Winner  string       `json:"winner,omitempty"`
	Turn    int          `json:"turn"`
	Round   int          `json:"round"`
	Message string       `json:"message"`
	History []TurnRecord `json:"history"`
	Frame   []string     `json:"frame,omitempty"`
}
