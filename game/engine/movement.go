package engine

import (
	"fmt"
	"slices"
)

// unitOffsets are the nine acceleration changes available each turn, in
// row-major order with the zero offset in the middle.
var unitOffsets = [9]Vector2{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// RaceView is the read-only context a strategy decides in
type RaceView struct {
	Track *Track
	Cars  []*Car
}

// Strategy decides the next move of a car. The returned delta must be one of
// the candidates; it is relative to the car's current position.
type Strategy interface {
	Name() string
	DecideNextMove(candidates []Vector2, car *Car, view RaceView) (Vector2, error)
}

// CandidateMoves returns the nine moves reachable from the given acceleration
func CandidateMoves(acc Vector2) []Vector2 {
	moves := make([]Vector2, len(unitOffsets))
	for i, off := range unitOffsets {
		moves[i] = acc.Add(off)
	}
	return moves
}

// Car is a racing entity
type Car struct {
	name         rune
	position     Vector2
	acceleration Vector2
	alive        bool
	placed       bool
	strategy     Strategy
}

// NewCar creates a living, not yet placed car with zero acceleration
func NewCar(name rune, strategy Strategy) *Car {
	return &Car{
		name:     name,
		alive:    true,
		strategy: strategy,
	}
}

// Name returns the car glyph
func (c *Car) Name() rune { return c.name }

// Position returns the current position
func (c *Car) Position() Vector2 { return c.position }

// Acceleration returns the current acceleration, which is also the last move
func (c *Car) Acceleration() Vector2 { return c.acceleration }

// Alive reports whether the car is still racing
func (c *Car) Alive() bool { return c.alive }

// Placed reports whether the car got a start tile
func (c *Car) Placed() bool { return c.placed }

// Strategy returns the strategy bound to the car
func (c *Car) Strategy() Strategy { return c.strategy }

// Kill marks the car as out of the race. It cannot be undone.
func (c *Car) Kill() {
	c.alive = false
}

func (c *Car) place(pos Vector2) {
	c.position = pos
	c.placed = true
}

// PossibleMoves returns the candidate moves of the car for this turn
func (c *Car) PossibleMoves() []Vector2 {
	return CandidateMoves(c.acceleration)
}

// NextMove asks the strategy for a move and applies it
func (c *Car) NextMove(view RaceView) error {
	if !c.placed {
		return ErrNotPlaced
	}
	if !c.alive {
		return ErrCarDead
	}

	candidates := c.PossibleMoves()
	move, err := c.strategy.DecideNextMove(candidates, c, view)
	if err != nil {
		return err
	}
	if !slices.Contains(candidates, move) {
		return fmt.Errorf("%w: %v from acceleration %v", ErrIllegalMove, move, c.acceleration)
	}

	c.position = c.position.Add(move)
	c.acceleration = move
	return nil
}

// State returns the serializable state of the car
func (c *Car) State() CarState {
	strategyName := ""
	if c.strategy != nil {
		strategyName = c.strategy.Name()
	}
	return CarState{
		Name:         string(c.name),
		Strategy:     strategyName,
		Position:     c.position,
		Acceleration: c.acceleration,
		Alive:        c.alive,
		Placed:       c.placed,
	}
}

// SetState restores position, acceleration and flags from a snapshot
func (c *Car) SetState(state CarState) {
	c.position = state.Position
	c.acceleration = state.Acceleration
	c.alive = state.Alive
	c.placed = state.Placed
}
