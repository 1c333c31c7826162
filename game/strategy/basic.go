package strategy

import (
	"math/rand/v2"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// StoppedStrategy brakes: it picks the candidate with the smallest speed and
// stays put once stopped.
type StoppedStrategy struct{}

func (StoppedStrategy) Name() string { return string(Stopped) }

func (StoppedStrategy) DecideNextMove(candidates []engine.Vector2, _ *engine.Car, _ engine.RaceView) (engine.Vector2, error) {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if speed(c) < speed(best) {
			best = c
		}
	}
	return best, nil
}

func speed(v engine.Vector2) int {
	return v.X*v.X + v.Y*v.Y
}

// RandomStrategy picks a random candidate that neither crashes nor leaves the
// car where it stands, or any candidate when no such move exists.
type RandomStrategy struct {
	rand *rand.Rand
}

func (s *RandomStrategy) Name() string { return string(Random) }

func (s *RandomStrategy) DecideNextMove(candidates []engine.Vector2, car *engine.Car, view engine.RaceView) (engine.Vector2, error) {
	safe := make([]engine.Vector2, 0, len(candidates))
	for _, c := range candidates {
		if c.IsZero() || view.Track.HasCrashed(car.Position(), car.Position().Add(c)) {
			continue
		}
		safe = append(safe, c)
	}
	if len(safe) == 0 {
		safe = candidates
	}
	return safe[s.rand.IntN(len(safe))], nil
}

// PlayerStrategy asks a MoveReader for every move
type PlayerStrategy struct {
	reader MoveReader
}

func (s *PlayerStrategy) Name() string { return string(Player) }

func (s *PlayerStrategy) DecideNextMove(candidates []engine.Vector2, car *engine.Car, view engine.RaceView) (engine.Vector2, error) {
	return s.reader.ReadMove(candidates, car, view)
}
