package engine

import (
	"errors"
	"slices"
	"testing"
)

// scriptedStrategy plays a fixed list of moves, then fails
type scriptedStrategy struct {
	moves []Vector2
	err   error
	calls int
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) DecideNextMove(candidates []Vector2, car *Car, view RaceView) (Vector2, error) {
	if s.err != nil {
		return Vector2{}, s.err
	}
	if s.calls >= len(s.moves) {
		return Vector2{}, errors.New("script exhausted")
	}
	move := s.moves[s.calls]
	s.calls++
	return move, nil
}

func TestCandidateMoves(t *testing.T) {
	moves := CandidateMoves(Vector2{})
	if len(moves) != 9 {
		t.Fatalf("expected 9 candidates, got %d", len(moves))
	}
	if moves[4] != (Vector2{}) {
		t.Errorf("middle candidate should be the zero move, got %v", moves[4])
	}
	if moves[0] != (Vector2{-1, -1}) || moves[8] != (Vector2{1, 1}) {
		t.Errorf("unexpected candidate order: %v", moves)
	}

	acc := Vector2{2, 1}
	moves = CandidateMoves(acc)
	for _, expected := range []Vector2{{1, 0}, {2, 1}, {3, 2}, {3, 0}, {1, 2}} {
		if !slices.Contains(moves, expected) {
			t.Errorf("CandidateMoves(%v) missing %v", acc, expected)
		}
	}
	if slices.Contains(moves, Vector2{0, 0}) {
		t.Errorf("CandidateMoves(%v) should not contain the zero move", acc)
	}
}

func TestNextMove(t *testing.T) {
	track := mustTrack(t, "^....-")
	strategy := &scriptedStrategy{moves: []Vector2{{1, 0}, {2, 0}}}
	car := NewCar('a', strategy)
	track.PlaceAtStart([]*Car{car})
	view := RaceView{Track: track, Cars: []*Car{car}}

	if err := car.NextMove(view); err != nil {
		t.Fatalf("NextMove failed: %v", err)
	}
	if car.Position() != (Vector2{1, 0}) || car.Acceleration() != (Vector2{1, 0}) {
		t.Errorf("after first move: pos %v acc %v", car.Position(), car.Acceleration())
	}

	if err := car.NextMove(view); err != nil {
		t.Fatalf("NextMove failed: %v", err)
	}
	if car.Position() != (Vector2{3, 0}) || car.Acceleration() != (Vector2{2, 0}) {
		t.Errorf("after second move: pos %v acc %v", car.Position(), car.Acceleration())
	}
}

func TestNextMoveErrors(t *testing.T) {
	track := mustTrack(t, "^....-")

	t.Run("not placed", func(t *testing.T) {
		car := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}}})
		err := car.NextMove(RaceView{Track: track})
		if !errors.Is(err, ErrNotPlaced) {
			t.Errorf("expected ErrNotPlaced, got %v", err)
		}
		if car.Position() != (Vector2{}) {
			t.Errorf("unplaced car moved to %v", car.Position())
		}
	})

	t.Run("dead", func(t *testing.T) {
		car := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}}})
		track.PlaceAtStart([]*Car{car})
		car.Kill()
		if err := car.NextMove(RaceView{Track: track}); !errors.Is(err, ErrCarDead) {
			t.Errorf("expected ErrCarDead, got %v", err)
		}
	})

	t.Run("illegal move", func(t *testing.T) {
		car := NewCar('a', &scriptedStrategy{moves: []Vector2{{2, 0}}})
		track.PlaceAtStart([]*Car{car})
		err := car.NextMove(RaceView{Track: track})
		if !errors.Is(err, ErrIllegalMove) {
			t.Errorf("expected ErrIllegalMove, got %v", err)
		}
		if car.Position() != (Vector2{}) || car.Acceleration() != (Vector2{}) {
			t.Errorf("illegal move changed the car: pos %v acc %v", car.Position(), car.Acceleration())
		}
	})

	t.Run("strategy error", func(t *testing.T) {
		boom := errors.New("boom")
		car := NewCar('a', &scriptedStrategy{err: boom})
		track.PlaceAtStart([]*Car{car})
		if err := car.NextMove(RaceView{Track: track}); !errors.Is(err, boom) {
			t.Errorf("expected strategy error, got %v", err)
		}
	})
}

func TestCarState(t *testing.T) {
	track := mustTrack(t, "^....-")
	car := NewCar('z', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	track.PlaceAtStart([]*Car{car})
	if err := car.NextMove(RaceView{Track: track}); err != nil {
		t.Fatal(err)
	}

	state := car.State()
	if state.Name != "z" || state.Strategy != "scripted" || !state.Alive || !state.Placed {
		t.Errorf("unexpected state %+v", state)
	}

	other := NewCar('z', nil)
	other.SetState(state)
	if other.Position() != car.Position() || other.Acceleration() != car.Acceleration() || !other.Placed() {
		t.Errorf("SetState did not restore the car: %+v", other.State())
	}
}
