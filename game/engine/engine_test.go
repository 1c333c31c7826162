package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingUI counts render calls and keeps announcements
type recordingUI struct {
	renders       int
	waits         int
	manual        bool
	waitErr       error
	announcements []string
}

func (u *recordingUI) Render(RaceView)   { u.renders++ }
func (u *recordingUI) Automatic() bool   { return !u.manual }
func (u *recordingUI) Announce(m string) { u.announcements = append(u.announcements, m) }
func (u *recordingUI) WaitForAdvance() error {
	u.waits++
	return u.waitErr
}

var corridor = []string{
	"#####",
	"^...-",
	"#####",
}

func newTestRace(t *testing.T, rows []string, ui UI, cars ...*Car) *Race {
	t.Helper()
	race, err := NewRace(mustTrack(t, rows...), cars, ui)
	if err != nil {
		t.Fatalf("NewRace failed: %v", err)
	}
	return race
}

func TestRaceCorridorVictory(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}, {2, 0}, {1, 0}}})
	ui := &recordingUI{}
	race := newTestRace(t, corridor, ui, car)

	if err := race.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if race.Status() != StatusFinished {
		t.Errorf("status = %s, expected finished", race.Status())
	}
	if race.Winner() != car {
		t.Errorf("winner = %v, expected car a", race.Winner())
	}
	if race.Turn() != 3 || race.Round() != 3 {
		t.Errorf("turn %d round %d, expected 3 and 3", race.Turn(), race.Round())
	}
	if car.Position() != (Vector2{4, 1}) {
		t.Errorf("car at %v, expected (4,1)", car.Position())
	}

	history := race.History()
	if len(history) != 3 || !history[2].Won {
		t.Fatalf("unexpected history %+v", history)
	}
	if history[1].From != (Vector2{1, 1}) || history[1].To != (Vector2{3, 1}) {
		t.Errorf("second turn %v -> %v", history[1].From, history[1].To)
	}
	if ui.renders == 0 {
		t.Error("UI was never rendered")
	}
}

func TestRaceCrashKillsCar(t *testing.T) {
	crasher := NewCar('a', &scriptedStrategy{moves: []Vector2{{0, -1}}})
	waiter := NewCar('b', &scriptedStrategy{moves: []Vector2{{0, 0}, {0, 0}}})
	ui := &recordingUI{}
	race := newTestRace(t, []string{
		"#####",
		"^...-",
		"^...#",
		"#####",
	}, ui, crasher, waiter)

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if crasher.Alive() {
		t.Error("crashed car should be dead")
	}
	if !race.History()[0].Crashed {
		t.Error("history should record the crash")
	}
	if race.Status() != StatusFinished || race.Winner() != waiter {
		t.Errorf("expected b to win as last survivor, got status %s winner %v", race.Status(), race.Winner())
	}
	if waiter.Position() != (Vector2{0, 2}) {
		t.Errorf("race should end before b moves, b at %v", waiter.Position())
	}

	found := false
	for _, a := range ui.announcements {
		if strings.Contains(a, "crashed") {
			found = true
		}
	}
	if !found {
		t.Errorf("crash was not announced: %v", ui.announcements)
	}
}

func TestRaceSingleCarCrashEndsWithoutWinner(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{moves: []Vector2{{0, 1}}})
	race := newTestRace(t, corridor, nil, car)

	if err := race.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if race.Status() != StatusFinished || race.Winner() != nil {
		t.Errorf("expected finished race without winner, got %s %v", race.Status(), race.Winner())
	}
}

func TestRaceSingleCarKeepsRacing(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}, {0, 0}}})
	race := newTestRace(t, corridor, nil, car)

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if race.IsFinished() {
		t.Error("a lone car must not win by being the last one racing")
	}
}

func TestRaceUnplacedCars(t *testing.T) {
	a := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	b := NewCar('b', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	ui := &recordingUI{}
	race := newTestRace(t, corridor, ui, a, b)

	if b.Placed() || b.Alive() {
		t.Errorf("b should be excluded: placed=%v alive=%v", b.Placed(), b.Alive())
	}
	if race.IsFinished() {
		t.Fatal("race with one placed car should still be running")
	}
	if len(ui.announcements) == 0 || !strings.Contains(ui.announcements[0], "b") {
		t.Errorf("missing start tile warning: %v", ui.announcements)
	}

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(race.History()) != 1 || race.History()[0].Car != "a" {
		t.Errorf("only a should have moved: %+v", race.History())
	}
}

func TestRaceNoStartTiles(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{})
	race := newTestRace(t, []string{"#...-#"}, nil, car)

	if !race.IsFinished() || race.Winner() != nil {
		t.Errorf("expected race finished without winner, got %s %v", race.Status(), race.Winner())
	}
	if err := race.Step(context.Background()); !errors.Is(err, ErrRaceFinished) {
		t.Errorf("expected ErrRaceFinished, got %v", err)
	}
}

func TestNewRaceErrors(t *testing.T) {
	track := mustTrack(t, corridor...)

	if _, err := NewRace(track, nil, nil); !errors.Is(err, ErrNoCars) {
		t.Errorf("expected ErrNoCars, got %v", err)
	}
	if _, err := NewRace(nil, []*Car{NewCar('a', nil)}, nil); !errors.Is(err, ErrInvalidRace) {
		t.Errorf("expected ErrInvalidRace for nil track, got %v", err)
	}
	if _, err := NewRace(track, []*Car{NewCar('a', nil), NewCar('a', nil)}, nil); !errors.Is(err, ErrInvalidRace) {
		t.Errorf("expected ErrInvalidRace for duplicate names, got %v", err)
	}
}

func TestRaceStrategyFailureRetiresCar(t *testing.T) {
	boom := errors.New("no way out")
	a := NewCar('a', &scriptedStrategy{err: boom})
	b := NewCar('b', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	c := NewCar('c', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	race := newTestRace(t, []string{
		"^...-",
		"^...-",
		"^...-",
	}, nil, a, b, c)

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if a.Alive() {
		t.Error("car whose strategy failed should be retired")
	}
	record := race.History()[0]
	if !record.Retired || !strings.Contains(record.Error, "no way out") {
		t.Errorf("unexpected record %+v", record)
	}
	if race.IsFinished() {
		t.Error("race should continue with two cars left")
	}
	if len(race.History()) != 3 {
		t.Errorf("expected 3 turns, got %d", len(race.History()))
	}
}

func TestRaceIllegalMoveRetiresCar(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{moves: []Vector2{{3, 0}}})
	race := newTestRace(t, corridor, nil, car)

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if car.Alive() || car.Position() != (Vector2{0, 1}) {
		t.Errorf("car should be retired in place: alive=%v pos=%v", car.Alive(), car.Position())
	}
	if !race.IsFinished() {
		t.Error("race should finish when no car is left")
	}
}

func TestRaceCancellation(t *testing.T) {
	car := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	race := newTestRace(t, corridor, nil, car)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := race.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if race.Turn() != 0 || car.Position() != (Vector2{0, 1}) {
		t.Error("no turn should be taken after cancellation")
	}
}

func TestRaceManualUI(t *testing.T) {
	a := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	b := NewCar('b', &scriptedStrategy{moves: []Vector2{{1, 0}}})
	ui := &recordingUI{manual: true}
	race := newTestRace(t, []string{"^..-", "^..-"}, ui, a, b)

	if err := race.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if ui.waits != 2 {
		t.Errorf("expected one wait per car, got %d", ui.waits)
	}

	ui.waitErr = errors.New("stdin closed")
	if err := race.Step(context.Background()); err == nil {
		t.Error("expected wait error to stop the race")
	}
}

func TestRaceSnapshotRestore(t *testing.T) {
	a := NewCar('a', &scriptedStrategy{moves: []Vector2{{1, 0}, {1, 0}}})
	race := newTestRace(t, corridor, nil, a)
	if err := race.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	state := race.Snapshot()
	if state.Turn != 1 || state.Status != StatusRunning || len(state.History) != 1 {
		t.Fatalf("unexpected snapshot %+v", state)
	}
	if state.Frame[1] != "^a..-" {
		t.Errorf("frame row = %q", state.Frame[1])
	}

	fresh := NewCar('a', &scriptedStrategy{moves: []Vector2{{2, 0}, {1, 0}}})
	restored := newTestRace(t, corridor, nil, fresh)
	if err := restored.Restore(state); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if fresh.Position() != (Vector2{1, 1}) || restored.Turn() != 1 {
		t.Errorf("restore mismatch: pos %v turn %d", fresh.Position(), restored.Turn())
	}

	if err := restored.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if restored.Winner() != fresh || restored.Turn() != 3 {
		t.Errorf("restored race should finish on turn 3, got winner %v turn %d", restored.Winner(), restored.Turn())
	}

	state.Cars[0].Name = "q"
	if err := restored.Restore(state); !errors.Is(err, ErrInvalidRace) {
		t.Errorf("expected ErrInvalidRace for unknown car, got %v", err)
	}
}

func TestTee(t *testing.T) {
	auto := &recordingUI{}
	manual := &recordingUI{manual: true}
	ui := Tee(auto, manual)

	if ui.Automatic() {
		t.Error("tee with a manual UI should not be automatic")
	}
	ui.Render(RaceView{})
	ui.Announce("hello")
	if err := ui.WaitForAdvance(); err != nil {
		t.Fatal(err)
	}

	if auto.renders != 1 || manual.renders != 1 {
		t.Errorf("renders: %d %d", auto.renders, manual.renders)
	}
	if auto.waits != 0 || manual.waits != 1 {
		t.Errorf("waits: %d %d", auto.waits, manual.waits)
	}
	if len(auto.announcements) != 1 || len(manual.announcements) != 1 {
		t.Error("announcement not fanned out")
	}
	if !Tee(auto, HeadlessUI{}).Automatic() {
		t.Error("tee of automatic UIs should be automatic")
	}
}
