package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/vectorrace/logging"
)

var log = logging.For("engine")

// UI is the render and input collaborator of a race
type UI interface {
	// Render draws the current state of the race
	Render(view RaceView)
	// Automatic reports whether the race proceeds without confirmation
	Automatic() bool
	// WaitForAdvance blocks until the user confirms the next turn
	WaitForAdvance() error
	// Announce shows a crash, win or warning notice
	Announce(message string)
}

// Race drives turns across all cars on a track
type Race struct {
	track   *Track
	cars    []*Car
	ui      UI
	status  RaceStatus
	winner  *Car
	turn    int
	round   int
	message string
	history []TurnRecord

	// startedWith is the number of cars that got a start tile
	startedWith int
}

// NewRace places the cars on the track and returns a running race. Cars that
// do not get a start tile are excluded from the race.
func NewRace(track *Track, cars []*Car, ui UI) (*Race, error) {
	if track == nil {
		return nil, fmt.Errorf("%w: track is nil", ErrInvalidRace)
	}
	if len(cars) == 0 {
		return nil, ErrNoCars
	}
	if ui == nil {
		ui = HeadlessUI{}
	}

	seen := make(map[rune]bool, len(cars))
	for _, car := range cars {
		if seen[car.Name()] {
			return nil, fmt.Errorf("%w: duplicate car name %q", ErrInvalidRace, car.Name())
		}
		seen[car.Name()] = true
	}

	r := &Race{
		track:   track,
		cars:    cars,
		ui:      ui,
		status:  StatusRunning,
		history: []TurnRecord{},
	}

	unplaced := track.PlaceAtStart(cars)
	for _, car := range unplaced {
		car.Kill()
		msg := fmt.Sprintf("%c has no start tile and does not race.", car.Name())
		log.Warning(msg)
		ui.Announce(msg)
	}
	r.startedWith = len(cars) - len(unplaced)
	r.message = fmt.Sprintf("Race started with %d cars.", r.startedWith)

	if r.startedWith == 0 {
		r.finish(nil, "No car could be placed on the track.")
	}

	return r, nil
}

// Track returns the race track
func (r *Race) Track() *Track { return r.track }

// Cars returns all cars, including dead and unplaced ones
func (r *Race) Cars() []*Car { return r.cars }

// Status returns the current race status
func (r *Race) Status() RaceStatus { return r.status }

// IsFinished reports whether the race is over
func (r *Race) IsFinished() bool { return r.status == StatusFinished }

// Winner returns the winning car, or nil
func (r *Race) Winner() *Car { return r.winner }

// Turn returns the number of turns taken
func (r *Race) Turn() int { return r.turn }

// Round returns the number of rounds started
func (r *Race) Round() int { return r.round }

// History returns the turn history
func (r *Race) History() []TurnRecord { return r.history }

// View returns the read-only race context handed to strategies and UIs
func (r *Race) View() RaceView {
	return RaceView{Track: r.track, Cars: r.cars}
}

// AliveCars returns the cars still racing, in race order
func (r *Race) AliveCars() []*Car {
	alive := make([]*Car, 0, len(r.cars))
	for _, car := range r.cars {
		if car.Alive() {
			alive = append(alive, car)
		}
	}
	return alive
}

// SetUI replaces the UI collaborator
func (r *Race) SetUI(ui UI) {
	if ui == nil {
		ui = HeadlessUI{}
	}
	r.ui = ui
}

// Step runs one round: every living car takes one turn in race order. The
// context is checked before each turn.
func (r *Race) Step(ctx context.Context) error {
	if r.IsFinished() {
		return ErrRaceFinished
	}
	r.round++

	for _, car := range r.cars {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.ui.Render(r.View())
		if !r.ui.Automatic() {
			if err := r.ui.WaitForAdvance(); err != nil {
				return fmt.Errorf("waiting for advance: %w", err)
			}
		}

		if !car.Alive() {
			continue
		}

		r.takeTurn(car)
		if r.IsFinished() {
			r.ui.Render(r.View())
			return nil
		}
	}

	return nil
}

// Run steps until the race is finished or the context is cancelled
func (r *Race) Run(ctx context.Context) error {
	for !r.IsFinished() {
		if err := r.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// takeTurn moves one car and applies crash, retirement and finish checks
func (r *Race) takeTurn(car *Car) {
	r.turn++
	before := car.Position()
	record := TurnRecord{
		Turn:      r.turn,
		Round:     r.round,
		Car:       string(car.Name()),
		From:      before,
		Timestamp: time.Now().Unix(),
	}

	if err := car.NextMove(r.View()); err != nil {
		car.Kill()
		record.To = before
		record.Retired = true
		record.Error = err.Error()
		r.message = fmt.Sprintf("%c retired: %v", car.Name(), err)
		log.Errorf("car %c retired on turn %d: %v", car.Name(), r.turn, err)
		r.ui.Announce(r.message)
		r.history = append(r.history, record)
		r.checkSurvivors()
		return
	}

	record.To = car.Position()
	record.Acceleration = car.Acceleration()

	switch {
	case r.track.HasCrashed(before, car.Position()):
		car.Kill()
		record.Crashed = true
		r.message = fmt.Sprintf("%c crashed.", car.Name())
		log.Infof("car %c crashed moving %v -> %v", car.Name(), before, car.Position())
		r.ui.Announce(r.message)
		r.history = append(r.history, record)
		r.checkSurvivors()

	case r.track.IsOnVictory(car.Position()):
		record.Won = true
		r.history = append(r.history, record)
		r.finish(car, fmt.Sprintf("%c won.", car.Name()))

	default:
		r.message = fmt.Sprintf("%c moved %v -> %v", car.Name(), before, car.Position())
		log.Debugf("turn %d: %s", r.turn, r.message)
		r.history = append(r.history, record)
		r.checkSurvivors()
	}
}

// checkSurvivors finishes the race when the roster shrinks to one car (in
// races that started with more than one) or to none.
func (r *Race) checkSurvivors() {
	alive := r.AliveCars()
	switch {
	case len(alive) == 0:
		r.finish(nil, "No cars left on the track.")
	case len(alive) == 1 && r.startedWith > 1:
		r.finish(alive[0], fmt.Sprintf("%c is the last car racing and wins.", alive[0].Name()))
	}
}

func (r *Race) finish(winner *Car, message string) {
	r.status = StatusFinished
	r.winner = winner
	r.message = message
	log.Info(message)
	r.ui.Announce(message)
}

// Snapshot returns the serializable state of the race
func (r *Race) Snapshot() *RaceState {
	cars := make([]CarState, len(r.cars))
	for i, car := range r.cars {
		cars[i] = car.State()
	}
	winner := ""
	if r.winner != nil {
		winner = string(r.winner.Name())
	}
	return &RaceState{
		Track:   r.track.Rows(),
		Cars:    cars,
		Status:  r.status,
		Winner:  winner,
		Turn:    r.turn,
		Round:   r.round,
		Message: r.message,
		History: append([]TurnRecord(nil), r.history...),
		Frame:   r.track.Render(r.cars),
	}
}

// Restore applies a snapshot taken from a race over the same track and cars.
// Cars are matched by name.
func (r *Race) Restore(state *RaceState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}

	byName := make(map[string]*Car, len(r.cars))
	for _, car := range r.cars {
		byName[string(car.Name())] = car
	}
	for _, cs := range state.Cars {
		car, ok := byName[cs.Name]
		if !ok {
			return fmt.Errorf("%w: snapshot car %q is not in the race", ErrInvalidRace, cs.Name)
		}
		car.SetState(cs)
	}

	r.status = state.Status
	r.turn = state.Turn
	r.round = state.Round
	r.message = state.Message
	r.history = append([]TurnRecord{}, state.History...)
	r.winner = nil
	if state.Winner != "" {
		r.winner = byName[state.Winner]
	}

	placed := 0
	for _, car := range r.cars {
		if car.Placed() {
			placed++
		}
	}
	r.startedWith = placed
	return nil
}

// Message returns the last race message
func (r *Race) Message() string { return r.message }

// HeadlessUI renders nothing and never waits
type HeadlessUI struct{}

func (HeadlessUI) Render(RaceView)       {}
func (HeadlessUI) Automatic() bool       { return true }
func (HeadlessUI) WaitForAdvance() error { return nil }
func (HeadlessUI) Announce(string)       {}

// Tee fans a race out to several UIs. It is automatic only when every UI is;
// waiting is delegated to the UIs that are not automatic.
func Tee(uis ...UI) UI {
	return teeUI(uis)
}

type teeUI []UI

func (t teeUI) Render(view RaceView) {
	for _, ui := range t {
		ui.Render(view)
	}
}

func (t teeUI) Automatic() bool {
	for _, ui := range t {
		if !ui.Automatic() {
			return false
		}
	}
	return true
}

func (t teeUI) WaitForAdvance() error {
	for _, ui := range t {
		if ui.Automatic() {
			continue
		}
		if err := ui.WaitForAdvance(); err != nil {
			return err
		}
	}
	return nil
}

func (t teeUI) Announce(message string) {
	for _, ui := range t {
		ui.Announce(message)
	}
}
