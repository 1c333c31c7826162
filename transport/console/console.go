package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// AdvancePrompt is printed before each turn of a stepped race
const AdvancePrompt = "Press Enter to advance Simulation."

// ErrInputClosed is returned when the input ends while the race waits for it
var ErrInputClosed = errors.New("console input closed")

// Console draws a race on a text terminal. It is both the race UI and the
// move reader of player cars; both read from the same input.
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	automatic bool
}

// New creates a console. Automatic consoles never wait for Enter.
func New(in io.Reader, out io.Writer, automatic bool) *Console {
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		automatic: automatic,
	}
}

// Render prints the track with the car glyphs on top of their tiles
func (c *Console) Render(view engine.RaceView) {
	for _, row := range view.Track.Render(view.Cars) {
		fmt.Fprintln(c.out, row)
	}
	fmt.Fprintln(c.out)
}

// Automatic reports whether the race runs without waiting for Enter
func (c *Console) Automatic() bool {
	return c.automatic
}

// WaitForAdvance prompts and blocks until a line is read
func (c *Console) WaitForAdvance() error {
	fmt.Fprintln(c.out, AdvancePrompt)
	if _, err := c.readLine(); err != nil {
		return err
	}
	return nil
}

// Announce prints a race event
func (c *Console) Announce(message string) {
	fmt.Fprintf(c.out, ">> %s\n", message)
}

// ReadMove lists the candidate moves of a player car and reads the number of
// the chosen one. Invalid answers are asked again.
func (c *Console) ReadMove(candidates []engine.Vector2, car *engine.Car, view engine.RaceView) (engine.Vector2, error) {
	fmt.Fprintf(c.out, "Car %c at %v, last move %v\n", car.Name(), car.Position(), car.Acceleration())
	for i, move := range candidates {
		target := car.Position().Add(move)
		note := ""
		switch {
		case view.Track.HasCrashed(car.Position(), target):
			note = " (crash)"
		case view.Track.IsOnVictory(target):
			note = " (finish)"
		}
		fmt.Fprintf(c.out, "  %d) move %v to %v%s\n", i+1, move, target, note)
	}

	for {
		fmt.Fprintf(c.out, "Choose a move [1-%d]: ", len(candidates))
		line, err := c.readLine()
		if err != nil {
			return engine.Vector2{}, err
		}

		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > len(candidates) {
			fmt.Fprintf(c.out, "%q is not a move number.\n", line)
			continue
		}
		return candidates[choice-1], nil
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSpace(line), nil
			}
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("reading console input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
