// Package console runs a race on a text terminal.
//
// A Console prints the track after every turn with the car glyphs drawn over
// their tiles, prints crash and victory announcements, and in stepped mode
// waits for Enter before each turn. It also reads the moves of player cars:
//
//	c := console.New(os.Stdin, os.Stdout, false)
//	race, err := engine.NewRaceFromConfig(config, strategy.Factory(strategy.WithMoveReader(c)), c)
package console
