package strategy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/logging"
)

var log = logging.For("strategy")

// Kind identifies a strategy in race files
type Kind string

const (
	Stopped Kind = "stopped-bot"
	Random  Kind = "random-bot"
	BFS     Kind = "bfs-bot"
	DFS     Kind = "dfs-bot"
	Player  Kind = "player"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrNoMoveReader    = errors.New("player strategy needs a move reader")
)

// Kinds returns every known strategy kind
func Kinds() []Kind {
	return []Kind{Stopped, Random, BFS, DFS, Player}
}

// ParseKind maps a race file identifier to a Kind, ignoring case
func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds() {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// IsBot reports whether the kind plays without user input
func (k Kind) IsBot() bool {
	return k != Player
}

// MoveReader supplies the moves of a human player
type MoveReader interface {
	ReadMove(candidates []engine.Vector2, car *engine.Car, view engine.RaceView) (engine.Vector2, error)
}

// Options configure the strategies built by New
type Options struct {
	Rand   *rand.Rand
	Reader MoveReader
}

// Option modifies Options
type Option func(*Options)

// WithSeed makes random strategies deterministic
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Rand = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand sets the random source of random strategies
func WithRand(r *rand.Rand) Option {
	return func(o *Options) {
		o.Rand = r
	}
}

// WithMoveReader sets the input of player strategies
func WithMoveReader(r MoveReader) Option {
	return func(o *Options) {
		o.Reader = r
	}
}

// New creates a fresh strategy of the given kind
func New(kind Kind, opts Options) (engine.Strategy, error) {
	switch kind {
	case Stopped:
		return StoppedStrategy{}, nil
	case Random:
		r := opts.Rand
		if r == nil {
			r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		return &RandomStrategy{rand: r}, nil
	case BFS:
		return NewGraphStrategy(BFS, BreadthFirst), nil
	case DFS:
		return NewGraphStrategy(DFS, DepthFirst), nil
	case Player:
		if opts.Reader == nil {
			return nil, ErrNoMoveReader
		}
		return &PlayerStrategy{reader: opts.Reader}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, kind)
}

// Factory returns an engine.StrategyFactory that builds a new strategy
// instance per car. Random strategies share the configured source.
func Factory(options ...Option) engine.StrategyFactory {
	var opts Options
	for _, o := range options {
		o(&opts)
	}
	return func(name string) (engine.Strategy, error) {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		return New(kind, opts)
	}
}
