package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// RaceService defines all race-related operations
type RaceService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Race Operations
	Step(ctx context.Context, sessionID string, rounds int) (*StepResult, error)
	Run(ctx context.Context, sessionID string) (*StepResult, error)

	// Race State
	GetRaceState(ctx context.Context, sessionID string) (*engine.RaceState, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.RaceConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.RaceConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.RaceConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ErrConfigNotFound is reported when no race file goes by the requested name
var ErrConfigNotFound = errors.New("configuration not found")

// ConfigManager handles race file loading. LoadConfig reports unknown names
// with an error wrapping ErrConfigNotFound.
type ConfigManager interface {
	LoadConfig(name string) (*engine.RaceConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.RaceConfig
	SaveConfig(name string, config *engine.RaceConfig) error
}

// Session represents an active race session
type Session struct {
	ID             string
	Race           *engine.Race
	Config         *engine.RaceConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// RaceBuilder creates the race of a session
type RaceBuilder func(sessionID string, config *engine.RaceConfig) (*engine.Race, error)

// UIFactory creates the UI collaborator of a session
type UIFactory func(sessionID string) engine.UI

// NewRaceBuilder returns a RaceBuilder that creates the strategies with
// factory and renders to the UIs of every given UIFactory
func NewRaceBuilder(factory engine.StrategyFactory, uis ...UIFactory) RaceBuilder {
	return func(sessionID string, config *engine.RaceConfig) (*engine.Race, error) {
		collaborators := make([]engine.UI, 0, len(uis))
		for _, newUI := range uis {
			if ui := newUI(sessionID); ui != nil {
				collaborators = append(collaborators, ui)
			}
		}

		var ui engine.UI = engine.HeadlessUI{}
		switch len(collaborators) {
		case 0:
		case 1:
			ui = collaborators[0]
		default:
			ui = engine.Tee(collaborators...)
		}
		return engine.NewRaceFromConfig(config, factory, ui)
	}
}
