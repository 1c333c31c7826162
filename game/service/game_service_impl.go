package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/logging"
)

var log = logging.For("service")

// raceServiceImpl implements the RaceService interface
type raceServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewRaceService creates a new race service instance
func NewRaceService(sessions SessionManager, configs ConfigManager) RaceService {
	return &raceServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new race session
func (s *raceServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.RaceConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate the ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *raceServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *raceServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *raceServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Step runs up to the given number of rounds, stopping early when the race
// finishes
func (s *raceServiceImpl) Step(ctx context.Context, sessionID string, rounds int) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if sess.Race.IsFinished() {
		return nil, engine.ErrRaceFinished
	}

	if rounds <= 0 {
		rounds = 1
	}
	result := &StepResult{
		RequestedRounds: rounds,
		Events:          []RaceEvent{},
	}
	if rounds > engine.MaxBulkRounds {
		result.Truncated = true
		result.Limit = engine.MaxBulkRounds
		rounds = engine.MaxBulkRounds
	}

	historyBefore := len(sess.Race.History())
	var stepErr error
	for i := 0; i < rounds && !sess.Race.IsFinished(); i++ {
		if stepErr = sess.Race.Step(ctx); stepErr != nil {
			result.StoppedReason = stepErr.Error()
			break
		}
		result.RoundsExecuted++
	}

	result.Events = turnEvents(sess.Race.History()[historyBefore:])
	result.Finished = sess.Race.IsFinished()
	if winner := sess.Race.Winner(); winner != nil {
		result.Winner = string(winner.Name())
	}
	if result.Finished && result.StoppedReason == "" {
		result.StoppedReason = sess.Race.Message()
	}
	result.RaceState = sess.Race.Snapshot()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Warningf("failed to persist session %s after step: %v", sessionID, err)
	}

	if stepErr != nil && result.RoundsExecuted == 0 {
		return nil, stepErr
	}
	return result, nil
}

// Run steps the race until it finishes or the round limit is reached
func (s *raceServiceImpl) Run(ctx context.Context, sessionID string) (*StepResult, error) {
	return s.Step(ctx, sessionID, engine.MaxBulkRounds)
}

// GetRaceState retrieves the current race state
func (s *raceServiceImpl) GetRaceState(ctx context.Context, sessionID string) (*engine.RaceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Race.Snapshot(), nil
}

// GetTurnHistory returns paginated turn history
func (s *raceServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Race.History()
	if opts.Car != "" {
		filtered := make([]engine.TurnRecord, 0, len(history))
		for _, record := range history {
			if record.Car == opts.Car {
				filtered = append(filtered, record)
			}
		}
		history = filtered
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	turns := []engine.TurnRecord{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			turns = append(turns, history[i])
		}
	} else if start < total {
		turns = append(turns, history[start:end]...)
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available race files
func (s *raceServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific race file
func (s *raceServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.RaceConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a race file to disk
func (s *raceServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.RaceConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func sessionInfo(session *Session) *SessionInfo {
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     session.Config.Name,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		RaceState:      session.Race.Snapshot(),
		RaceConfig:     session.Config,
	}
}

// turnEvents converts turn records into race events
func turnEvents(records []engine.TurnRecord) []RaceEvent {
	events := make([]RaceEvent, 0, len(records))
	for _, r := range records {
		ev := RaceEvent{
			Type:      "move",
			Car:       r.Car,
			Turn:      r.Turn,
			Position:  r.To,
			Timestamp: time.Unix(r.Timestamp, 0),
			Message:   fmt.Sprintf("%s moved %v -> %v", r.Car, r.From, r.To),
		}
		switch {
		case r.Retired:
			ev.Type = "retired"
			ev.Message = fmt.Sprintf("%s retired: %s", r.Car, r.Error)
		case r.Crashed:
			ev.Type = "crash"
			ev.Message = fmt.Sprintf("%s crashed moving %v -> %v", r.Car, r.From, r.To)
		case r.Won:
			ev.Type = "victory"
			ev.Message = fmt.Sprintf("%s reached the finish at %v", r.Car, r.To)
		}
		events = append(events, ev)
	}
	return events
}
