package service

import (
	"time"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// SessionInfo provides information about a race session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	RaceState      *engine.RaceState  `json:"race_state"`
	RaceConfig     *engine.RaceConfig `json:"race_config"`
}

// StepResult contains the result of stepping a race
type StepResult struct {
	RoundsExecuted  int               `json:"rounds_executed"`
	RequestedRounds int               `json:"requested_rounds"`
	Truncated       bool              `json:"truncated,omitempty"`
	Limit           int               `json:"limit,omitempty"`
	Events          []RaceEvent       `json:"events"`
	Finished        bool              `json:"finished"`
	Winner          string            `json:"winner,omitempty"`
	StoppedReason   string            `json:"stopped_reason,omitempty"`
	RaceState       *engine.RaceState `json:"race_state"`
}

// RaceEvent represents something that happened during a turn
type RaceEvent struct {
	Type      string         `json:"type"` // "move", "crash", "retired", "victory"
	Car       string         `json:"car"`
	Turn      int            `json:"turn"`
	Message   string         `json:"message"`
	Position  engine.Vector2 `json:"position"`
	Timestamp time.Time      `json:"timestamp"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Car   string `json:"car,omitempty"`
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a race file
type ConfigInfo struct {
	Filename     string   `json:"filename"`
	ConfigID     string   `json:"config_id"` // The identifier to use for session creation
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Cars         int      `json:"cars"`
	StartTiles   int      `json:"start_tiles"`
	VictoryTiles int      `json:"victory_tiles"`
	Strategies   []string `json:"strategies"`
}
