package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/service"
	"github.com/wricardo/mcp-training/vectorrace/logging"
)

// IDLength is the length of generated session IDs
const IDLength = 8

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

var log = logging.For("session")

// Manager handles race session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	build       service.RaceBuilder
	persistence SessionPersistence
	mu          sync.RWMutex
}

// NewManager creates a new session manager that builds races with build
func NewManager(build service.RaceBuilder) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		build:    build,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(build service.RaceBuilder, persistence SessionPersistence) *Manager {
	m := NewManager(build)
	m.persistence = persistence
	return m
}

// Create creates a new session with the given ID and race file
func (m *Manager) Create(id string, config *engine.RaceConfig) (*service.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no race config", engine.ErrInvalidRace)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if strings.ContainsAny(id, `/\. `) {
		return nil, ErrInvalidSessionID
	}

	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	race, err := m.build(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create race: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Race:           race,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = session

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			log.Warningf("failed to persist session %s: %v", id, err)
		}
	}

	log.Infof("created session %s for race %q", id, config.Name)
	return session, nil
}

// key maps a session ID to its map key; IDs are case-insensitive
func key(id string) string {
	return strings.ToLower(id)
}

// Get returns a session, restoring it from storage when it is not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	sess, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have restored it meanwhile
	if existing, ok := m.sessions[key(id)]; ok {
		return existing, nil
	}
	m.sessions[key(id)] = sess
	log.Debugf("restored session %s at round %d", sess.ID, sess.Race.Round())
	return sess, nil
}

// List returns all sessions held in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) snapshot() []*service.Session {
	out := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[key(id)]
	delete(m.sessions, key(id))

	stored := m.persistence != nil && m.persistence.Exists(id)
	if !inMemory && !stored {
		return ErrSessionNotFound
	}
	if stored {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}
	log.Infof("deleted session %s", id)
	return nil
}

// DeleteFromMemory evicts a session without touching its stored copy
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	return nil
}

// UpdateLastAccessed marks a session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Save writes the current race state of a session to storage. It is a no-op
// without persistence.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// CleanupExpiredSessions evicts sessions idle for longer than maxAge from
// memory. Evicted sessions are saved first, so they can still be restored by
// Get; it returns the number of evicted sessions.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, sess := range m.sessions {
		if !sess.LastAccessedAt.Before(cutoff) {
			continue
		}
		if m.persistence != nil {
			if err := m.persistence.Save(sess); err != nil {
				log.Warningf("keeping expired session %s in memory: %v", sess.ID, err)
				continue
			}
		}
		delete(m.sessions, k)
		removed++
	}
	return removed
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns the first IDLength hex digits of a random UUID,
// retrying on collision
func (m *Manager) generateSessionID() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
		if !m.sessionExists(id) {
			return id
		}
	}
}

func (m *Manager) sessionExists(id string) bool {
	_, ok := m.sessions[key(id)]
	return ok
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, broken := 0, 0
	for _, id := range ids {
		if m.sessionExists(id) {
			continue
		}
		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Warningf("skipping stored session %s: %v", id, err)
			broken++
			continue
		}
		m.sessions[key(id)] = sess
		loaded++
	}

	log.Noticef("restored %d of %d stored sessions (%d unreadable)", loaded, len(ids), broken)
	return nil
}

// SaveAllSessions writes every in-memory session to storage
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sessions := m.snapshot()
	m.mu.RUnlock()

	var failed []string
	for _, sess := range sessions {
		if err := m.persistence.Save(sess); err != nil {
			log.Warningf("failed to save session %s: %v", sess.ID, err)
			failed = append(failed, sess.ID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to save sessions %s", strings.Join(failed, ", "))
	}
	return nil
}
