package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/service"
	"github.com/wricardo/mcp-training/vectorrace/game/strategy"
)

func createTestConfig() *engine.RaceConfig {
	return &engine.RaceConfig{
		Name: "corridor",
		Track: []string{
			"######",
			"^....-",
			"^....-",
			"######",
		},
		Cars: []engine.CarSpec{
			{Strategy: "bfs-bot", Glyph: "a"},
			{Strategy: "stopped-bot", Glyph: "b"},
		},
	}
}

func testBuilder() service.RaceBuilder {
	return service.NewRaceBuilder(strategy.Factory(strategy.WithSeed(7)))
}

func TestManager_Create(t *testing.T) {
	manager := NewManager(testBuilder())

	t.Run("generated ID", func(t *testing.T) {
		sess, err := manager.Create("", createTestConfig())
		require.NoError(t, err)
		assert.Len(t, sess.ID, IDLength)
		require.NotNil(t, sess.Race)
		assert.Equal(t, engine.StatusRunning, sess.Race.Status())
		assert.Len(t, sess.Race.AliveCars(), 2)
		assert.False(t, sess.CreatedAt.IsZero())
	})

	t.Run("custom ID", func(t *testing.T) {
		sess, err := manager.Create("Grid-1", createTestConfig())
		require.NoError(t, err)
		assert.Equal(t, "Grid-1", sess.ID)

		_, err = manager.Create("grid-1", createTestConfig())
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("../escape", createTestConfig())
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := manager.Create("", nil)
		assert.ErrorIs(t, err, engine.ErrInvalidRace)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		config := createTestConfig()
		config.Cars[0].Strategy = "warp-bot"
		_, err := manager.Create("", config)
		assert.ErrorIs(t, err, engine.ErrInvalidRace)
	})

	assert.Equal(t, 2, manager.Count())
}

func TestManager_Get(t *testing.T) {
	manager := NewManager(testBuilder())
	created, err := manager.Create("AbC", createTestConfig())
	require.NoError(t, err)

	for _, id := range []string{"AbC", "abc", "ABC"} {
		got, err := manager.Get(id)
		require.NoError(t, err, id)
		assert.Same(t, created, got)
	}

	_, err = manager.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(testBuilder())
	sess, err := manager.Create("", createTestConfig())
	require.NoError(t, err)

	require.NoError(t, manager.Delete(sess.ID))
	_, err = manager.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete(sess.ID), ErrSessionNotFound)
	assert.ErrorIs(t, manager.DeleteFromMemory(sess.ID), ErrSessionNotFound)
}

func TestManager_List(t *testing.T) {
	manager := NewManager(testBuilder())
	assert.Empty(t, manager.List())

	for i := 0; i < 3; i++ {
		_, err := manager.Create(fmt.Sprintf("race%d", i), createTestConfig())
		require.NoError(t, err)
	}
	assert.Len(t, manager.List(), 3)
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager(testBuilder())
	old, err := manager.Create("old", createTestConfig())
	require.NoError(t, err)
	_, err = manager.Create("fresh", createTestConfig())
	require.NoError(t, err)

	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	assert.Equal(t, 1, manager.CleanupExpiredSessions(time.Hour))
	_, err = manager.Get("old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = manager.Get("fresh")
	assert.NoError(t, err)
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager(testBuilder())
	sess, err := manager.Create("", createTestConfig())
	require.NoError(t, err)

	before := sess.LastAccessedAt
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, manager.UpdateLastAccessed(strings.ToUpper(sess.ID)))
	assert.True(t, sess.LastAccessedAt.After(before))

	assert.ErrorIs(t, manager.UpdateLastAccessed("missing"), ErrSessionNotFound)
}

func TestManager_SaveWithoutPersistence(t *testing.T) {
	manager := NewManager(testBuilder())
	assert.NoError(t, manager.Save("anything"))
	assert.NoError(t, manager.SaveAllSessions())
	assert.NoError(t, manager.LoadPersistedSessions())
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager(testBuilder())
	first, err := manager.Create("", createTestConfig())
	require.NoError(t, err)
	second, err := manager.Create("", createTestConfig())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, first.Race.Step(context.Background()))
	assert.Equal(t, 1, first.Race.Round())
	assert.Equal(t, 0, second.Race.Round())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager(testBuilder())

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.Create("", createTestConfig())
			if assert.NoError(t, err) {
				ids <- sess.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate session ID %s", id)
		seen[id] = true
		_, err := manager.Get(id)
		assert.NoError(t, err)
	}
	assert.Equal(t, 20, manager.Count())
}
