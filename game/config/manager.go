package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/service"
	"github.com/wricardo/mcp-training/vectorrace/game/strategy"
	"github.com/wricardo/mcp-training/vectorrace/logging"
)

// Extension is the file extension of race files
const Extension = ".race"

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

var log = logging.For("config")

// Manager handles race file loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.RaceConfig
	configs       map[string]*engine.RaceConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.RaceConfig),
	}

	m.loadDefaultConfig()
	return m, nil
}

// Validate checks a race config and its strategy identifiers
func Validate(config *engine.RaceConfig) error {
	if err := engine.ValidateRaceConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, car := range config.Cars {
		if _, err := strategy.ParseKind(car.Strategy); err != nil {
			return fmt.Errorf("%w: car %s: %v", ErrInvalidConfig, car.Glyph, err)
		}
	}
	return nil
}

// LoadConfig loads a race file by name
func (m *Manager) LoadConfig(name string) (*engine.RaceConfig, error) {
	name = strings.TrimSuffix(name, Extension)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	f, err := os.Open(filepath.Join(m.configDir, name+Extension))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	config, err := engine.ParseRace(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	config.Name = name
	if err := Validate(config); err != nil {
		return nil, err
	}

	m.configs[name] = config
	return config, nil
}

// ListConfigs returns information about all valid race files
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), Extension)
		config, err := m.LoadConfig(name)
		if err != nil {
			log.Warningf("skipping race file %s: %v", entry.Name(), err)
			continue
		}

		configs = append(configs, Describe(entry.Name(), config))
	}

	return configs, nil
}

// Describe summarizes a race config
func Describe(filename string, config *engine.RaceConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename: filename,
		ConfigID: config.Name,
		Height:   len(config.Track),
		Cars:     len(config.Cars),
	}
	for _, row := range config.Track {
		runes := []rune(row)
		info.Width = max(info.Width, len(runes))
		for _, r := range runes {
			switch engine.Tile(r) {
			case engine.Start:
				info.StartTiles++
			case engine.Victory:
				info.VictoryTiles++
			}
		}
	}
	for _, car := range config.Cars {
		info.Strategies = append(info.Strategies, strings.ToLower(car.Strategy))
	}
	return info
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.RaceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// ReloadConfig drops a cached race file and loads it again from disk
func (m *Manager) ReloadConfig(name string) (*engine.RaceConfig, error) {
	name = strings.TrimSuffix(name, Extension)

	m.mu.Lock()
	delete(m.configs, name)
	m.mu.Unlock()

	return m.LoadConfig(name)
}

// RefreshCache drops all cached configurations and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.RaceConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig picks classic.race, else the first valid race file, else
// a built-in corridor
func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig("classic")
	if err != nil {
		config = nil
		if configs, listErr := m.ListConfigs(); listErr == nil && len(configs) > 0 {
			config, _ = m.LoadConfig(configs[0].ConfigID)
		}
	}
	if config == nil {
		config = createMinimalConfig()
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig writes a race file to disk
func (m *Manager) SaveConfig(name string, config *engine.RaceConfig) error {
	name = strings.TrimSuffix(name, Extension)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}
	if err := Validate(config); err != nil {
		return err
	}

	path := filepath.Join(m.configDir, name+Extension)
	if err := os.WriteFile(path, []byte(engine.FormatRace(config)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	saved := *config
	saved.Name = name

	m.mu.Lock()
	m.configs[name] = &saved
	m.mu.Unlock()

	return nil
}

// createMinimalConfig creates a minimal valid race
func createMinimalConfig() *engine.RaceConfig {
	return &engine.RaceConfig{
		Name: "default",
		Track: []string{
			"#######",
			"^.....-",
			"^.....-",
			"#######",
		},
		Cars: []engine.CarSpec{
			{Strategy: string(strategy.BFS), Glyph: "a"},
			{Strategy: string(strategy.DFS), Glyph: "b"},
		},
	}
}
