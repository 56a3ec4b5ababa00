package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// extensions lists the accepted config file formats in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager handles board configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string, opts ...Option) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips a known extension from a config name
func configID(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range extensions {
		if ext == known {
			return strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	return name
}

// LoadConfig loads a configuration by name, with or without extension
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	config, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	m.logger.Debug("config loaded", zap.String("config_id", id), zap.String("name", config.Name))
	return config, nil
}

// readConfig finds, parses and validates a config file
func (m *Manager) readConfig(name string) (*engine.GameConfig, error) {
	candidates := []string{name}
	if configID(name) == name {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		data, err := os.ReadFile(filepath.Join(m.configDir, filename))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config, err := engine.ParseGameConfig(filename, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := engine.ValidateGameConfig(config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return config, nil
	}

	return nil, ErrConfigNotFound
}

// configFiles returns the config files in the directory, sorted by name
func (m *Manager) configFiles() ([]string, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || configID(entry.Name()) == entry.Name() {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// ListConfigs returns information about all valid configurations. Invalid
// files are skipped and logged.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	files, err := m.configFiles()
	if err != nil {
		return nil, err
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, filename := range files {
		id := configID(filename)
		if seen[id] {
			continue
		}
		seen[id] = true

		config, err := m.LoadConfig(filename)
		if err != nil {
			m.logger.Warn("skipping config", zap.String("file", filename), zap.Error(err))
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:         filename,
			ConfigID:         id,
			Name:             config.Name,
			Description:      config.Description,
			Columns:          config.Columns,
			Rows:             config.Rows,
			PairMultiplicity: config.PairMultiplicity,
			StartingSeconds:  config.StartingSeconds,
		})
	}

	return configs, nil
}

// CheckAll loads every config file and returns all failures together
func (m *Manager) CheckAll() error {
	files, err := m.configFiles()
	if err != nil {
		return err
	}

	var errs error
	for _, filename := range files {
		if _, err := m.readConfig(filename); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filename, err))
		}
	}
	return errs
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
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

// RefreshCache drops every cached configuration and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// ReloadConfig drops one configuration from the cache and reads it again
func (m *Manager) ReloadConfig(name string) error {
	m.mu.Lock()
	delete(m.configs, configID(name))
	m.mu.Unlock()

	_, err := m.LoadConfig(name)
	return err
}

// Count returns the number of cached configurations
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

// loadDefaultConfig loads classic, else the first valid config, else the
// built-in classic board.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig("classic")
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.logger.Info("no config files found, using built-in board", zap.String("dir", m.configDir))
			m.setDefault(engine.DefaultConfig())
			return nil
		}

		config, err = m.LoadConfig(configs[0].ConfigID)
		if err != nil {
			m.setDefault(engine.DefaultConfig())
			return nil
		}
	}

	m.setDefault(config)
	return nil
}

func (m *Manager) setDefault(config *engine.GameConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
}

// SaveConfig saves a configuration to disk. A name ending in .yaml or .yml
// is written as YAML, anything else as JSON.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := configID(name)
	filename := name
	if id == name {
		filename = name + ".json"
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filename)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	m.logger.Info("config saved", zap.String("config_id", id), zap.String("file", filename))
	return nil
}
