package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/tile-pairs-game/game/engine"
)

var (
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrSessionNotFound = errors.New("session not found")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
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
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, ErrConfigNotFound)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, ErrConfigNotFound)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(ctx, session, configID)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(ctx, session, s.getConfigID(session.Config.Name))
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.sessionInfo(ctx, sess, s.getConfigID(sess.Config.Name))
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}

	return result, nil
}

// DeleteSession removes a session and stops its loop
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Click hands a click to the session's selection controller
func (s *gameServiceImpl) Click(ctx context.Context, sessionID string, req ClickRequest) (*ClickResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	var resp *ClickResponse
	err = sess.Loop.Do(ctx, func(e engine.Engine) {
		var res engine.ClickResult
		if req.ByCell() {
			res = e.ClickCell(*req.Row, *req.Col)
		} else {
			res = e.Click(engine.Point{X: *req.X, Y: *req.Y})
		}

		// Refs are taken before the snapshot; matched tiles are no longer on
		// the board but their cells still describe where they were.
		resp = &ClickResponse{
			Result:       res.Kind,
			Success:      res.Kind != engine.ClickIgnored && res.Kind != engine.ClickMissed,
			Message:      clickMessage(res),
			Tile:         tileRef(e.Board(), res.Tile),
			Partner:      tileRef(e.Board(), res.Partner),
			Path:         res.Path,
			TimeDelta:    res.TimeDelta,
			StageCleared: res.StageCleared,
		}
		snap := e.Snapshot()
		resp.Board = &snap
	})
	if err != nil {
		return nil, fmt.Errorf("click failed: %w", err)
	}

	return resp, nil
}

// Reset restarts the session at stage 1
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	var snap engine.Snapshot
	err = sess.Loop.Do(ctx, func(e engine.Engine) {
		e.Reset()
		snap = e.Snapshot()
	})
	if err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	return &snap, nil
}

// GetBoard returns the current board snapshot
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	snap, err := sess.Loop.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	return &snap, nil
}

// Hint returns one pair that can be matched right now
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &HintResult{}
	err = sess.Loop.Do(ctx, func(e engine.Engine) {
		a, b, ok := e.Hint()
		if !ok {
			result.Message = "No pair can be matched right now"
			return
		}
		result.Found = true
		result.First = tileRef(e.Board(), a)
		result.Second = tileRef(e.Board(), b)
		result.Message = fmt.Sprintf("Match %s at (%d,%d) with (%d,%d)",
			a.Image, result.First.Row, result.First.Col, result.Second.Row, result.Second.Col)
	})
	if err != nil {
		return nil, fmt.Errorf("hint failed: %w", err)
	}
	return result, nil
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) sessionInfo(ctx context.Context, sess *Session, configID string) (*SessionInfo, error) {
	snap, err := sess.Loop.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sess.ID, err)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Board:          &snap,
		GameConfig:     sess.Config,
	}, nil
}

func tileRef(b *engine.Board, t *engine.Tile) *TileRef {
	if t == nil {
		return nil
	}
	c := b.CellOf(t)
	return &TileRef{ID: t.ID, Image: t.Image, Row: c.Row, Col: c.Col}
}

func clickMessage(res engine.ClickResult) string {
	switch res.Kind {
	case engine.ClickIgnored:
		return "Board is busy, click ignored"
	case engine.ClickMissed:
		return "No tile there"
	case engine.ClickSelected:
		return fmt.Sprintf("Selected %s", res.Tile.Image)
	case engine.ClickDeselected:
		return fmt.Sprintf("Deselected %s", res.Tile.Image)
	case engine.ClickMatched:
		if res.StageCleared {
			return fmt.Sprintf("Matched %s, stage cleared (+%.1fs)", res.Tile.Image, res.TimeDelta)
		}
		return fmt.Sprintf("Matched %s (+%.1fs)", res.Tile.Image, res.TimeDelta)
	case engine.ClickMismatched:
		return fmt.Sprintf("%s does not connect to %s (%.1fs)", res.Tile.Image, res.Partner.Image, res.TimeDelta)
	default:
		return string(res.Kind)
	}
}
