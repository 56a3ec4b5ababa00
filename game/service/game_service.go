package service

import (
	"context"
	"time"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/loop"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Click(ctx context.Context, sessionID string, req ClickRequest) (*ClickResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetBoard(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. The engine is reachable only
// through its loop.
type Session struct {
	ID             string
	Loop           *loop.Loop
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
