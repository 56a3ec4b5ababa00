package service

import (
	"errors"
	"time"

	"github.com/wricardo/tile-pairs-game/game/engine"
)

var ErrInvalidClick = errors.New("click needs either x and y or row and col")

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Board          *engine.Snapshot   `json:"board"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ClickRequest addresses a tile either by board pixel or by grid cell
type ClickRequest struct {
	X   *float64 `json:"x,omitempty"`
	Y   *float64 `json:"y,omitempty"`
	Row *int     `json:"row,omitempty"`
	Col *int     `json:"col,omitempty"`
}

// ByCell reports whether the request names a grid cell
func (r ClickRequest) ByCell() bool {
	return r.Row != nil && r.Col != nil
}

// ByPoint reports whether the request names a pixel position
func (r ClickRequest) ByPoint() bool {
	return r.X != nil && r.Y != nil
}

// Validate checks that exactly one addressing mode is complete
func (r ClickRequest) Validate() error {
	if r.ByCell() == r.ByPoint() {
		return ErrInvalidClick
	}
	return nil
}

// TileRef identifies a tile in responses
type TileRef struct {
	ID    int             `json:"id"`
	Image engine.ImageKey `json:"image"`
	Row   int             `json:"row"`
	Col   int             `json:"col"`
}

// ClickResponse contains the outcome of a click
type ClickResponse struct {
	Result       engine.ClickKind `json:"result"`
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Tile         *TileRef         `json:"tile,omitempty"`
	Partner      *TileRef         `json:"partner,omitempty"`
	Path         []engine.Point   `json:"path,omitempty"`
	TimeDelta    float64          `json:"time_delta"`
	StageCleared bool             `json:"stage_cleared,omitempty"`
	Board        *engine.Snapshot `json:"board"`
}

// HintResult names one pair that can be matched right now
type HintResult struct {
	Found   bool     `json:"found"`
	First   *TileRef `json:"first,omitempty"`
	Second  *TileRef `json:"second,omitempty"`
	Message string   `json:"message"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename         string  `json:"filename"`
	ConfigID         string  `json:"config_id"` // The identifier to use for session creation
	Name             string  `json:"name"`      // Display name
	Description      string  `json:"description"`
	Columns          int     `json:"columns"`
	Rows             int     `json:"rows"`
	PairMultiplicity int     `json:"pair_multiplicity"`
	StartingSeconds  float64 `json:"starting_seconds"`
}
