package engine

import "time"

const (
	// Validation constants
	MinGridSize         = 2
	MaxGridSize         = 64
	MinMultiplicity     = 2
	MaxReshuffles       = 1000
	StageCycle          = 24
	VirtualLaneInset    = 2.0
	DefaultGravity      = 0.5
	DualPhaseGravity    = 1.0
	MaxTimeGain         = 5.0
	MinTimeGain         = 1.0
	DefaultFrameRate    = 60
	WebSocketBufferSize = 256
)

// Default timings taken from the classic board
const (
	DefaultStartingSeconds = 600
	DefaultMismatchPenalty = 4
	DefaultTimerPeriod     = 2 * time.Second
	DefaultTimerDecrement  = 2
	DefaultHighlight       = 1600 * time.Millisecond
	DefaultDealDelay       = 250 * time.Millisecond
)

// ImageKey identifies a tile face. Two tiles match iff their keys are equal.
type ImageKey string

// Point is a pixel coordinate or a per-axis vector
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell is a row/column index pair. Row and Col may be -1 or the grid size
// when they refer to a virtual lane.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is one of the four ray directions, in solver order.
type Direction int

const (
	Right Direction = iota
	Left
	Down
	Up
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Tile is a single face on the board. Position is the only stored location;
// row and column are always derived through the Grid.
type Tile struct {
	ID       int      `json:"id"`
	Image    ImageKey `json:"image"`
	Position Point    `json:"position"`
	Rest     Point    `json:"rest"`
	Velocity Point    `json:"velocity"`
	Size     Point    `json:"size"`
	Settling bool     `json:"settling"`
}

// Contains reports whether p lies inside the tile rectangle (edges inclusive).
func (t *Tile) Contains(p Point) bool {
	return t.Position.X <= p.X && t.Position.X+t.Size.X >= p.X &&
		t.Position.Y <= p.Y && t.Position.Y+t.Size.Y >= p.Y
}

// AtRest reports whether both axes sit on their rest coordinates
func (t *Tile) AtRest() bool {
	return t.Position == t.Rest
}

// SelectionState is the state of the selection controller
type SelectionState int

const (
	Idle SelectionState = iota
	Selected
	Busy
)

func (s SelectionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// ClickKind is the outcome of a click handed to the selection controller
type ClickKind string

const (
	ClickIgnored    ClickKind = "ignored"
	ClickMissed     ClickKind = "missed"
	ClickSelected   ClickKind = "selected"
	ClickDeselected ClickKind = "deselected"
	ClickMatched    ClickKind = "matched"
	ClickMismatched ClickKind = "mismatched"
)

// ClickResult reports what a click did to the board
type ClickResult struct {
	Kind         ClickKind `json:"kind"`
	Tile         *Tile     `json:"tile,omitempty"`
	Partner      *Tile     `json:"partner,omitempty"`
	Path         []Point   `json:"path,omitempty"`
	TimeDelta    float64   `json:"time_delta,omitempty"`
	StageCleared bool      `json:"stage_cleared,omitempty"`
}

// EventType names something the engine did, for front-ends and sound cues
type EventType string

const (
	EventDealt         EventType = "dealt"
	EventSelected      EventType = "selected"
	EventDeselected    EventType = "deselected"
	EventMatched       EventType = "matched"
	EventMismatched    EventType = "mismatched"
	EventSettled       EventType = "settled"
	EventReshuffled    EventType = "reshuffled"
	EventStageAdvanced EventType = "stage_advanced"
	EventReset         EventType = "reset"
	EventTimeout       EventType = "timeout"
)

// Event is emitted by the engine after a state change
type Event struct {
	Type    EventType `json:"type"`
	Stage   int       `json:"stage"`
	Message string    `json:"message,omitempty"`
}

// GameConfig describes a board. Durations are expressed in milliseconds so
// that configs stay plain JSON/YAML.
type GameConfig struct {
	Name             string   `json:"name" yaml:"name"`
	Description      string   `json:"description" yaml:"description"`
	Columns          int      `json:"columns" yaml:"columns"`
	Rows             int      `json:"rows" yaml:"rows"`
	PairMultiplicity int      `json:"pair_multiplicity" yaml:"pair_multiplicity"`
	BoardWidth       float64  `json:"board_width" yaml:"board_width"`
	BoardHeight      float64  `json:"board_height" yaml:"board_height"`
	Padding          float64  `json:"padding" yaml:"padding"`
	StartingSeconds  float64  `json:"starting_seconds" yaml:"starting_seconds"`
	MismatchPenalty  float64  `json:"mismatch_penalty" yaml:"mismatch_penalty"`
	TimerPeriodMS    int      `json:"timer_period_ms" yaml:"timer_period_ms"`
	TimerDecrement   float64  `json:"timer_decrement" yaml:"timer_decrement"`
	HighlightMS      int      `json:"highlight_ms" yaml:"highlight_ms"`
	DealDelayMS      int      `json:"deal_delay_ms" yaml:"deal_delay_ms"`
	Seed             uint64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Images           []string `json:"images" yaml:"images"`
}

// TimerPeriod returns the countdown clock period
func (c *GameConfig) TimerPeriod() time.Duration {
	return time.Duration(c.TimerPeriodMS) * time.Millisecond
}

// Highlight returns how long a connection path stays visible
func (c *GameConfig) Highlight() time.Duration {
	return time.Duration(c.HighlightMS) * time.Millisecond
}

// DealDelay returns the suspension after a stage is dealt
func (c *GameConfig) DealDelay() time.Duration {
	return time.Duration(c.DealDelayMS) * time.Millisecond
}

// ImageCount is the number of distinct faces a full deal uses
func (c *GameConfig) ImageCount() int {
	return c.Columns * c.Rows / c.PairMultiplicity
}

// TileView is the rendering view of a tile
type TileView struct {
	ID       int      `json:"id"`
	Image    ImageKey `json:"image"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Selected bool     `json:"selected,omitempty"`
	Settling bool     `json:"settling,omitempty"`
}

// Snapshot is everything the rendering and overlay collaborators consume
type Snapshot struct {
	ConfigName       string     `json:"config_name"`
	Stage            int        `json:"stage"`
	Policy           string     `json:"policy"`
	Columns          int        `json:"columns"`
	Rows             int        `json:"rows"`
	BoardWidth       float64    `json:"board_width"`
	BoardHeight      float64    `json:"board_height"`
	RemainingSeconds float64    `json:"remaining_seconds"`
	StartingSeconds  float64    `json:"starting_seconds"`
	TimeRatio        float64    `json:"time_ratio"`
	State            string     `json:"state"`
	Dealing          bool       `json:"dealing"`
	Settling         bool       `json:"settling"`
	TileCount        int        `json:"tile_count"`
	Tiles            []TileView `json:"tiles"`
	Path             []Point    `json:"path,omitempty"`
	Version          uint64     `json:"version"`
}
