package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Input
	Click(p Point) ClickResult
	ClickCell(row, col int) ClickResult

	// Clocks
	Frame(elapsed time.Duration)
	TimerTick()

	// Stage management
	Reset()
	Stage() int
	State() SelectionState
	Dealing() bool
	Settling() bool

	// Views
	Snapshot() Snapshot
	Hint() (*Tile, *Tile, bool)
	Board() *Board
	Version() uint64

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *GameEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEventHandler registers a callback for engine events. It runs inside
// the engine's execution queue and must not call back into the engine.
func WithEventHandler(fn func(Event)) Option {
	return func(e *GameEngine) {
		e.onEvent = fn
	}
}

// WithSeed overrides the config seed
func WithSeed(seed uint64) Option {
	return func(e *GameEngine) {
		e.seed = seed
	}
}

// GameEngine implements the Engine interface. It is the stage orchestrator
// and selection controller; it is not safe for concurrent use and expects
// a single owner to feed it clicks and clock ticks.
type GameEngine struct {
	config *GameConfig
	board  *Board
	rng    *RNG
	sched  *FrameScheduler
	logger *zap.Logger
	seed   uint64

	onEvent func(Event)

	selected  *Tile
	busy      bool
	dealing   bool
	settling  bool
	gravity   float64
	onSettled func()

	epoch        uint64
	highlightGen uint64
	version      uint64
}

// NewEngine creates an engine for config and deals stage 1
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config: config,
		sched:  NewFrameScheduler(),
		logger: zap.NewNop(),
		seed:   config.Seed,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rng = NewRNG(e.seed)
	e.board = NewBoard(GridFromConfig(config), config.PairMultiplicity, config.StartingSeconds)

	e.Reset()
	return e, nil
}

// NewEngineWithDefaults creates an engine on the classic board
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

// Board returns the live board. Callers must not mutate it.
func (e *GameEngine) Board() *Board {
	return e.board
}

// Stage returns the current stage number
func (e *GameEngine) Stage() int {
	return e.board.Stage
}

// State returns the selection controller state
func (e *GameEngine) State() SelectionState {
	switch {
	case e.busy:
		return Busy
	case e.selected != nil:
		return Selected
	default:
		return Idle
	}
}

// Dealing reports whether the deal suspension is still running
func (e *GameEngine) Dealing() bool {
	return e.dealing
}

// Settling reports whether tiles are still falling
func (e *GameEngine) Settling() bool {
	return e.settling
}

// Selected returns the highlighted tile, if any
func (e *GameEngine) Selected() *Tile {
	return e.selected
}

// Version increases on every visible change
func (e *GameEngine) Version() uint64 {
	return e.version
}

// GetConfig returns the current board configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig switches to a new configuration and restarts at stage 1
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.board = NewBoard(GridFromConfig(config), config.PairMultiplicity, config.StartingSeconds)
	e.Reset()
	return nil
}

// Reset restarts the game at stage 1 with a fresh deal
func (e *GameEngine) Reset() {
	e.board.Stage = 0
	e.advanceStage()
	e.emit(EventReset, "game reset")
}

// Frame advances the engine clock by elapsed and runs every action due
func (e *GameEngine) Frame(elapsed time.Duration) {
	e.sched.Frame(elapsed)
}

// TimerTick is the fixed-period countdown. When the remaining budget runs
// out the game restarts at stage 1.
func (e *GameEngine) TimerTick() {
	e.board.RemainingSeconds -= e.config.TimerDecrement
	e.touch()

	if e.board.ProportionalTime() <= 0 {
		e.logger.Info("time ran out",
			zap.Int("stage", e.board.Stage),
			zap.Int("tiles_left", e.board.Len()),
		)
		e.emit(EventTimeout, fmt.Sprintf("time ran out on stage %d", e.board.Stage))
		e.Reset()
	}
}

// Click hit-tests a pixel position and hands the tile to the selection
// controller.
func (e *GameEngine) Click(p Point) ClickResult {
	if e.dealing || e.busy {
		return ClickResult{Kind: ClickIgnored}
	}
	t := e.board.HitTest(p)
	if t == nil {
		return ClickResult{Kind: ClickMissed}
	}
	return e.clickTile(t)
}

// ClickCell clicks the tile whose derived cell is row, col
func (e *GameEngine) ClickCell(row, col int) ClickResult {
	if e.dealing || e.busy {
		return ClickResult{Kind: ClickIgnored}
	}
	t := e.board.TileAt(row, col)
	if t == nil {
		return ClickResult{Kind: ClickMissed}
	}
	return e.clickTile(t)
}

func (e *GameEngine) clickTile(t *Tile) ClickResult {
	defer e.touch()

	s := e.selected
	switch {
	case s == nil:
		e.selected = t
		e.emit(EventSelected, string(t.Image))
		return ClickResult{Kind: ClickSelected, Tile: t}

	case s == t:
		e.selected = nil
		e.emit(EventDeselected, string(t.Image))
		return ClickResult{Kind: ClickDeselected, Tile: t}

	case e.board.Pairable(t, s):
		return e.eliminate(s, t)

	default:
		e.selected = nil
		e.board.RemainingSeconds -= e.config.MismatchPenalty
		e.emit(EventMismatched, fmt.Sprintf("%s does not pair with %s", s.Image, t.Image))
		return ClickResult{Kind: ClickMismatched, Tile: s, Partner: t, TimeDelta: -e.config.MismatchPenalty}
	}
}

// eliminate removes a matched pair, rewards the clock and hands the board
// to the movement policy or the next stage.
func (e *GameEngine) eliminate(s, t *Tile) ClickResult {
	gain := e.board.TimeGain()
	e.board.RemainingSeconds += gain

	path := append([]Point(nil), e.board.PendingPath...)
	e.showPath()

	e.board.Remove(t, s)
	e.selected = nil

	e.logger.Debug("pair matched",
		zap.String("image", string(s.Image)),
		zap.Int("stage", e.board.Stage),
		zap.Int("tiles_left", e.board.Len()),
		zap.Float64("time_gain", gain),
	)
	e.emit(EventMatched, string(s.Image))

	result := ClickResult{Kind: ClickMatched, Tile: s, Partner: t, Path: path, TimeDelta: gain}
	if e.board.Empty() {
		result.StageCleared = true
		e.advanceStage()
		return result
	}

	e.applyMechanics()
	return result
}

// showPath keeps the pending path visible for the highlight duration. A
// newer match restarts the timer.
func (e *GameEngine) showPath() {
	e.highlightGen++
	gen := e.highlightGen
	e.sched.Schedule(e.config.Highlight(), func() {
		if gen != e.highlightGen {
			return
		}
		e.board.PendingPath = nil
		e.touch()
	})
}

// advanceStage deals a fresh board for the next stage
func (e *GameEngine) advanceStage() {
	e.epoch++
	e.sched.Clear()

	// The connection that cleared the last stage stays visible over the
	// new deal until its highlight expires.
	path := e.board.PendingPath
	e.board.Stage++
	e.board.Clear()
	e.board.RemainingSeconds = e.board.StartingSeconds
	if path != nil {
		e.board.PendingPath = path
		e.showPath()
	}

	keys := dealKeys(e.config)
	e.rng.ShuffleKeys(keys)
	i := 0
	for r := 0; r < e.config.Rows; r++ {
		for c := 0; c < e.config.Columns; c++ {
			e.board.AddTile(keys[i], r, c)
			i++
		}
	}

	e.selected = nil
	e.busy = false
	e.settling = false
	e.onSettled = nil
	e.dealing = true
	e.touch()

	policy := PolicyFor(e.board.Stage)
	e.logger.Info("stage dealt",
		zap.Int("stage", e.board.Stage),
		zap.String("policy", policy.String()),
		zap.Int("tiles", e.board.Len()),
	)
	e.emit(EventDealt, fmt.Sprintf("stage %d: %s", e.board.Stage, policy))
	if e.board.Stage > 1 {
		e.emit(EventStageAdvanced, policy.String())
	}

	epoch := e.epoch
	e.sched.Schedule(e.config.DealDelay(), func() {
		if epoch != e.epoch {
			return
		}
		e.dealing = false
		e.guard()
		e.touch()
	})
}

// applyMechanics retargets the remaining tiles under the stage policy and
// starts settling them. Dual-phase stages run the column phase to
// completion before the row phase and ignore clicks until both are done.
func (e *GameEngine) applyMechanics() {
	policy := PolicyFor(e.board.Stage)
	e.gravity = policy.Gravity

	if !policy.DualPhase {
		policy.Retarget(e.board, true, true, e.rng)
		e.settle(e.guard)
		return
	}

	e.busy = true
	policy.Retarget(e.board, true, false, e.rng)
	e.settle(func() {
		policy.Retarget(e.board, false, true, e.rng)
		e.settle(func() {
			e.busy = false
			e.guard()
		})
	})
}

// settle runs one settling step per frame until every tile rests, then
// calls onDone. Calling it while a settle is running replaces onDone.
func (e *GameEngine) settle(onDone func()) {
	e.onSettled = onDone
	if e.settling {
		return
	}
	e.settling = true

	epoch := e.epoch
	var step func()
	step = func() {
		if epoch != e.epoch {
			return
		}
		moving := e.board.SettleStep(e.gravity)
		e.touch()
		if moving > 0 {
			e.sched.NextFrame(step)
			return
		}

		e.settling = false
		done := e.onSettled
		e.onSettled = nil
		e.emit(EventSettled, "")
		if done != nil {
			done()
		}
	}
	e.sched.NextFrame(step)
}

// guard runs the solvability check after the board comes to rest
func (e *GameEngine) guard() {
	reshuffles, ok := e.board.EnsureSolvable(e.rng)
	if reshuffles > 0 {
		e.logger.Info("board reshuffled",
			zap.Int("stage", e.board.Stage),
			zap.Int("reshuffles", reshuffles),
			zap.Bool("solvable", ok),
		)
		e.emit(EventReshuffled, fmt.Sprintf("%d reshuffles", reshuffles))
		e.touch()
	}
	if !e.board.MultiplicityHolds() {
		e.logger.Error("image keys no longer pair up",
			zap.Int("stage", e.board.Stage),
			zap.Int("tiles_left", e.board.Len()),
		)
	}
	if !ok && !e.board.Empty() {
		e.logger.Warn("board has no pairable tiles",
			zap.Int("stage", e.board.Stage),
			zap.Int("tiles_left", e.board.Len()),
		)
	}
}

// Hint returns one pairable pair without touching the pending path
func (e *GameEngine) Hint() (*Tile, *Tile, bool) {
	return e.board.FindPair()
}

// Snapshot returns the rendering view of the board
func (e *GameEngine) Snapshot() Snapshot {
	g := e.board.Geometry()
	tiles := make([]TileView, 0, e.board.Len())
	for _, t := range e.board.Tiles {
		c := e.board.CellOf(t)
		tiles = append(tiles, TileView{
			ID:       t.ID,
			Image:    t.Image,
			X:        t.Position.X,
			Y:        t.Position.Y,
			Width:    t.Size.X,
			Height:   t.Size.Y,
			Row:      c.Row,
			Col:      c.Col,
			Selected: t == e.selected,
			Settling: !t.AtRest(),
		})
	}

	return Snapshot{
		ConfigName:       e.config.Name,
		Stage:            e.board.Stage,
		Policy:           PolicyFor(e.board.Stage).String(),
		Columns:          g.Columns,
		Rows:             g.Rows,
		BoardWidth:       g.Width,
		BoardHeight:      g.Height,
		RemainingSeconds: e.board.RemainingSeconds,
		StartingSeconds:  e.board.StartingSeconds,
		TimeRatio:        e.board.ProportionalTime(),
		State:            e.State().String(),
		Dealing:          e.dealing,
		Settling:         e.settling,
		TileCount:        e.board.Len(),
		Tiles:            tiles,
		Path:             append([]Point(nil), e.board.PendingPath...),
		Version:          e.version,
	}
}

func (e *GameEngine) touch() {
	e.version++
}

func (e *GameEngine) emit(t EventType, msg string) {
	if e.onEvent == nil {
		return
	}
	e.onEvent(Event{Type: t, Stage: e.board.Stage, Message: msg})
}
