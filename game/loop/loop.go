package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
)

var (
	ErrLoopStopped = errors.New("game loop stopped")
	ErrLoopRunning = errors.New("game loop already running")
)

// Action runs against the engine inside the loop goroutine
type Action func(e engine.Engine)

// Option configures a Loop
type Option func(*Loop)

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFrameInterval sets the animation frame interval
func WithFrameInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.frame = d
		}
	}
}

// WithOnChange registers a callback that receives a snapshot whenever the
// engine version moves. It runs in the loop goroutine.
func WithOnChange(fn func(engine.Snapshot)) Option {
	return func(l *Loop) {
		l.onChange = fn
	}
}

// WithClock replaces the wall clock used to measure frame time
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// Loop is the host of one engine. It owns the two clocks (the animation
// frame driver and the fixed-period countdown timer) and the single
// execution queue every caller goes through, so the engine is only ever
// touched from the loop goroutine.
type Loop struct {
	engine   engine.Engine
	frame    time.Duration
	now      func() time.Time
	logger   *zap.Logger
	onChange func(engine.Snapshot)

	actions  chan Action
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	lastVersion uint64
	published   bool
}

// New creates a loop for e. Call Run to start it.
func New(e engine.Engine, opts ...Option) *Loop {
	l := &Loop{
		engine:  e,
		frame:   time.Second / engine.DefaultFrameRate,
		now:     time.Now,
		logger:  zap.NewNop(),
		actions: make(chan Action),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives the engine until ctx is canceled or Stop is called
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)

	frames := time.NewTicker(l.frame)
	defer frames.Stop()

	period := l.engine.GetConfig().TimerPeriod()
	timer := time.NewTicker(period)
	defer timer.Stop()

	l.logger.Debug("game loop started",
		zap.Duration("frame", l.frame),
		zap.Duration("timer_period", period),
	)

	last := l.now()
	l.publish()
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("game loop canceled")
			return ctx.Err()

		case <-l.stop:
			l.logger.Debug("game loop stopped")
			return nil

		case act := <-l.actions:
			act(l.engine)

		case <-frames.C:
			now := l.now()
			l.engine.Frame(now.Sub(last))
			last = now

		case <-timer.C:
			l.engine.TimerTick()
		}

		// SetConfig may change the countdown period
		if p := l.engine.GetConfig().TimerPeriod(); p != period {
			period = p
			timer.Reset(period)
		}
		l.publish()
	}
}

// Do runs fn inside the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn Action) error {
	finished := make(chan struct{})
	wrapped := func(e engine.Engine) {
		defer close(finished)
		fn(e)
	}

	select {
	case l.actions <- wrapped:
	case <-l.stop:
		return ErrLoopStopped
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// A received action always runs before the loop checks for shutdown
	<-finished
	return nil
}

// Snapshot returns the current rendering view of the engine
func (l *Loop) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := l.Do(ctx, func(e engine.Engine) {
		snap = e.Snapshot()
	})
	return snap, err
}

// Stop asks the loop to exit. It does not wait; use Done for that.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) publish() {
	if l.onChange == nil {
		return
	}
	v := l.engine.Version()
	if l.published && v == l.lastVersion {
		return
	}
	l.published = true
	l.lastVersion = v
	l.onChange(l.engine.Snapshot())
}
