package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/loop"
	"github.com/wricardo/tile-pairs-game/internal/audio"
)

// app drives one engine loop and a terminal screen
type app struct {
	screen tcell.Screen
	loop   *loop.Loop
	layout layout
	player *audio.Player
	logger *zap.Logger

	changes chan engine.Snapshot
	events  chan engine.Event

	snap    engine.Snapshot
	view    view
	pressed bool
}

func newApp(screen tcell.Screen, config *engine.GameConfig, player *audio.Player, logger *zap.Logger) (*app, error) {
	a := &app{
		screen:  screen,
		layout:  newLayout(engine.GridFromConfig(config)),
		player:  player,
		logger:  logger,
		changes: make(chan engine.Snapshot, 1),
		events:  make(chan engine.Event, 16),
	}

	e, err := engine.NewEngine(config,
		engine.WithLogger(logger.Named("engine")),
		engine.WithEventHandler(a.onEvent),
	)
	if err != nil {
		return nil, err
	}
	a.loop = loop.New(e,
		loop.WithLogger(logger.Named("loop")),
		loop.WithOnChange(a.onChange),
	)
	return a, nil
}

// onChange keeps only the newest snapshot. It runs in the loop goroutine.
func (a *app) onChange(snap engine.Snapshot) {
	select {
	case <-a.changes:
	default:
	}
	a.changes <- snap
}

// onEvent plays the cue and forwards the event. It runs in the loop goroutine.
func (a *app) onEvent(ev engine.Event) {
	if a.player != nil {
		a.player.HandleEvent(ev)
	}
	select {
	case a.events <- ev:
	default:
	}
}

// run blocks until the user quits or ctx is cancelled
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- a.loop.Run(ctx)
	}()

	input := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case input <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-loopErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil

		case snap := <-a.changes:
			a.snap = snap
			a.redraw()

		case ev := <-a.events:
			a.view.status = ev.Message
			if clearsHint(ev.Type) {
				a.view.hint = nil
			}
			a.redraw()

		case ev := <-input:
			if !a.handleInput(ctx, ev) {
				return nil
			}
		}
	}
}

func (a *app) redraw() {
	a.layout.draw(a.screen, a.snap, a.view)
	a.screen.Show()
}

// handleInput returns false when the user asked to quit
func (a *app) handleInput(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() != tcell.KeyRune:
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			a.do(ctx, func(e engine.Engine) { e.Reset() })
		case 'h':
			a.hint(ctx)
		case 'm':
			if a.player != nil {
				a.player.SetMuted(!a.player.Muted())
				a.view.muted = a.player.Muted()
				a.redraw()
			}
		}

	case *tcell.EventMouse:
		down := ev.Buttons()&tcell.Button1 != 0
		if down && !a.pressed {
			x, y := ev.Position()
			a.click(ctx, a.layout.toBoard(x, y))
		}
		a.pressed = down

	case *tcell.EventResize:
		a.screen.Sync()
		a.redraw()
	}
	return true
}

func (a *app) click(ctx context.Context, p engine.Point) {
	var result engine.ClickResult
	a.do(ctx, func(e engine.Engine) { result = e.Click(p) })
	a.logger.Debug("click",
		zap.Float64("x", p.X),
		zap.Float64("y", p.Y),
		zap.String("result", string(result.Kind)),
	)
}

func (a *app) hint(ctx context.Context) {
	var ids []int
	var image engine.ImageKey
	var found bool
	a.do(ctx, func(e engine.Engine) {
		var first, second *engine.Tile
		if first, second, found = e.Hint(); found {
			ids = []int{first.ID, second.ID}
			image = first.Image
		}
	})

	if !found {
		a.view.status = "No pair can be matched right now"
		a.view.hint = nil
	} else {
		a.view.status = fmt.Sprintf("Try %s", image)
		a.view.hint = ids
	}
	a.redraw()
}

func (a *app) do(ctx context.Context, fn loop.Action) {
	if err := a.loop.Do(ctx, fn); err != nil {
		a.logger.Warn("loop action failed", zap.Error(err))
	}
}
