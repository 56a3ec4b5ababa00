package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/internal/client"
)

// ErrClickLimit stops a run that used up its click budget
var ErrClickLimit = errors.New("click limit reached")

// Stats summarizes one run
type Stats struct {
	Clicks     int
	Matches    int
	Mismatches int
	Cleared    int
	Timeouts   int
	Stage      int
}

// Autoplayer clears stages by asking the server for hints and clicking
// the suggested pair.
type Autoplayer struct {
	client    *client.Client
	logger    *zap.Logger
	poll      time.Duration
	maxClicks int
}

func NewAutoplayer(c *client.Client, logger *zap.Logger, poll time.Duration, maxClicks int) *Autoplayer {
	return &Autoplayer{
		client:    c,
		logger:    logger,
		poll:      poll,
		maxClicks: maxClicks,
	}
}

// ready reports whether the board accepts clicks and sits still
func ready(snap *engine.Snapshot) bool {
	return !snap.Dealing && !snap.Settling && snap.State != engine.Busy.String() && snap.TileCount > 0
}

func selectedTile(snap *engine.Snapshot) *engine.TileView {
	for i := range snap.Tiles {
		if snap.Tiles[i].Selected {
			return &snap.Tiles[i]
		}
	}
	return nil
}

// Play runs until the session reaches targetStage, ctx ends or the click
// budget is spent.
func (p *Autoplayer) Play(ctx context.Context, targetStage int) (Stats, error) {
	var stats Stats

	for {
		snap, err := p.client.Board(ctx)
		if err != nil {
			return stats, fmt.Errorf("read board: %w", err)
		}

		if snap.Stage < stats.Stage {
			stats.Timeouts++
			p.logger.Warn("clock ran out, back to stage 1", zap.Int("was_stage", stats.Stage))
		}
		stats.Stage = snap.Stage

		if snap.Stage >= targetStage {
			return stats, nil
		}
		if p.maxClicks > 0 && stats.Clicks >= p.maxClicks {
			return stats, ErrClickLimit
		}
		if !ready(snap) {
			if !p.wait(ctx) {
				return stats, ctx.Err()
			}
			continue
		}

		// Start from a clean selection so the hinted pair is clicked in order
		if sel := selectedTile(snap); sel != nil {
			if _, err := p.client.ClickCell(ctx, sel.Row, sel.Col); err != nil {
				return stats, err
			}
			stats.Clicks++
			continue
		}

		hint, err := p.client.Hint(ctx)
		if err != nil {
			return stats, fmt.Errorf("hint: %w", err)
		}
		if !hint.Found {
			if !p.wait(ctx) {
				return stats, ctx.Err()
			}
			continue
		}

		first, err := p.client.ClickCell(ctx, hint.First.Row, hint.First.Col)
		if err != nil {
			return stats, err
		}
		stats.Clicks++
		if first.Result != engine.ClickSelected {
			p.logger.Debug("first click did not select", zap.String("result", string(first.Result)))
			continue
		}

		second, err := p.client.ClickCell(ctx, hint.Second.Row, hint.Second.Col)
		if err != nil {
			return stats, err
		}
		stats.Clicks++

		switch second.Result {
		case engine.ClickMatched:
			stats.Matches++
			p.logger.Debug("matched",
				zap.String("image", string(hint.First.Image)),
				zap.Float64("time_gain", second.TimeDelta),
			)
			if second.StageCleared {
				stats.Cleared++
				p.logger.Info("stage cleared", zap.Int("stage", snap.Stage), zap.Int("clicks", stats.Clicks))
			}
		case engine.ClickMismatched:
			stats.Mismatches++
			p.logger.Warn("hinted pair did not connect", zap.String("message", second.Message))
		}
	}
}

func (p *Autoplayer) wait(ctx context.Context) bool {
	t := time.NewTimer(p.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
