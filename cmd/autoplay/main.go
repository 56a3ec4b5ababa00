// Command autoplay plays a Tile Pairs session over the REST API, clicking
// hinted pairs until a target stage is reached. The session ID is saved so
// the next run can pick up the same board.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/internal/client"
	"github.com/wricardo/tile-pairs-game/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "Clear Tile Pairs stages through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("TILEPAIRS_URL")},
			&cli.StringFlag{Name: "config", Usage: "Board configuration for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "Where the last session ID is kept"},
			&cli.BoolFlag{Name: "fresh", Usage: "Ignore the saved session and start a new one"},
			&cli.IntFlag{Name: "target-stage", Value: 5, Usage: "Stop once this stage is reached"},
			&cli.IntFlag{Name: "max-clicks", Value: 5000, Usage: "Give up after this many clicks (0 = no limit)"},
			&cli.DurationFlag{Name: "poll", Value: 50 * time.Millisecond, Usage: "Wait between board checks while tiles settle"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autoplay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New(cmd.String("log-level"), true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	c := client.New(cmd.String("url"), client.WithLogger(logger.Named("client")))
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", c.BaseURL(), err)
	}

	sessionFile := cmd.String("session-file")
	if err := openSession(ctx, c, cmd, sessionFile, logger); err != nil {
		return err
	}

	player := NewAutoplayer(c, logger, cmd.Duration("poll"), int(cmd.Int("max-clicks")))
	started := time.Now()
	stats, err := player.Play(ctx, int(cmd.Int("target-stage")))

	logger.Info("run finished",
		zap.String("session_id", c.SessionID()),
		zap.Int("stage", stats.Stage),
		zap.Int("stages_cleared", stats.Cleared),
		zap.Int("matches", stats.Matches),
		zap.Int("mismatches", stats.Mismatches),
		zap.Int("clicks", stats.Clicks),
		zap.Int("timeouts", stats.Timeouts),
		zap.Duration("elapsed", time.Since(started)),
	)
	return err
}

// openSession resumes the requested or saved session, or creates a new
// one and records its ID.
func openSession(ctx context.Context, c *client.Client, cmd *cli.Command, sessionFile string, logger *zap.Logger) error {
	saved := cmd.String("continue")
	if saved == "" && !cmd.Bool("fresh") {
		if data, err := os.ReadFile(sessionFile); err == nil {
			saved = string(bytes.TrimSpace(data))
		}
	}

	if saved != "" {
		c.UseSession(saved)
		info, err := c.Session(ctx)
		if err == nil {
			logger.Info("resumed session",
				zap.String("session_id", info.ID),
				zap.String("config", info.ConfigName),
				zap.Int("stage", info.Board.Stage),
			)
			return nil
		}
		logger.Warn("failed to resume session, creating a new one", zap.String("session_id", saved), zap.Error(err))
	}

	info, err := c.CreateSession(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	logger.Info("session created",
		zap.String("session_id", info.ID),
		zap.String("config", info.ConfigName),
		zap.Int("tiles", info.Board.TileCount),
	)

	if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
		logger.Warn("failed to save session ID", zap.String("file", sessionFile), zap.Error(err))
	}
	return nil
}
