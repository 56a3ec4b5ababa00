// Command desktop is a windowed Tile Pairs client. It drives a session on
// the game server over REST and follows it over the WebSocket stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/service"
	"github.com/wricardo/tile-pairs-game/internal/audio"
	"github.com/wricardo/tile-pairs-game/internal/client"
	"github.com/wricardo/tile-pairs-game/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "desktop",
		Usage: "Play Tile Pairs in a window against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("TILEPAIRS_URL")},
			&cli.StringFlag{Name: "config", Usage: "Board configuration for a new session"},
			&cli.StringFlag{Name: "session", Usage: "Join an existing session by ID"},
			&cli.FloatFlag{Name: "volume", Value: 0.6, Usage: "Sound volume between 0 and 1"},
			&cli.BoolFlag{Name: "mute", Usage: "Start with sound off"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "desktop: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New(cmd.String("log-level"), true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := client.New(cmd.String("url"), client.WithLogger(logger.Named("client")))
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", c.BaseURL(), err)
	}

	session, err := openSession(ctx, c, cmd.String("session"), cmd.String("config"))
	if err != nil {
		return err
	}
	logger.Info("playing session",
		zap.String("session_id", session.ID),
		zap.String("config", session.ConfigName),
	)

	player := audio.NewPlayer(cmd.Float("volume"), logger.Named("audio"))
	if err := player.Initialize(); err != nil {
		logger.Warn("sound unavailable", zap.Error(err))
	}
	defer player.Close()
	player.SetMuted(cmd.Bool("mute"))

	width, height := 800, 600
	if session.Board != nil {
		width = int(session.Board.BoardWidth)
		height = int(session.Board.BoardHeight) + headerHeight
	}
	game := NewGame(ctx, c, player, logger, width, height)
	game.state.setSnapshot(session.Board)

	go func() {
		if err := c.Stream(ctx, game.onMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("stream closed", zap.Error(err))
			game.state.setOffline()
			game.state.setStatus("Lost connection: " + err.Error())
		}
	}()

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(fmt.Sprintf("Tile Pairs - %s", session.ConfigName))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// openSession joins the given session, or starts a new one on configID
func openSession(ctx context.Context, c *client.Client, id, configID string) (*service.SessionInfo, error) {
	if id == "" {
		return c.CreateSession(ctx, configID)
	}
	c.UseSession(id)
	info, err := c.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("join session %s: %w", id, err)
	}
	return info, nil
}
