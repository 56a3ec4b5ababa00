// Command tui plays Tile Pairs in a terminal. Tiles are clicked with the
// mouse; h shows a hint, r restarts, m toggles sound and q quits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/config"
	"github.com/wricardo/tile-pairs-game/internal/audio"
	"github.com/wricardo/tile-pairs-game/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "tui",
		Usage: "Play Tile Pairs in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing board configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "config", Value: "mini", Usage: "Board configuration to play"},
			&cli.FloatFlag{Name: "volume", Value: 0.6, Usage: "Sound volume between 0 and 1"},
			&cli.BoolFlag{Name: "mute", Usage: "Start with sound off"},
			&cli.StringFlag{Name: "log-file", Usage: "Write debug logs to this file"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// The screen owns stdout, so logs only go to a file when asked for
	logger := zap.NewNop()
	if path := cmd.String("log-file"); path != "" {
		l, err := logging.New("debug", false, path)
		if err != nil {
			return err
		}
		logger = l
		defer logger.Sync()
	}

	configs, err := config.NewManager(cmd.String("config-dir"), config.WithLogger(logger))
	if err != nil {
		return err
	}
	board, err := configs.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	player := audio.NewPlayer(cmd.Float("volume"), logger.Named("audio"))
	if err := player.Initialize(); err != nil {
		logger.Warn("audio unavailable", zap.Error(err))
	}
	defer player.Close()
	player.SetMuted(cmd.Bool("mute"))

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	game, err := newApp(screen, board, player, logger)
	if err != nil {
		return err
	}
	game.view.muted = player.Muted()
	return game.run(ctx)
}
