package main

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/internal/audio"
	"github.com/wricardo/tile-pairs-game/internal/client"
)

const requestTimeout = 5 * time.Second

var (
	backgroundColor = color.RGBA{24, 26, 32, 255}
	headerColor     = color.RGBA{36, 40, 50, 255}
	selectedColor   = color.RGBA{255, 255, 255, 255}
	hintColor       = color.RGBA{255, 215, 0, 255}
	pathColor       = color.RGBA{255, 80, 80, 255}
	timeBarColor    = color.RGBA{46, 204, 113, 255}
	timeLowColor    = color.RGBA{231, 76, 60, 255}
	timeTrackColor  = color.RGBA{60, 64, 76, 255}
)

// Game renders a remote session and forwards input to the server
type Game struct {
	ctx    context.Context
	client *client.Client
	player *audio.Player
	logger *zap.Logger
	state  *state

	width, height int
}

func NewGame(ctx context.Context, c *client.Client, player *audio.Player, logger *zap.Logger, width, height int) *Game {
	return &Game{
		ctx:    ctx,
		client: c,
		player: player,
		logger: logger,
		state:  &state{status: "Click a tile, R reset, H hint, M mute, Esc quit"},
		width:  width,
		height: height,
	}
}

// onMessage receives stream frames off the render goroutine
func (g *Game) onMessage(msg client.Message) {
	if ev := g.state.apply(msg); ev != nil {
		g.player.HandleEvent(*ev)
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		go g.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		go g.hint()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.player.SetMuted(!g.player.Muted())
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if y >= headerHeight {
			go g.click(toBoard(x, y))
		}
	}
	return nil
}

func (g *Game) click(p engine.Point) {
	ctx, cancel := context.WithTimeout(g.ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.ClickPoint(ctx, p)
	if err != nil {
		g.logger.Warn("click failed", zap.Error(err))
		g.state.setStatus("Click failed: " + err.Error())
		return
	}
	g.state.setSnapshot(resp.Board)
	if resp.Message != "" {
		g.state.setStatus(resp.Message)
	}
}

func (g *Game) reset() {
	ctx, cancel := context.WithTimeout(g.ctx, requestTimeout)
	defer cancel()

	snap, err := g.client.Reset(ctx)
	if err != nil {
		g.logger.Warn("reset failed", zap.Error(err))
		g.state.setStatus("Reset failed: " + err.Error())
		return
	}
	g.state.setSnapshot(snap)
	g.state.setStatus("Back to stage 1")
}

func (g *Game) hint() {
	ctx, cancel := context.WithTimeout(g.ctx, requestTimeout)
	defer cancel()

	h, err := g.client.Hint(ctx)
	if err != nil {
		g.logger.Warn("hint failed", zap.Error(err))
		g.state.setStatus("Hint failed: " + err.Error())
		return
	}
	if !h.Found {
		g.state.clearHint()
		g.state.setStatus(h.Message)
		return
	}
	g.state.setHint(h.First.ID, h.Second.ID)
	g.state.setStatus(fmt.Sprintf("Try %s at (%d,%d) and (%d,%d)", h.First.Image, h.First.Row, h.First.Col, h.Second.Row, h.Second.Col))
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	snap, status, hint, online := g.state.view()
	g.drawHeader(screen, snap, status, online)
	if snap == nil {
		return
	}

	for _, t := range snap.Tiles {
		g.drawTile(screen, t, hinted(hint, t.ID))
	}

	for i := 1; i < len(snap.Path); i++ {
		a, b := snap.Path[i-1], snap.Path[i]
		vector.StrokeLine(screen,
			float32(a.X), float32(a.Y)+headerHeight,
			float32(b.X), float32(b.Y)+headerHeight,
			3, pathColor, true)
	}
}

func (g *Game) drawHeader(screen *ebiten.Image, snap *engine.Snapshot, status string, online bool) {
	vector.DrawFilledRect(screen, 0, 0, float32(g.width), headerHeight, headerColor, false)

	if snap == nil {
		ebitenutil.DebugPrintAt(screen, "Waiting for the server...", 8, 4)
		return
	}

	sound := "on"
	if g.player.Muted() {
		sound = "off"
	}
	link := ""
	if !online {
		link = "  [offline]"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Stage %d  %s  Time %.0f/%.0fs  Tiles %d  Sound %s%s",
		snap.Stage, snap.Policy, snap.RemainingSeconds, snap.StartingSeconds, snap.TileCount, sound, link), 8, 4)

	if snap.Dealing {
		status = "Dealing..."
	}
	ebitenutil.DebugPrintAt(screen, status, 8, 20)

	barWidth := float32(g.width - 16)
	vector.DrawFilledRect(screen, 8, headerHeight-10, barWidth, 6, timeTrackColor, false)
	fill := timeBarColor
	if snap.TimeRatio < 0.25 {
		fill = timeLowColor
	}
	vector.DrawFilledRect(screen, 8, headerHeight-10, barWidth*float32(snap.TimeRatio), 6, fill, false)
}

func (g *Game) drawTile(screen *ebiten.Image, t engine.TileView, hinted bool) {
	x, y := float32(t.X), float32(t.Y)+headerHeight
	w, h := float32(t.Width), float32(t.Height)

	vector.DrawFilledRect(screen, x+1, y+1, w-2, h-2, faceColor(t.Image), false)
	ebitenutil.DebugPrintAt(screen, faceLabel(t.Image, 4), int(x)+4, int(y)+4)

	switch {
	case t.Selected:
		vector.StrokeRect(screen, x+1, y+1, w-2, h-2, 3, selectedColor, false)
	case hinted:
		vector.StrokeRect(screen, x+1, y+1, w-2, h-2, 2, hintColor, false)
	}
}

// Layout keeps the board's own pixel size so tile positions need no scaling
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
