package main

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/tile-pairs-game/game/engine"
)

// Terminal characters per grid cell
const (
	cellCols = 5
	cellRows = 2
	header   = 2
)

var palette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorOrange,
	tcell.ColorLime,
	tcell.ColorPink,
	tcell.ColorSilver,
}

var (
	styleHeader = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePath   = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

// layout maps board pixels to terminal cells. The board's upper-left grid
// cell is drawn at (left, top); one lane of cells is kept free around it.
type layout struct {
	grid engine.Grid
	left int
	top  int
}

func newLayout(grid engine.Grid) layout {
	return layout{
		grid: grid,
		left: cellCols,
		top:  header + cellRows,
	}
}

// size is the terminal area the board needs, lanes included
func (l layout) size() (int, int) {
	return l.left*2 + l.grid.Columns*cellCols, l.top + (l.grid.Rows+2)*cellRows
}

// toScreen maps a tile's upper-left pixel to a terminal cell
func (l layout) toScreen(p engine.Point) (int, int) {
	cell := l.grid.CellSize()
	x := l.left + int(math.Round((p.X-l.grid.Padding)/cell.X*cellCols))
	y := l.top + int(math.Round((p.Y-l.grid.Padding)/cell.Y*cellRows))
	return x, y
}

// cellCenter returns the terminal cell at the middle of a grid cell.
// Lane indices (-1 and the grid size) land in the free margin.
func (l layout) cellCenter(c engine.Cell) (int, int) {
	return l.left + c.Col*cellCols + cellCols/2, l.top + c.Row*cellRows + cellRows/2
}

// toBoard maps a terminal cell to the board pixel it covers
func (l layout) toBoard(x, y int) engine.Point {
	cell := l.grid.CellSize()
	return engine.Point{
		X: l.grid.Padding + (float64(x-l.left)+0.5)/cellCols*cell.X,
		Y: l.grid.Padding + (float64(y-l.top)+0.5)/cellRows*cell.Y,
	}
}

// pathCell clamps a path point to a grid or lane cell
func (l layout) pathCell(p engine.Point) engine.Cell {
	c := l.grid.ToCell(engine.Point{
		X: p.X - l.grid.CellSize().X/2,
		Y: p.Y - l.grid.CellSize().Y/2,
	})
	c.Row = max(-1, min(c.Row, l.grid.Rows))
	c.Col = max(-1, min(c.Col, l.grid.Columns))
	return c
}

// faceLabel shortens an image key to fit a cell: leading digits are
// dropped and at most cellCols-2 runes are kept.
func faceLabel(key engine.ImageKey) string {
	s := strings.TrimLeftFunc(string(key), unicode.IsDigit)
	if s == "" {
		s = string(key)
	}
	r := []rune(s)
	if len(r) > cellCols-2 {
		r = r[:cellCols-2]
	}
	return string(r)
}

func faceStyle(key engine.ImageKey) tcell.Style {
	sum := 0
	for _, r := range key {
		sum += int(r)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(palette[sum%len(palette)])
}

// view is what the terminal shows beside the board itself
type view struct {
	status string
	hint   []int // tile IDs, nil when no hint is shown
	muted  bool
}

func (v view) hinted(id int) bool {
	return slices.Contains(v.hint, id)
}

// clearsHint reports whether an event invalidates the shown hint
func clearsHint(t engine.EventType) bool {
	switch t {
	case engine.EventMatched, engine.EventReshuffled, engine.EventStageAdvanced, engine.EventReset:
		return true
	}
	return false
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// draw renders one frame. It does not call Show.
func (l layout) draw(s tcell.Screen, snap engine.Snapshot, v view) {
	s.Clear()

	sound := "on"
	if v.muted {
		sound = "off"
	}
	drawText(s, 0, 0, styleHeader, fmt.Sprintf("Stage %d  %s  Time %.0f/%.0fs  Tiles %d  Sound %s",
		snap.Stage, snap.Policy, snap.RemainingSeconds, snap.StartingSeconds, snap.TileCount, sound))

	status := v.status
	if snap.Dealing {
		status = "Dealing..."
	}
	if status == "" {
		status = "click: select  h: hint  r: reset  m: mute  q: quit"
	}
	drawText(s, 0, 1, styleStatus, status)

	l.drawTimeBar(s, snap)

	for _, t := range snap.Tiles {
		x, y := l.toScreen(engine.Point{X: t.X, Y: t.Y})
		style := faceStyle(t.Image)
		if t.Selected {
			style = style.Reverse(true)
		}
		if v.hinted(t.ID) {
			style = style.Underline(true).Bold(true)
		}

		label := fmt.Sprintf(" %-*s", cellCols-2, faceLabel(t.Image))
		drawText(s, x, y, style, label)
		if cellRows > 1 {
			drawText(s, x, y+1, style, strings.Repeat(" ", cellCols-1))
		}
	}

	l.drawPath(s, snap.Path)
}

// drawTimeBar draws the remaining clock under the board
func (l layout) drawTimeBar(s tcell.Screen, snap engine.Snapshot) {
	width, _ := l.size()
	_, y := l.cellCenter(engine.Cell{Row: l.grid.Rows + 1})
	filled := int(math.Round(snap.TimeRatio * float64(width)))
	for x := 0; x < width; x++ {
		r := '░'
		if x < filled {
			r = '█'
		}
		s.SetContent(x, y, r, nil, styleBorder)
	}
}

// drawPath draws the connection between waypoints through cell centers
func (l layout) drawPath(s tcell.Screen, path []engine.Point) {
	for i := 1; i < len(path); i++ {
		x0, y0 := l.cellCenter(l.pathCell(path[i-1]))
		x1, y1 := l.cellCenter(l.pathCell(path[i]))

		switch {
		case y0 == y1:
			for x := min(x0, x1); x <= max(x0, x1); x++ {
				s.SetContent(x, y0, '─', nil, stylePath)
			}
		case x0 == x1:
			for y := min(y0, y1); y <= max(y0, y1); y++ {
				s.SetContent(x0, y, '│', nil, stylePath)
			}
		}
	}
	for _, p := range path {
		x, y := l.cellCenter(l.pathCell(p))
		s.SetContent(x, y, '●', nil, stylePath)
	}
}
