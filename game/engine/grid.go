package engine

import "math"

// Grid maps between pixel positions and row/column indices. It is a value
// type with no state beyond the board geometry.
type Grid struct {
	Columns int     `json:"columns"`
	Rows    int     `json:"rows"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// CellSize returns the width and height of one cell
func (g Grid) CellSize() Point {
	return Point{
		X: (g.Width - 2*g.Padding) / float64(g.Columns),
		Y: (g.Height - 2*g.Padding) / float64(g.Rows),
	}
}

// ToPixel returns the upper-left corner of the cell at row, col
func (g Grid) ToPixel(row, col int) Point {
	return Point{
		X: g.Padding + (g.Width-2*g.Padding)/float64(g.Columns)*float64(col),
		Y: g.Padding + (g.Height-2*g.Padding)/float64(g.Rows)*float64(row),
	}
}

// ToCell returns the nearest cell for a pixel position, rounding half up
func (g Grid) ToCell(p Point) Cell {
	c := (p.X - g.Padding) * float64(g.Columns) / (g.Width - 2*g.Padding)
	r := (p.Y - g.Padding) * float64(g.Rows) / (g.Height - 2*g.Padding)
	return Cell{Row: roundHalfUp(r), Col: roundHalfUp(c)}
}

// CenterOf returns the center of a cell. Row -1 / Rows and column -1 /
// Columns are virtual lanes mapped to a strip just inside the board edge.
func (g Grid) CenterOf(row, col int) Point {
	size := g.CellSize()
	var p Point

	switch {
	case row < 0:
		p.Y = VirtualLaneInset
	case row >= g.Rows:
		p.Y = g.Height - VirtualLaneInset
	default:
		p.Y = g.ToPixel(row, 0).Y + size.Y/2
	}

	switch {
	case col < 0:
		p.X = VirtualLaneInset
	case col >= g.Columns:
		p.X = g.Width - VirtualLaneInset
	default:
		p.X = g.ToPixel(0, col).X + size.X/2
	}

	return p
}

// InBounds reports whether the cell is a real grid cell
func (g Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Col >= 0 && c.Col < g.Columns
}

// Midpoint is the pixel center of the whole board
func (g Grid) Midpoint() Point {
	return Point{X: g.Width / 2, Y: g.Height / 2}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
