package engine

// Occupancy is the read-only view of a board that the path solver needs.
type Occupancy interface {
	Geometry() Grid
	CellOf(t *Tile) Cell
	Nearest(from Cell, d Direction) *Tile
	HorizontalClear(col1, col2, row int) bool
	VerticalClear(row1, row2, col int) bool
}

// Board owns the live tiles, the stage number and the time budget.
type Board struct {
	grid             Grid
	PairMultiplicity int
	Stage            int
	RemainingSeconds float64
	StartingSeconds  float64
	Tiles            []*Tile
	PendingPath      []Point

	nextID int
}

// NewBoard creates an empty board for the given geometry
func NewBoard(grid Grid, multiplicity int, startingSeconds float64) *Board {
	return &Board{
		grid:             grid,
		PairMultiplicity: multiplicity,
		StartingSeconds:  startingSeconds,
		RemainingSeconds: startingSeconds,
		Tiles:            []*Tile{},
	}
}

// Geometry returns the coordinate mapper for this board
func (b *Board) Geometry() Grid {
	return b.grid
}

// Len returns the number of live tiles
func (b *Board) Len() int {
	return len(b.Tiles)
}

// Empty reports whether every tile has been eliminated
func (b *Board) Empty() bool {
	return len(b.Tiles) == 0
}

// AddTile places a new tile at rest in the given cell
func (b *Board) AddTile(image ImageKey, row, col int) *Tile {
	pos := b.grid.ToPixel(row, col)
	t := &Tile{
		ID:       b.nextID,
		Image:    image,
		Position: pos,
		Rest:     pos,
		Size:     b.grid.CellSize(),
	}
	b.nextID++
	b.Tiles = append(b.Tiles, t)
	return t
}

// Clear removes every tile and the pending path
func (b *Board) Clear() {
	b.Tiles = []*Tile{}
	b.PendingPath = nil
}

// CellOf derives a tile's cell from its pixel position
func (b *Board) CellOf(t *Tile) Cell {
	return b.grid.ToCell(t.Position)
}

// TileAt returns the first tile whose derived cell is row, col
func (b *Board) TileAt(row, col int) *Tile {
	if !b.grid.InBounds(Cell{Row: row, Col: col}) {
		return nil
	}
	for _, t := range b.Tiles {
		if c := b.CellOf(t); c.Row == row && c.Col == col {
			return t
		}
	}
	return nil
}

// HitTest returns the first tile whose rectangle contains p
func (b *Board) HitTest(p Point) *Tile {
	for _, t := range b.Tiles {
		if t.Contains(p) {
			return t
		}
	}
	return nil
}

// Contains reports whether t is still live on the board
func (b *Board) Contains(t *Tile) bool {
	return b.indexOf(t) >= 0
}

// Remove eliminates the given tiles from the live collection
func (b *Board) Remove(tiles ...*Tile) {
	for _, t := range tiles {
		if i := b.indexOf(t); i >= 0 {
			b.Tiles = append(b.Tiles[:i], b.Tiles[i+1:]...)
		}
	}
}

func (b *Board) indexOf(t *Tile) int {
	for i, live := range b.Tiles {
		if live == t {
			return i
		}
	}
	return -1
}

// Nearest returns the closest tile from a cell in direction d, or nil.
// Closeness is measured by pixel position so tiles still settling sort
// correctly.
func (b *Board) Nearest(from Cell, d Direction) *Tile {
	var best *Tile
	for _, t := range b.Tiles {
		c := b.CellOf(t)
		switch d {
		case Right:
			if c.Row != from.Row || c.Col <= from.Col {
				continue
			}
			if best == nil || t.Position.X < best.Position.X {
				best = t
			}
		case Left:
			if c.Row != from.Row || c.Col >= from.Col {
				continue
			}
			if best == nil || t.Position.X > best.Position.X {
				best = t
			}
		case Down:
			if c.Col != from.Col || c.Row <= from.Row {
				continue
			}
			if best == nil || t.Position.Y < best.Position.Y {
				best = t
			}
		case Up:
			if c.Col != from.Col || c.Row >= from.Row {
				continue
			}
			if best == nil || t.Position.Y > best.Position.Y {
				best = t
			}
		}
	}
	return best
}

// HorizontalClear reports whether no tile occupies row between col1 and
// col2 inclusive. Virtual lanes are never occupied.
func (b *Board) HorizontalClear(col1, col2, row int) bool {
	lo, hi := minInt(col1, col2), maxInt(col1, col2)
	for _, t := range b.Tiles {
		c := b.CellOf(t)
		if c.Row == row && c.Col >= lo && c.Col <= hi {
			return false
		}
	}
	return true
}

// VerticalClear reports whether no tile occupies col between row1 and row2
// inclusive.
func (b *Board) VerticalClear(row1, row2, col int) bool {
	lo, hi := minInt(row1, row2), maxInt(row1, row2)
	for _, t := range b.Tiles {
		c := b.CellOf(t)
		if c.Col == col && c.Row >= lo && c.Row <= hi {
			return false
		}
	}
	return true
}

// Pairable reports whether a and t can be eliminated together. On success
// the connection waypoints replace the pending path.
func (b *Board) Pairable(a, t *Tile) bool {
	cells, ok := FindPath(b, a, t)
	if !ok {
		return false
	}
	b.PendingPath = b.pathPoints(cells)
	return true
}

func (b *Board) pathPoints(cells []Cell) []Point {
	points := make([]Point, 0, len(cells))
	for _, c := range cells {
		points = append(points, b.grid.CenterOf(c.Row, c.Col))
	}
	return points
}

// ProportionalTime is remaining over starting seconds
func (b *Board) ProportionalTime() float64 {
	if b.StartingSeconds <= 0 {
		return 0
	}
	return b.RemainingSeconds / b.StartingSeconds
}

// TimeGain is the reward for a match, linear in the remaining time and
// always within [MinTimeGain, MaxTimeGain].
func (b *Board) TimeGain() float64 {
	ratio := b.ProportionalTime()
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return (MaxTimeGain-MinTimeGain)*ratio + MinTimeGain
}
