package engine

import (
	"math"
	"testing"
)

// testGrid returns a grid with 10x10 pixel cells and 10 pixels of padding
func testGrid(columns, rows int) Grid {
	return Grid{
		Columns: columns,
		Rows:    rows,
		Width:   float64(columns*10 + 20),
		Height:  float64(rows*10 + 20),
		Padding: 10,
	}
}

// boardFromLayout builds a board from rows of single-letter keys. '.' is an
// empty cell.
func boardFromLayout(layout ...string) *Board {
	b := NewBoard(testGrid(len(layout[0]), len(layout)), 2, 600)
	for r, row := range layout {
		for c, ch := range row {
			if ch != '.' {
				b.AddTile(ImageKey(string(ch)), r, c)
			}
		}
	}
	return b
}

func mustTileAt(t *testing.T, b *Board, row, col int) *Tile {
	t.Helper()
	tile := b.TileAt(row, col)
	if tile == nil {
		t.Fatalf("Expected a tile at (%d,%d)", row, col)
	}
	return tile
}

func TestGrid_ToPixelToCellInverse(t *testing.T) {
	grids := []Grid{
		GridFromConfig(DefaultConfig()),
		testGrid(2, 2),
		{Columns: 7, Rows: 3, Width: 500, Height: 333, Padding: 17},
	}

	for _, g := range grids {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Columns; c++ {
				got := g.ToCell(g.ToPixel(r, c))
				if got.Row != r || got.Col != c {
					t.Errorf("%dx%d grid: ToCell(ToPixel(%d,%d)) = (%d,%d)", g.Columns, g.Rows, r, c, got.Row, got.Col)
				}
			}
		}
	}
}

func TestGrid_ToPixelClassic(t *testing.T) {
	g := GridFromConfig(DefaultConfig())

	p := g.ToPixel(2, 3)
	if p.X != 60+82.5*3 || p.Y != 60+74*2 {
		t.Errorf("Expected (307.5, 208), got (%v, %v)", p.X, p.Y)
	}

	size := g.CellSize()
	if size.X != 82.5 || size.Y != 74 {
		t.Errorf("Expected cell size 82.5x74, got %vx%v", size.X, size.Y)
	}
}

func TestGrid_ToCellRounding(t *testing.T) {
	g := testGrid(4, 4)

	tests := []struct {
		name string
		p    Point
		want Cell
	}{
		{"exact", Point{X: 30, Y: 20}, Cell{Row: 1, Col: 2}},
		{"below half", Point{X: 34.9, Y: 24.9}, Cell{Row: 1, Col: 2}},
		{"half rounds up", Point{X: 35, Y: 25}, Cell{Row: 2, Col: 3}},
		{"slightly left", Point{X: 25.1, Y: 15.1}, Cell{Row: 1, Col: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ToCell(tt.p); got != tt.want {
				t.Errorf("ToCell(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestGrid_CenterOfVirtualLanes(t *testing.T) {
	g := testGrid(4, 3) // 60x50

	tests := []struct {
		name     string
		row, col int
		want     Point
	}{
		{"inner cell", 1, 2, Point{X: 35, Y: 25}},
		{"above grid", -1, 0, Point{X: 15, Y: VirtualLaneInset}},
		{"below grid", 3, 0, Point{X: 15, Y: 50 - VirtualLaneInset}},
		{"left of grid", 0, -1, Point{X: VirtualLaneInset, Y: 15}},
		{"right of grid", 0, 4, Point{X: 60 - VirtualLaneInset, Y: 15}},
		{"corner", -1, 4, Point{X: 60 - VirtualLaneInset, Y: VirtualLaneInset}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.CenterOf(tt.row, tt.col); got != tt.want {
				t.Errorf("CenterOf(%d,%d) = %v, want %v", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestBoard_AddTileAndQueries(t *testing.T) {
	b := boardFromLayout(
		"A.B",
		".BA",
	)

	if b.Len() != 4 {
		t.Fatalf("Expected 4 tiles, got %d", b.Len())
	}

	tile := mustTileAt(t, b, 1, 2)
	if tile.Image != "A" {
		t.Errorf("Expected A at (1,2), got %s", tile.Image)
	}
	if !tile.AtRest() || tile.Settling {
		t.Error("Expected new tile to be at rest")
	}
	if tile.Size != (Point{X: 10, Y: 10}) {
		t.Errorf("Expected 10x10 tile, got %v", tile.Size)
	}
	if b.TileAt(0, 1) != nil {
		t.Error("Expected empty cell at (0,1)")
	}

	if hit := b.HitTest(Point{X: 35, Y: 25}); hit != tile {
		t.Errorf("Expected hit test to find tile at (1,2)")
	}
	if hit := b.HitTest(Point{X: 25, Y: 15}); hit != nil {
		t.Errorf("Expected no tile under an empty cell, got %v", hit.Image)
	}
	if hit := b.HitTest(Point{X: 2, Y: 2}); hit != nil {
		t.Error("Expected no tile in the padding")
	}
}

func TestBoard_RemoveAndContains(t *testing.T) {
	b := boardFromLayout("AABB", "....")
	a1 := mustTileAt(t, b, 0, 0)
	a2 := mustTileAt(t, b, 0, 1)

	b.Remove(a1, a2)
	if b.Len() != 2 {
		t.Errorf("Expected 2 tiles after removal, got %d", b.Len())
	}
	if b.Contains(a1) || b.Contains(a2) {
		t.Error("Removed tiles should not be live")
	}

	// Removing again is a no-op
	b.Remove(a1)
	if b.Len() != 2 {
		t.Errorf("Expected removal to be idempotent, got %d tiles", b.Len())
	}

	b.Clear()
	if !b.Empty() {
		t.Error("Expected board to be empty after Clear")
	}
}

func TestBoard_Nearest(t *testing.T) {
	b := boardFromLayout(
		"A..B",
		"....",
		"C..D",
	)
	from := Cell{Row: 0, Col: 0}

	if got := b.Nearest(from, Right); got == nil || got.Image != "B" {
		t.Errorf("Expected B to the right")
	}
	if got := b.Nearest(from, Down); got == nil || got.Image != "C" {
		t.Errorf("Expected C below")
	}
	if got := b.Nearest(from, Left); got != nil {
		t.Errorf("Expected nothing to the left, got %s", got.Image)
	}
	if got := b.Nearest(from, Up); got != nil {
		t.Errorf("Expected nothing above, got %s", got.Image)
	}

	// A closer tile shadows a farther one
	b.AddTile("E", 0, 2)
	if got := b.Nearest(from, Right); got == nil || got.Image != "E" {
		t.Errorf("Expected E to shadow B")
	}
}

func TestBoard_ClearRuns(t *testing.T) {
	b := boardFromLayout(
		"A.B.",
		"....",
		"..C.",
	)

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"gap between A and B", b.HorizontalClear(1, 1, 0), true},
		{"span including B", b.HorizontalClear(1, 3, 0), false},
		{"reversed bounds", b.HorizontalClear(3, 1, 0), false},
		{"empty row", b.HorizontalClear(0, 3, 1), true},
		{"virtual row", b.HorizontalClear(-1, 4, -1), true},
		{"column 2 to C", b.VerticalClear(1, 2, 2), false},
		{"column 2 above C", b.VerticalClear(1, 1, 2), true},
		{"virtual column", b.VerticalClear(-1, 3, 4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestBoard_CountNeighboursUsesRest(t *testing.T) {
	b := boardFromLayout(
		"A.B",
		"C..",
		"D..",
	)
	a := mustTileAt(t, b, 0, 0)

	n := b.countNeighbours(a)
	if n.Right != 1 || n.Below != 2 || n.Left != 0 || n.Above != 0 {
		t.Errorf("Unexpected neighbours %+v", n)
	}

	// A tile still falling counts where it will land
	d := mustTileAt(t, b, 2, 0)
	d.Rest = b.Geometry().ToPixel(2, 1)
	n = b.countNeighbours(a)
	if n.Below != 1 {
		t.Errorf("Expected 1 tile below once D rests elsewhere, got %d", n.Below)
	}
}

func TestBoard_TimeGain(t *testing.T) {
	b := NewBoard(testGrid(2, 2), 2, 600)

	tests := []struct {
		remaining float64
		want      float64
	}{
		{600, 5},
		{300, 3},
		{150, 2},
		{0, 1},
		{-20, 1},
		{900, 5},
	}

	for _, tt := range tests {
		b.RemainingSeconds = tt.remaining
		if got := b.TimeGain(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TimeGain at %v remaining = %v, want %v", tt.remaining, got, tt.want)
		}
	}

	if NewBoard(testGrid(2, 2), 2, 0).ProportionalTime() != 0 {
		t.Error("Expected zero ratio when starting budget is zero")
	}
}

func TestBoard_MultiplicityHolds(t *testing.T) {
	b := boardFromLayout("AABB", "CCDD")
	b.PairMultiplicity = 4
	if !b.MultiplicityHolds() {
		t.Error("Expected pairs of each key to be consistent with multiplicity 4")
	}

	b.Remove(mustTileAt(t, b, 0, 0))
	if b.MultiplicityHolds() {
		t.Error("Expected a lone key to break the invariant")
	}

	b = boardFromLayout("AAAA", "AABB")
	b.PairMultiplicity = 4
	if b.MultiplicityHolds() {
		t.Error("Expected six copies of A to exceed multiplicity 4")
	}
}

func TestBoard_TileAtVirtualLanes(t *testing.T) {
	b := boardFromLayout(
		"AB",
		"BA",
	)

	tests := []struct {
		row, col int
		want     bool
	}{
		{0, 0, true},
		{1, 1, true},
		{-1, 0, false},
		{0, -1, false},
		{2, 1, false},
		{1, 2, false},
	}
	for _, tt := range tests {
		if got := b.TileAt(tt.row, tt.col) != nil; got != tt.want {
			t.Errorf("TileAt(%d,%d) found = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}
