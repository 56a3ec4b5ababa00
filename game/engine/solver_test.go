package engine

import (
	"math/rand/v2"
	"testing"
)

func TestFindPath_ImagePrecondition(t *testing.T) {
	b := boardFromLayout("AB", "..")
	a := mustTileAt(t, b, 0, 0)
	other := mustTileAt(t, b, 0, 1)

	if _, ok := FindPath(b, a, other); ok {
		t.Error("Expected tiles with different keys never to pair")
	}
	if _, ok := FindPath(b, a, a); ok {
		t.Error("Expected a tile never to pair with itself")
	}
	if _, ok := FindPath(b, nil, a); ok {
		t.Error("Expected nil tile never to pair")
	}
}

func TestFindPath_Adjacency(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		from   Cell
		to     Cell
	}{
		{"touching in a row", []string{"AA", ".."}, Cell{0, 0}, Cell{0, 1}},
		{"touching in a column", []string{"A.", "A."}, Cell{0, 0}, Cell{1, 0}},
		{"gap in a row", []string{"A..A", "...."}, Cell{0, 0}, Cell{0, 3}},
		{"gap in a column", []string{".A", "..", ".A"}, Cell{0, 1}, Cell{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardFromLayout(tt.layout...)
			a := mustTileAt(t, b, tt.from.Row, tt.from.Col)
			other := mustTileAt(t, b, tt.to.Row, tt.to.Col)

			path, ok := FindPath(b, a, other)
			if !ok {
				t.Fatal("Expected adjacent tiles to pair")
			}
			if len(path) != 2 || path[0] != tt.from || path[1] != tt.to {
				t.Errorf("Expected straight path %v -> %v, got %v", tt.from, tt.to, path)
			}
		})
	}
}

func TestFindPath_StraightBlocked(t *testing.T) {
	b := boardFromLayout(
		"ABA",
		"CCC",
		"DDD",
	)
	a := mustTileAt(t, b, 0, 0)
	other := mustTileAt(t, b, 0, 2)

	// B blocks the row, so the only route runs along the lane above the grid
	path, ok := FindPath(b, a, other)
	if !ok {
		t.Fatal("Expected a route around the top of the grid")
	}
	want := []Cell{{0, 0}, {-1, 0}, {-1, 2}, {0, 2}}
	if !equalCells(path, want) {
		t.Errorf("Expected path %v, got %v", want, path)
	}
}

func TestFindPath_LShape(t *testing.T) {
	b := boardFromLayout(
		"A.",
		".A",
	)

	path, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 1, 1))
	if !ok {
		t.Fatal("Expected an L-shaped connection")
	}
	want := []Cell{{0, 0}, {0, 1}, {1, 1}}
	if !equalCells(path, want) {
		t.Errorf("Expected path %v, got %v", want, path)
	}
}

func TestFindPath_ZShape(t *testing.T) {
	b := boardFromLayout(
		"A..",
		"...",
		"..A",
	)

	// At radius one the rightward ray already reaches a clear middle column,
	// so the Z wins over the L at the far corner.
	path, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 2, 2))
	if !ok {
		t.Fatal("Expected a Z-shaped connection")
	}
	want := []Cell{{0, 0}, {0, 1}, {2, 1}, {2, 2}}
	if !equalCells(path, want) {
		t.Errorf("Expected path %v, got %v", want, path)
	}
	if CountTurns(path) != 2 {
		t.Errorf("Expected two turns, got %d", CountTurns(path))
	}
}

func TestFindPath_TwoByTwo(t *testing.T) {
	b := boardFromLayout(
		"AA",
		"BB",
	)
	if _, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 0, 1)); !ok {
		t.Error("Expected adjacent K1 tiles to pair")
	}
	if _, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 1, 1)); ok {
		t.Error("Expected K1 and K2 never to pair")
	}

	// Diagonal twins boxed in by the other key need three turns, which is
	// beyond the solver's limit.
	b = boardFromLayout(
		"AB",
		"BA",
	)
	if _, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 1, 1)); ok {
		t.Error("Expected boxed diagonal tiles not to pair")
	}

	// With one blocker gone the diagonal pair connects through the gap
	b.Remove(mustTileAt(t, b, 0, 1))
	path, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 1, 1))
	if !ok {
		t.Fatal("Expected diagonal tiles to pair through the freed corner")
	}
	if CountTurns(path) != 1 {
		t.Errorf("Expected a one-turn path, got %v", path)
	}
}

func TestFindPath_PerimeterRoutes(t *testing.T) {
	// Both tiles sit on the left edge with the column between them blocked
	b := boardFromLayout(
		"AC",
		"CC",
		"AC",
	)
	path, ok := FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 2, 0))
	if !ok {
		t.Fatal("Expected a route along the left virtual lane")
	}
	want := []Cell{{0, 0}, {0, -1}, {2, -1}, {2, 0}}
	if !equalCells(path, want) {
		t.Errorf("Expected path %v, got %v", want, path)
	}

	// Opposite corners of a full board would need three turns
	b = boardFromLayout(
		"ACC",
		"CCC",
		"CCA",
	)
	path, ok = FindPath(b, mustTileAt(t, b, 0, 0), mustTileAt(t, b, 2, 2))
	if ok {
		t.Errorf("Expected opposite corners of a full board to need three turns, got %v", path)
	}
}

func TestBoard_PairableSetsPendingPath(t *testing.T) {
	b := boardFromLayout(
		"A.A",
		"BCB",
	)
	a := mustTileAt(t, b, 0, 0)
	other := mustTileAt(t, b, 0, 2)

	if !b.Pairable(a, other) {
		t.Fatal("Expected tiles to pair")
	}
	g := b.Geometry()
	if len(b.PendingPath) != 2 ||
		b.PendingPath[0] != g.CenterOf(0, 0) ||
		b.PendingPath[1] != g.CenterOf(0, 2) {
		t.Errorf("Unexpected pending path %v", b.PendingPath)
	}

	// A failed attempt leaves the last path in place
	before := b.PendingPath
	if b.Pairable(mustTileAt(t, b, 1, 0), mustTileAt(t, b, 1, 1)) {
		t.Fatal("Expected different keys not to pair")
	}
	if len(b.PendingPath) != len(before) {
		t.Error("Expected a failed attempt not to touch the pending path")
	}

	// Each success starts a fresh list
	if !b.Pairable(mustTileAt(t, b, 1, 0), mustTileAt(t, b, 1, 2)) {
		t.Fatal("Expected B tiles to pair along the bottom lane")
	}
	if b.PendingPath[0] != g.CenterOf(1, 0) {
		t.Errorf("Expected path to start at (1,0), got %v", b.PendingPath[0])
	}
	if len(b.PendingPath) != 4 {
		t.Errorf("Expected a four-point route below the grid, got %v", b.PendingPath)
	}
}

// TestFindPath_Properties checks symmetry, the turn bound and path
// soundness on random boards.
func TestFindPath_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	keys := []ImageKey{"A", "B", "C"}

	for round := 0; round < 60; round++ {
		cols, rows := 2+rng.IntN(6), 2+rng.IntN(5)
		b := NewBoard(testGrid(cols, rows), 2, 600)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if rng.IntN(100) < 55 {
					b.AddTile(keys[rng.IntN(len(keys))], r, c)
				}
			}
		}

		for i, a := range b.Tiles {
			for j, other := range b.Tiles {
				if i == j {
					continue
				}
				forward, ok := FindPath(b, a, other)
				_, back := FindPath(b, other, a)
				if ok != back {
					t.Fatalf("round %d: pairable(%v,%v)=%v but reverse=%v",
						round, b.CellOf(a), b.CellOf(other), ok, back)
				}
				if a.Image != other.Image && ok {
					t.Fatalf("round %d: different keys paired", round)
				}
				if !ok {
					continue
				}
				if len(forward) < 2 || len(forward) > 4 {
					t.Fatalf("round %d: path has %d waypoints", round, len(forward))
				}
				if CountTurns(forward) > 2 {
					t.Fatalf("round %d: path %v has more than two turns", round, forward)
				}
				if forward[0] != b.CellOf(a) || forward[len(forward)-1] != b.CellOf(other) {
					t.Fatalf("round %d: path %v does not join its endpoints", round, forward)
				}
				assertPathClear(t, b, forward)
			}
		}
	}
}

func equalCells(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// assertPathClear walks every cell between the endpoints and fails if a
// live tile sits on it.
func assertPathClear(t *testing.T, b *Board, path []Cell) {
	t.Helper()
	if len(path) < 2 {
		t.Fatalf("path too short: %v", path)
	}
	first, last := path[0], path[len(path)-1]

	for i := 1; i < len(path); i++ {
		from, to := path[i-1], path[i]
		if from.Row != to.Row && from.Col != to.Col {
			t.Fatalf("segment %v -> %v is not axis aligned", from, to)
		}
		dr, dc := sign(to.Row-from.Row), sign(to.Col-from.Col)
		for c := from; ; c = (Cell{Row: c.Row + dr, Col: c.Col + dc}) {
			if c != first && c != last && b.TileAt(c.Row, c.Col) != nil {
				t.Fatalf("path %v crosses occupied cell %v", path, c)
			}
			if c == to {
				break
			}
		}
	}
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
