package engine

import (
	"math/rand/v2"
	"testing"
)

func sameCounts(a, b map[ImageKey]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

func TestEnsureSolvable_EmptyBoard(t *testing.T) {
	b := NewBoard(testGrid(2, 2), 2, 600)

	reshuffles, ok := b.EnsureSolvable(NewRNG(1))
	if reshuffles != 0 || ok {
		t.Errorf("Expected empty board to short-circuit, got %d reshuffles ok=%v", reshuffles, ok)
	}
}

func TestEnsureSolvable_AlreadySolvable(t *testing.T) {
	b := boardFromLayout("AB", "AB")
	before := b.Keys()

	reshuffles, ok := b.EnsureSolvable(NewRNG(1))
	if reshuffles != 0 || !ok {
		t.Errorf("Expected no reshuffle, got %d ok=%v", reshuffles, ok)
	}
	after := b.Keys()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("Expected keys to stay in place on a solvable board")
		}
	}
}

func TestEnsureSolvable_Reshuffles(t *testing.T) {
	b := boardFromLayout(
		"AB",
		"BA",
	)
	if b.Solvable() {
		t.Fatal("Expected boxed diagonal board to start unsolvable")
	}
	before := b.KeyCounts()

	reshuffles, ok := b.EnsureSolvable(NewRNG(42))
	if !ok {
		t.Fatal("Expected board to become solvable")
	}
	if reshuffles < 1 {
		t.Errorf("Expected at least one reshuffle, got %d", reshuffles)
	}
	if !b.Solvable() {
		t.Error("Expected a pairable pair after the guard")
	}
	if !sameCounts(before, b.KeyCounts()) {
		t.Errorf("Reshuffle changed the key multiset: %v -> %v", before, b.KeyCounts())
	}
}

func TestEnsureSolvable_NoRepeatedKey(t *testing.T) {
	b := boardFromLayout("AB", "..")

	reshuffles, ok := b.EnsureSolvable(NewRNG(1))
	if reshuffles != 0 || ok {
		t.Errorf("Expected early exit with unique keys, got %d reshuffles ok=%v", reshuffles, ok)
	}
}

func TestForcePair(t *testing.T) {
	b := boardFromLayout(
		"AB",
		"BA",
	)
	before := b.KeyCounts()

	b.forcePair()

	if !b.Solvable() {
		t.Error("Expected forced pair to make the board solvable")
	}
	if !sameCounts(before, b.KeyCounts()) {
		t.Errorf("Forced pair changed the key multiset: %v -> %v", before, b.KeyCounts())
	}
}

func TestFindPair_DoesNotTouchPendingPath(t *testing.T) {
	b := boardFromLayout("AA", "..")
	b.PendingPath = []Point{{X: 1, Y: 1}}

	a, other, ok := b.FindPair()
	if !ok || a == nil || other == nil {
		t.Fatal("Expected a pair")
	}
	if len(b.PendingPath) != 1 {
		t.Error("Expected FindPair to leave the pending path alone")
	}
}

// TestEnsureSolvable_Postcondition runs the guard on random boards of
// paired keys: afterwards the board is empty or has a pairable pair.
func TestEnsureSolvable_Postcondition(t *testing.T) {
	src := rand.New(rand.NewPCG(3, 5))
	rng := NewRNG(99)

	for round := 0; round < 40; round++ {
		cols, rows := 2+src.IntN(5), 2+src.IntN(4)
		b := NewBoard(testGrid(cols, rows), 2, 600)

		var cells []Cell
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if src.IntN(100) < 70 {
					cells = append(cells, Cell{Row: r, Col: c})
				}
			}
		}
		if len(cells)%2 == 1 {
			cells = cells[:len(cells)-1]
		}
		for i, c := range cells {
			key := ImageKey(string(rune('A' + (i/2)%5)))
			b.AddTile(key, c.Row, c.Col)
		}

		before := b.KeyCounts()
		b.EnsureSolvable(rng)

		if !b.Empty() && !b.Solvable() {
			t.Fatalf("round %d: guard left an unsolvable board", round)
		}
		if !sameCounts(before, b.KeyCounts()) {
			t.Fatalf("round %d: guard changed the key multiset", round)
		}
	}
}
