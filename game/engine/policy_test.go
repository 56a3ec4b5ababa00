package engine

import "testing"

func TestPolicyFor_StageTable(t *testing.T) {
	tests := []struct {
		stage int
		rule  Rule
		edge  Direction
		axis  Axis
		dual  bool
		name  string
	}{
		{1, RuleNone, Right, Horizontal, false, "none"},
		{2, RuleTowardEdge, Down, Horizontal, false, "toward-edge(down)"},
		{3, RuleTowardEdge, Left, Horizontal, false, "toward-edge(left)"},
		{4, RuleTowardOrigin, Right, Horizontal, true, "toward-origin"},
		{5, RuleNone, Right, Horizontal, false, "none"},
		{6, RuleTowardEdge, Down, Horizontal, false, "toward-edge(down)"},
		{7, RuleTowardEdge, Right, Horizontal, false, "toward-edge(right)"},
		{8, RuleTowardOrigin, Right, Horizontal, true, "toward-origin"},
		{10, RuleTowardEdge, Up, Horizontal, false, "toward-edge(up)"},
		{11, RuleTowardEdge, Left, Horizontal, false, "toward-edge(left)"},
		{12, RuleTowardOrigin, Right, Horizontal, true, "toward-origin"},
		{13, RuleNone, Right, Horizontal, false, "none"},
		{14, RuleTowardEdge, Up, Horizontal, false, "toward-edge(up)"},
		{15, RuleTowardEdge, Right, Horizontal, false, "toward-edge(right)"},
		{16, RuleTowardBoundary, Right, Horizontal, true, "toward-boundary"},
		{18, RuleRandomAxis, Right, Vertical, false, "random-axis(up|down)"},
		{19, RuleRandomAxis, Right, Horizontal, false, "random-axis(left|right)"},
		{20, RuleTowardBoundary, Right, Horizontal, true, "toward-boundary"},
		{22, RuleRandomAxis, Right, Vertical, false, "random-axis(up|down)"},
		{23, RuleRandomAxis, Right, Horizontal, false, "random-axis(left|right)"},
		{24, RuleRandomRule, Right, Horizontal, true, "random-rule(origin|boundary)"},
		{25, RuleNone, Right, Horizontal, false, "none"},
		{26, RuleTowardEdge, Down, Horizontal, false, "toward-edge(down)"},
		{48, RuleRandomRule, Right, Horizontal, true, "random-rule(origin|boundary)"},
	}

	for _, tt := range tests {
		p := PolicyFor(tt.stage)
		if p.Rule != tt.rule || p.DualPhase != tt.dual {
			t.Errorf("stage %d: got rule %v dual %v, want %v dual %v", tt.stage, p.Rule, p.DualPhase, tt.rule, tt.dual)
		}
		if p.Rule == RuleTowardEdge && p.Edge != tt.edge {
			t.Errorf("stage %d: got edge %v, want %v", tt.stage, p.Edge, tt.edge)
		}
		if p.Rule == RuleRandomAxis && p.Axis != tt.axis {
			t.Errorf("stage %d: got axis %v, want %v", tt.stage, p.Axis, tt.axis)
		}
		if p.String() != tt.name {
			t.Errorf("stage %d: got name %q, want %q", tt.stage, p.String(), tt.name)
		}

		wantGravity := DefaultGravity
		if tt.dual {
			wantGravity = DualPhaseGravity
		}
		if p.Gravity != wantGravity {
			t.Errorf("stage %d: got gravity %v, want %v", tt.stage, p.Gravity, wantGravity)
		}
	}
}

// restCells returns each tile's rest cell in collection order
func restCells(b *Board) []Cell {
	g := b.Geometry()
	cells := make([]Cell, len(b.Tiles))
	for i, t := range b.Tiles {
		cells[i] = g.ToCell(t.Rest)
	}
	return cells
}

func TestRetarget_TowardEdge(t *testing.T) {
	tests := []struct {
		name   string
		stage  int
		layout []string
		want   []string
	}{
		{
			name:   "down",
			stage:  2,
			layout: []string{"A.B", "...", "C..", "..."},
			want:   []string{"...", "...", "A..", "C.B"},
		},
		{
			name:   "up",
			stage:  10,
			layout: []string{"...", "A..", "..B", "C.."},
			want:   []string{"A.B", "C..", "...", "..."},
		},
		{
			name:   "left",
			stage:  3,
			layout: []string{".A.B", "...C"},
			want:   []string{"AB..", "C..."},
		},
		{
			name:   "right",
			stage:  7,
			layout: []string{"A.B.", "C..."},
			want:   []string{"..AB", "...C"},
		},
		{
			name:   "none",
			stage:  1,
			layout: []string{"A.B.", "C..."},
			want:   []string{"A.B.", "C..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardFromLayout(tt.layout...)
			PolicyFor(tt.stage).Retarget(b, true, true, NewRNG(1))
			b.settleAll(DefaultGravity)
			assertLayout(t, b, tt.want)
		})
	}
}

func TestRetarget_TowardOrigin(t *testing.T) {
	b := boardFromLayout(
		"A.....",
		"......",
		"......",
		".....B",
	)
	p := PolicyFor(4)

	// Column phase then row phase, as dual-phase stages run them
	p.Retarget(b, true, false, NewRNG(1))
	b.settleAll(p.Gravity)
	assertLayout(t, b, []string{
		"..A...",
		"......",
		"......",
		"..B...",
	})

	p.Retarget(b, false, true, NewRNG(1))
	b.settleAll(p.Gravity)
	assertLayout(t, b, []string{
		"......",
		"..A...",
		"..B...",
		"......",
	})
}

func TestRetarget_TowardBoundary(t *testing.T) {
	b := boardFromLayout(
		".A..B.",
		"......",
		"......",
		".C....",
	)
	p := PolicyFor(16)

	p.Retarget(b, true, false, NewRNG(1))
	b.settleAll(p.Gravity)
	assertLayout(t, b, []string{
		"A....B",
		"......",
		"......",
		"C.....",
	})

	p.Retarget(b, false, true, NewRNG(1))
	b.settleAll(p.Gravity)
	assertLayout(t, b, []string{
		"A....B",
		"......",
		"......",
		"C.....",
	})
}

// TestRetarget_RandomRulesKeepCellsDistinct checks that per-tile coin flips
// never stack two tiles on one cell.
func TestRetarget_RandomRulesKeepCellsDistinct(t *testing.T) {
	layout := []string{
		"AB.CD.EF",
		"G.HI.JK.",
		"LM.NO.PQ",
		".RS.TU.V",
		"WX.YZ.ab",
	}

	for _, stage := range []int{18, 19, 24} {
		for seed := uint64(1); seed <= 30; seed++ {
			b := boardFromLayout(layout...)
			p := PolicyFor(stage)
			rng := NewRNG(seed)

			if p.DualPhase {
				p.Retarget(b, true, false, rng)
				assertDistinctRest(t, b, stage, seed)
				b.settleAll(p.Gravity)
				p.Retarget(b, false, true, rng)
			} else {
				p.Retarget(b, true, true, rng)
			}
			assertDistinctRest(t, b, stage, seed)

			g := b.Geometry()
			for _, c := range restCells(b) {
				if !g.InBounds(c) {
					t.Fatalf("stage %d seed %d: rest cell %v outside the grid", stage, seed, c)
				}
			}
		}
	}
}

func TestRetarget_RandomAxisMovesOneAxis(t *testing.T) {
	b := boardFromLayout(
		".A.",
		"B.C",
		".D.",
	)
	before := restCells(b)

	PolicyFor(18).Retarget(b, true, true, NewRNG(5))
	for i, c := range restCells(b) {
		if c.Col != before[i].Col {
			t.Errorf("vertical stage moved tile %d sideways: %v -> %v", i, before[i], c)
		}
	}

	b = boardFromLayout(
		".A.",
		"B.C",
		".D.",
	)
	PolicyFor(19).Retarget(b, true, true, NewRNG(5))
	for i, c := range restCells(b) {
		if c.Row != before[i].Row {
			t.Errorf("horizontal stage moved tile %d vertically: %v -> %v", i, before[i], c)
		}
	}
}

func TestRetarget_MarksSettling(t *testing.T) {
	b := boardFromLayout(
		"A.",
		"..",
	)
	PolicyFor(2).Retarget(b, true, true, NewRNG(1))

	tile := b.Tiles[0]
	if !tile.Settling {
		t.Error("Expected a tile with a new rest position to be settling")
	}
	if tile.Position == tile.Rest {
		t.Error("Expected rest to differ from position")
	}
	if b.CellOf(tile) != (Cell{Row: 0, Col: 0}) {
		t.Error("Retarget must not move the tile itself")
	}
}

func assertLayout(t *testing.T, b *Board, want []string) {
	t.Helper()
	for r, row := range want {
		for c, ch := range row {
			tile := b.TileAt(r, c)
			switch {
			case ch == '.' && tile != nil:
				t.Errorf("Expected (%d,%d) empty, found %s", r, c, tile.Image)
			case ch != '.' && tile == nil:
				t.Errorf("Expected %c at (%d,%d), found nothing", ch, r, c)
			case ch != '.' && string(tile.Image) != string(ch):
				t.Errorf("Expected %c at (%d,%d), found %s", ch, r, c, tile.Image)
			}
		}
	}
}

func assertDistinctRest(t *testing.T, b *Board, stage int, seed uint64) {
	t.Helper()
	seen := make(map[Cell]bool)
	for _, c := range restCells(b) {
		if seen[c] {
			t.Fatalf("stage %d seed %d: two tiles share rest cell %v", stage, seed, c)
		}
		seen[c] = true
	}
}
