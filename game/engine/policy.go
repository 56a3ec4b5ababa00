package engine

import (
	"fmt"
	"sort"
)

// Rule is how remaining tiles are redistributed after a match
type Rule int

const (
	RuleNone Rule = iota
	RuleTowardEdge
	RuleTowardOrigin
	RuleTowardBoundary
	RuleRandomAxis
	RuleRandomRule
)

func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleTowardEdge:
		return "toward-edge"
	case RuleTowardOrigin:
		return "toward-origin"
	case RuleTowardBoundary:
		return "toward-boundary"
	case RuleRandomAxis:
		return "random-axis"
	case RuleRandomRule:
		return "random-rule"
	default:
		return "unknown"
	}
}

// Axis selects the direction pair of a random-axis rule
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// Policy is the movement rule for one stage. It is a pure function of the
// stage number and is never stored.
//
//	Stage  Flow            Stage  Flow
//	1      none            13     none
//	2      down            14     up
//	3      left            15     right
//	4      origin          16     boundary
//	5      none            17     none
//	6      down            18     up or down
//	7      right           19     right or left
//	8      origin          20     boundary
//	9      none            21     none
//	10     up              22     up or down
//	11     left            23     right or left
//	12     origin          24     origin or boundary
type Policy struct {
	Stage     int
	Rule      Rule
	Edge      Direction
	Axis      Axis
	DualPhase bool
	Gravity   float64
}

// PolicyFor returns the movement policy of a stage, cycling every
// StageCycle stages.
func PolicyFor(stage int) Policy {
	p := Policy{Stage: stage, Gravity: DefaultGravity}

	switch stageSlot(stage) {
	case 2, 6:
		p.Rule, p.Edge = RuleTowardEdge, Down
	case 10, 14:
		p.Rule, p.Edge = RuleTowardEdge, Up
	case 3, 11:
		p.Rule, p.Edge = RuleTowardEdge, Left
	case 7, 15:
		p.Rule, p.Edge = RuleTowardEdge, Right
	case 4, 8, 12:
		p.Rule = RuleTowardOrigin
	case 16, 20:
		p.Rule = RuleTowardBoundary
	case 18, 22:
		p.Rule, p.Axis = RuleRandomAxis, Vertical
	case 19, 23:
		p.Rule, p.Axis = RuleRandomAxis, Horizontal
	case 24:
		p.Rule = RuleRandomRule
	}

	if stage > 0 && stage%4 == 0 {
		p.DualPhase = true
		p.Gravity = DualPhaseGravity
	}

	return p
}

// stageSlot maps a 1-based stage number onto 1..StageCycle
func stageSlot(stage int) int {
	return ((stage-1)%StageCycle+StageCycle)%StageCycle + 1
}

func (p Policy) String() string {
	switch p.Rule {
	case RuleTowardEdge:
		return fmt.Sprintf("%s(%s)", p.Rule, p.Edge)
	case RuleRandomAxis:
		if p.Axis == Vertical {
			return fmt.Sprintf("%s(up|down)", p.Rule)
		}
		return fmt.Sprintf("%s(left|right)", p.Rule)
	case RuleRandomRule:
		return fmt.Sprintf("%s(origin|boundary)", p.Rule)
	default:
		return p.Rule.String()
	}
}

// Target computes the rest cell of t. Only the column is retargeted when
// doColumn is set and only the row when doRow is set; the other axis keeps
// the tile's current rest cell.
func (p Policy) Target(b *Board, t *Tile, doColumn, doRow bool, rng *RNG) Cell {
	g := b.Geometry()
	n := b.countNeighbours(t)
	target := g.ToCell(t.Rest)

	toward := func(d Direction) {
		switch d {
		case Down:
			if doRow {
				target.Row = g.Rows - n.Below - 1
			}
		case Up:
			if doRow {
				target.Row = n.Above
			}
		case Left:
			if doColumn {
				target.Col = n.Left
			}
		case Right:
			if doColumn {
				target.Col = g.Columns - n.Right - 1
			}
		}
	}

	origin := func() {
		if doColumn {
			inRow := 1 + n.Left + n.Right
			target.Col = (g.Columns-inRow)/2 + n.Left
		}
		if doRow {
			inCol := 1 + n.Above + n.Below
			target.Row = (g.Rows-inCol)/2 + n.Above
		}
	}

	boundary := func() {
		mid := g.Midpoint()
		if doColumn {
			if t.Rest.X < mid.X {
				toward(Left)
			} else {
				toward(Right)
			}
		}
		if doRow {
			if t.Rest.Y < mid.Y {
				toward(Up)
			} else {
				toward(Down)
			}
		}
	}

	switch p.Rule {
	case RuleTowardEdge:
		toward(p.Edge)
	case RuleTowardOrigin:
		origin()
	case RuleTowardBoundary:
		boundary()
	case RuleRandomAxis:
		if p.Axis == Vertical {
			if rng.Bool() {
				toward(Down)
			} else {
				toward(Up)
			}
		} else {
			if rng.Bool() {
				toward(Right)
			} else {
				toward(Left)
			}
		}
	case RuleRandomRule:
		if rng.Bool() {
			origin()
		} else {
			boundary()
		}
	}

	return target
}

// Retarget assigns new rest positions to every tile and marks them settling
func (p Policy) Retarget(b *Board, doColumn, doRow bool, rng *RNG) {
	targets := make([]Cell, len(b.Tiles))
	for i, t := range b.Tiles {
		targets[i] = p.Target(b, t, doColumn, doRow, rng)
	}
	g := b.Geometry()

	// Per-tile coin flips can send two tiles of one line to the same cell.
	// Spread them apart along the axis that moved, keeping their order.
	var columnsMoved, rowsMoved bool
	for i, t := range b.Tiles {
		cur := g.ToCell(t.Rest)
		columnsMoved = columnsMoved || targets[i].Col != cur.Col
		rowsMoved = rowsMoved || targets[i].Row != cur.Row
	}
	if columnsMoved {
		spreadLines(b, targets, false)
	}
	if rowsMoved {
		spreadLines(b, targets, true)
	}

	// Rest positions are committed only after every target is computed so
	// that neighbour counts all see the same layout.
	for i, t := range b.Tiles {
		t.Rest = g.ToPixel(targets[i].Row, targets[i].Col)
		t.Settling = !t.AtRest()
	}
}

// spreadLines makes targets distinct within each line. With rows set it
// groups by target column and adjusts rows, otherwise it groups by target
// row and adjusts columns.
func spreadLines(b *Board, targets []Cell, rows bool) {
	g := b.Geometry()
	bound := g.Columns
	if rows {
		bound = g.Rows
	}

	lines := make(map[int][]int)
	for i, c := range targets {
		key := c.Row
		if rows {
			key = c.Col
		}
		lines[key] = append(lines[key], i)
	}

	index := func(i int) *int {
		if rows {
			return &targets[i].Row
		}
		return &targets[i].Col
	}
	current := func(i int) float64 {
		if rows {
			return b.Tiles[i].Rest.Y
		}
		return b.Tiles[i].Rest.X
	}

	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		sort.SliceStable(line, func(x, y int) bool {
			ix, iy := *index(line[x]), *index(line[y])
			if ix != iy {
				return ix < iy
			}
			return current(line[x]) < current(line[y])
		})
		for k := 1; k < len(line); k++ {
			if prev := *index(line[k-1]); *index(line[k]) <= prev {
				*index(line[k]) = prev + 1
			}
		}
		for k := len(line) - 1; k >= 0; k-- {
			limit := bound - 1
			if k < len(line)-1 {
				limit = *index(line[k+1]) - 1
			}
			if *index(line[k]) > limit {
				*index(line[k]) = limit
			}
		}
	}
}
