package engine

// FindPath decides whether a and t can be connected and returns the
// waypoints of the first path found, endpoints included.
//
// A straight connection is accepted when t is the nearest tile to a in one
// of the four directions. Otherwise four rays expand outward from a, one
// step per round in the order right, left, below, above, each stopping one
// step past the grid edge (the virtual lane). At every ray position an
// L-shaped (one turn) connection is tried before a Z-shaped (two turn) one.
func FindPath(b Occupancy, a, t *Tile) ([]Cell, bool) {
	if a == nil || t == nil || a == t || a.Image != t.Image {
		return nil, false
	}

	from, to := b.CellOf(a), b.CellOf(t)
	for _, d := range []Direction{Up, Down, Left, Right} {
		if b.Nearest(from, d) == t {
			return []Cell{from, to}, true
		}
	}

	g := b.Geometry()
	right, left := from.Col+1, from.Col-1
	below, above := from.Row+1, from.Row-1

	for right <= g.Columns || left >= -1 || below <= g.Rows || above >= -1 {
		if right <= g.Columns {
			if path, ok := horizontalTurn(b, from, to, right, from.Col+1); ok {
				return path, true
			}
			right++
		}
		if left >= -1 {
			if path, ok := horizontalTurn(b, from, to, left, from.Col-1); ok {
				return path, true
			}
			left--
		}
		if below <= g.Rows {
			if path, ok := verticalTurn(b, from, to, below, from.Row+1); ok {
				return path, true
			}
			below++
		}
		if above >= -1 {
			if path, ok := verticalTurn(b, from, to, above, from.Row-1); ok {
				return path, true
			}
			above--
		}
	}

	return nil, false
}

// horizontalTurn tries paths that leave from along its row as far as
// column col, where near is the first column next to from.
func horizontalTurn(b Occupancy, from, to Cell, col, near int) ([]Cell, bool) {
	if !b.HorizontalClear(near, col, from.Row) {
		return nil, false
	}

	// L: turn once, straight into to's column
	if col == to.Col &&
		((to.Row > from.Row && b.VerticalClear(from.Row, to.Row-1, col)) ||
			(to.Row < from.Row && b.VerticalClear(from.Row, to.Row+1, col))) {
		return []Cell{from, {Row: from.Row, Col: col}, to}, true
	}

	// Z: run the full span along col, then turn again into to's row
	if b.VerticalClear(from.Row, to.Row, col) &&
		((col < to.Col && b.HorizontalClear(to.Col-1, col, to.Row)) ||
			(col > to.Col && b.HorizontalClear(to.Col+1, col, to.Row))) {
		return []Cell{from, {Row: from.Row, Col: col}, {Row: to.Row, Col: col}, to}, true
	}

	return nil, false
}

// verticalTurn is horizontalTurn with rows and columns swapped.
func verticalTurn(b Occupancy, from, to Cell, row, near int) ([]Cell, bool) {
	if !b.VerticalClear(near, row, from.Col) {
		return nil, false
	}

	if row == to.Row &&
		((to.Col > from.Col && b.HorizontalClear(from.Col, to.Col-1, row)) ||
			(to.Col < from.Col && b.HorizontalClear(from.Col, to.Col+1, row))) {
		return []Cell{from, {Row: row, Col: from.Col}, to}, true
	}

	if b.HorizontalClear(from.Col, to.Col, row) &&
		((row < to.Row && b.VerticalClear(to.Row-1, row, to.Col)) ||
			(row > to.Row && b.VerticalClear(to.Row+1, row, to.Col))) {
		return []Cell{from, {Row: row, Col: from.Col}, {Row: row, Col: to.Col}, to}, true
	}

	return nil, false
}
