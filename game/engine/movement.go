package engine

import "math"

// settleAxis advances one coordinate toward rest and returns the new
// position and velocity. While the remaining distance covers the velocity
// the tile moves and accelerates; otherwise it snaps to rest and stops.
// A tile starting from rest spends its first step picking up speed.
func settleAxis(pos, rest, velocity, gravity float64) (float64, float64) {
	distance := math.Abs(rest - pos)
	if distance == 0 {
		return rest, 0
	}
	if distance < velocity {
		return rest, 0
	}

	if rest > pos {
		pos += velocity
	} else {
		pos -= velocity
	}
	if pos == rest {
		return rest, 0
	}
	return pos, velocity + gravity
}

// SettleStep performs one animation step for a single tile. It reports
// whether the tile is still moving afterwards.
func (t *Tile) SettleStep(gravity float64) bool {
	if t.AtRest() {
		t.Velocity = Point{}
		t.Settling = false
		return false
	}

	t.Position.X, t.Velocity.X = settleAxis(t.Position.X, t.Rest.X, t.Velocity.X, gravity)
	t.Position.Y, t.Velocity.Y = settleAxis(t.Position.Y, t.Rest.Y, t.Velocity.Y, gravity)

	t.Settling = !t.AtRest()
	return t.Settling
}

// SettleStep advances every settling tile by one frame and returns how
// many are still moving.
func (b *Board) SettleStep(gravity float64) int {
	moving := 0
	for _, t := range b.Tiles {
		if t.SettleStep(gravity) {
			moving++
		}
	}
	return moving
}

// Settling reports whether any live tile is away from its rest position
func (b *Board) Settling() bool {
	for _, t := range b.Tiles {
		if !t.AtRest() {
			return true
		}
	}
	return false
}
