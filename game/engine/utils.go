package engine

// neighbours counts the tiles sharing a tile's rest row or rest column on
// each side. Rest positions are used so that a retarget issued while tiles
// are still falling packs against where they will land.
type neighbours struct {
	Above, Below, Left, Right int
}

func (b *Board) countNeighbours(tile *Tile) neighbours {
	var n neighbours
	for _, t := range b.Tiles {
		if t == tile {
			continue
		}
		if t.Rest.X == tile.Rest.X {
			if t.Rest.Y < tile.Rest.Y {
				n.Above++
			} else if t.Rest.Y > tile.Rest.Y {
				n.Below++
			}
		}
		if t.Rest.Y == tile.Rest.Y {
			if t.Rest.X < tile.Rest.X {
				n.Left++
			} else if t.Rest.X > tile.Rest.X {
				n.Right++
			}
		}
	}
	return n
}

// KeyCounts returns how many live tiles carry each image key
func (b *Board) KeyCounts() map[ImageKey]int {
	counts := make(map[ImageKey]int)
	for _, t := range b.Tiles {
		counts[t.Image]++
	}
	return counts
}

// Keys returns the image keys of the live tiles in collection order
func (b *Board) Keys() []ImageKey {
	keys := make([]ImageKey, 0, len(b.Tiles))
	for _, t := range b.Tiles {
		keys = append(keys, t.Image)
	}
	return keys
}

// MultiplicityHolds reports whether the key multiset is consistent with
// pair elimination: every key present appears an even number of times and
// no more than PairMultiplicity times. On a fresh deal each key appears
// exactly PairMultiplicity times.
func (b *Board) MultiplicityHolds() bool {
	if len(b.Tiles)%2 != 0 {
		return false
	}
	for _, n := range b.KeyCounts() {
		if n%2 != 0 || n > b.PairMultiplicity {
			return false
		}
	}
	return true
}

// CountTurns returns the number of direction changes along a waypoint path
func CountTurns(path []Cell) int {
	turns := 0
	for i := 2; i < len(path); i++ {
		prevHorizontal := path[i-1].Row == path[i-2].Row
		nextHorizontal := path[i].Row == path[i-1].Row
		if prevHorizontal != nextHorizontal {
			turns++
		}
	}
	return turns
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
