package engine

// FindPair returns the first pair of live tiles that can be eliminated,
// scanning keys in collection order. It does not touch the pending path.
func (b *Board) FindPair() (*Tile, *Tile, bool) {
	considered := make(map[ImageKey]bool)

	for _, t := range b.Tiles {
		if considered[t.Image] {
			continue
		}
		considered[t.Image] = true

		similar := b.tilesWith(t.Image)
		for i := 0; i < len(similar)-1; i++ {
			for j := i + 1; j < len(similar); j++ {
				if _, ok := FindPath(b, similar[i], similar[j]); ok {
					return similar[i], similar[j], true
				}
			}
		}
	}

	return nil, nil, false
}

// Solvable reports whether at least one pairable pair exists
func (b *Board) Solvable() bool {
	_, _, ok := b.FindPair()
	return ok
}

// EnsureSolvable reshuffles image keys until some pair can be eliminated.
// It returns how many full reshuffles ran and whether the board ended up
// solvable. An empty board returns immediately.
func (b *Board) EnsureSolvable(rng *RNG) (int, bool) {
	if b.Empty() {
		return 0, false
	}
	if b.Solvable() {
		return 0, true
	}
	if !b.hasRepeatedKey() {
		return 0, false
	}

	keys := b.Keys()
	reshuffles := 0
	for reshuffles < MaxReshuffles {
		rng.ShuffleKeys(keys)
		for i, t := range b.Tiles {
			t.Image = keys[i]
		}
		reshuffles++

		if b.Solvable() {
			return reshuffles, true
		}
	}

	b.forcePair()
	return reshuffles, b.Solvable()
}

func (b *Board) tilesWith(key ImageKey) []*Tile {
	var tiles []*Tile
	for _, t := range b.Tiles {
		if t.Image == key {
			tiles = append(tiles, t)
		}
	}
	return tiles
}

func (b *Board) hasRepeatedKey() bool {
	for _, n := range b.KeyCounts() {
		if n >= 2 {
			return true
		}
	}
	return false
}

// forcePair finds two tiles that are geometrically connectable and swaps
// keys so that both carry the same one. The key multiset is unchanged.
func (b *Board) forcePair() {
	a, t, ok := b.connectablePair()
	if !ok {
		return
	}

	counts := b.KeyCounts()
	key := a.Image
	if counts[key] < 2 {
		for k, n := range counts {
			if n >= 2 {
				key = k
				break
			}
		}
	}

	var holders []*Tile
	for _, h := range b.tilesWith(key) {
		if h != a && h != t {
			holders = append(holders, h)
		}
	}
	for _, target := range []*Tile{a, t} {
		if target.Image == key || len(holders) == 0 {
			continue
		}
		h := holders[0]
		holders = holders[1:]
		target.Image, h.Image = h.Image, target.Image
	}
}

// connectablePair ignores keys and returns the first two tiles a path can
// join.
func (b *Board) connectablePair() (*Tile, *Tile, bool) {
	for i := 0; i < len(b.Tiles)-1; i++ {
		for j := i + 1; j < len(b.Tiles); j++ {
			a, t := b.Tiles[i], b.Tiles[j]
			saved := t.Image
			t.Image = a.Image
			_, ok := FindPath(b, a, t)
			t.Image = saved
			if ok {
				return a, t, true
			}
		}
	}
	return nil, nil, false
}
