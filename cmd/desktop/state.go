package main

import (
	"image/color"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/internal/client"
)

// headerHeight is the strip above the board for stage, clock and status
const headerHeight = 48

// Face colors, picked by image key
var faceColors = []color.RGBA{
	{231, 76, 60, 255},
	{46, 204, 113, 255},
	{241, 196, 15, 255},
	{52, 152, 219, 255},
	{155, 89, 182, 255},
	{26, 188, 156, 255},
	{230, 126, 34, 255},
	{236, 112, 160, 255},
	{149, 165, 166, 255},
	{127, 140, 141, 255},
	{192, 57, 43, 255},
	{41, 128, 185, 255},
}

func faceColor(key engine.ImageKey) color.RGBA {
	sum := 0
	for _, r := range key {
		sum += int(r)
	}
	return faceColors[sum%len(faceColors)]
}

// faceLabel drops leading digits and keeps the first few letters
func faceLabel(key engine.ImageKey, n int) string {
	s := strings.TrimLeftFunc(string(key), unicode.IsDigit)
	if s == "" {
		s = string(key)
	}
	if r := []rune(s); len(r) > n {
		s = string(r[:n])
	}
	return s
}

func hinted(hint []int, id int) bool {
	return slices.Contains(hint, id)
}

// toBoard maps a logical screen position to a board pixel
func toBoard(x, y int) engine.Point {
	return engine.Point{X: float64(x), Y: float64(y - headerHeight)}
}

// state is the latest server view, written by the stream goroutine and
// read by Update/Draw
type state struct {
	mu     sync.Mutex
	snap   *engine.Snapshot
	status string
	hint   []int // tile IDs, nil when no hint is shown
	online bool
}

// apply folds one stream message into the state and returns the event it
// carried, if any
func (s *state) apply(msg client.Message) *engine.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = true
	if msg.Board != nil {
		// Frames can arrive out of order across a reconnect
		if s.snap == nil || msg.Board.Version >= s.snap.Version || msg.Board.Stage != s.snap.Stage {
			s.snap = msg.Board
		}
	}

	ev := msg.Event
	if ev == nil {
		return nil
	}
	switch ev.Type {
	case engine.EventMatched, engine.EventReset, engine.EventStageAdvanced, engine.EventReshuffled:
		s.hint = nil
	}
	if ev.Message != "" {
		s.status = string(ev.Type) + ": " + ev.Message
	}
	return ev
}

func (s *state) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

func (s *state) setHint(first, second int) {
	s.mu.Lock()
	s.hint = []int{first, second}
	s.mu.Unlock()
}

func (s *state) clearHint() {
	s.mu.Lock()
	s.hint = nil
	s.mu.Unlock()
}

func (s *state) setSnapshot(snap *engine.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	if s.snap == nil || snap.Version >= s.snap.Version || snap.Stage != s.snap.Stage {
		s.snap = snap
	}
	s.mu.Unlock()
}

func (s *state) setOffline() {
	s.mu.Lock()
	s.online = false
	s.mu.Unlock()
}

// view returns a consistent copy for drawing
func (s *state) view() (*engine.Snapshot, string, []int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.status, s.hint, s.online
}
