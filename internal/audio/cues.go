package audio

import "github.com/wricardo/tile-pairs-game/game/engine"

// Cue is one short sound effect
type Cue int

const (
	CueNone Cue = iota
	CueSelect
	CueDeselect
	CueMatch
	CueMismatch
	CueReshuffle
	CueStageClear
	CueTimeout
)

func (c Cue) String() string {
	switch c {
	case CueSelect:
		return "select"
	case CueDeselect:
		return "deselect"
	case CueMatch:
		return "match"
	case CueMismatch:
		return "mismatch"
	case CueReshuffle:
		return "reshuffle"
	case CueStageClear:
		return "stage_clear"
	case CueTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// level is the relative loudness of a cue
func (c Cue) level() float64 {
	switch c {
	case CueSelect, CueDeselect:
		return 0.2
	case CueMismatch, CueTimeout:
		return 0.15
	default:
		return 0.3
	}
}

// CueFor maps an engine event to the cue a front-end should play.
// Events with no sound map to CueNone.
func CueFor(t engine.EventType) Cue {
	switch t {
	case engine.EventSelected:
		return CueSelect
	case engine.EventDeselected:
		return CueDeselect
	case engine.EventMatched:
		return CueMatch
	case engine.EventMismatched:
		return CueMismatch
	case engine.EventReshuffled:
		return CueReshuffle
	case engine.EventStageAdvanced:
		return CueStageClear
	case engine.EventTimeout:
		return CueTimeout
	default:
		return CueNone
	}
}
