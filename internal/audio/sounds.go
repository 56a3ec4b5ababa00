package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// SampleRate is the rate every cue is rendered at
const SampleRate = beep.SampleRate(44100)

// Wave selects the oscillator shape
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveTriangle
)

// tone is a fixed-length oscillator with a linear attack and release
type tone struct {
	freq    float64
	wave    Wave
	phase   float64
	pos     int
	total   int
	attack  int
	release int
	rate    beep.SampleRate
}

// NewTone returns a finite streamer playing freq for d
func NewTone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	total := rate.N(d)
	return &tone{
		freq:    freq,
		wave:    wave,
		total:   total,
		attack:  min(rate.N(5*time.Millisecond), total/4),
		release: min(rate.N(40*time.Millisecond), total/2),
		rate:    rate,
	}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}

		var val float64
		switch t.wave {
		case WaveSquare:
			if t.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case WaveTriangle:
			val = 4*math.Abs(t.phase-0.5) - 1
		default:
			val = math.Sin(2 * math.Pi * t.phase)
		}

		vol := 1.0
		if t.attack > 0 && t.pos < t.attack {
			vol = float64(t.pos) / float64(t.attack)
		}
		if remaining := t.total - t.pos; t.release > 0 && remaining < t.release {
			vol = float64(remaining) / float64(t.release)
		}

		samples[i][0] = val * vol
		samples[i][1] = val * vol

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// gain scales s linearly; zero or less is silent
func gain(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

type note struct {
	freq float64
	dur  time.Duration
	wave Wave
}

// melody plays notes back to back
func melody(rate beep.SampleRate, notes ...note) beep.Streamer {
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		if n.freq <= 0 {
			parts = append(parts, beep.Silence(rate.N(n.dur)))
			continue
		}
		parts = append(parts, NewTone(n.freq, n.dur, n.wave, rate))
	}
	return beep.Seq(parts...)
}

// Sound renders the streamer for a cue at the given master volume.
// CueNone yields nil.
func Sound(c Cue, volume float64) beep.Streamer {
	var s beep.Streamer
	switch c {
	case CueSelect:
		sine, err := generators.SineTone(SampleRate, 660)
		if err != nil {
			return nil
		}
		s = beep.Take(SampleRate.N(60*time.Millisecond), sine)
	case CueDeselect:
		s = NewTone(440, 50*time.Millisecond, WaveTriangle, SampleRate)
	case CueMatch:
		s = beep.Mix(
			melody(SampleRate,
				note{784, 70 * time.Millisecond, WaveSine},
				note{1047, 110 * time.Millisecond, WaveSine},
			),
			gain(NewTone(2094, 180*time.Millisecond, WaveSine, SampleRate), 0.25),
		)
	case CueMismatch:
		s = NewTone(110, 180*time.Millisecond, WaveSquare, SampleRate)
	case CueReshuffle:
		s = melody(SampleRate,
			note{523, 50 * time.Millisecond, WaveTriangle},
			note{392, 50 * time.Millisecond, WaveTriangle},
			note{523, 50 * time.Millisecond, WaveTriangle},
		)
	case CueStageClear:
		s = melody(SampleRate,
			note{523, 90 * time.Millisecond, WaveSine},
			note{659, 90 * time.Millisecond, WaveSine},
			note{784, 90 * time.Millisecond, WaveSine},
			note{0, 30 * time.Millisecond, WaveSine},
			note{1047, 220 * time.Millisecond, WaveSine},
		)
	case CueTimeout:
		s = melody(SampleRate,
			note{392, 150 * time.Millisecond, WaveSquare},
			note{330, 150 * time.Millisecond, WaveSquare},
			note{262, 300 * time.Millisecond, WaveSquare},
		)
	default:
		return nil
	}
	return gain(s, volume*c.level())
}
