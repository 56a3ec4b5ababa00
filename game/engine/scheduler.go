package engine

import (
	"sort"
	"time"
)

// Scheduler is the single execution queue of the engine. Actions never run
// concurrently; they run inside Frame, in the goroutine that owns the
// engine.
type Scheduler interface {
	// Schedule runs action once at least after has elapsed
	Schedule(after time.Duration, action func())
	// NextFrame runs action on the next frame
	NextFrame(action func())
}

type timedAction struct {
	at     time.Duration
	seq    uint64
	action func()
}

// FrameScheduler is a Scheduler on a virtual clock. The host advances it
// once per animation frame with the elapsed wall time, so tests can drive
// it without sleeping.
type FrameScheduler struct {
	clock  time.Duration
	seq    uint64
	timed  []timedAction
	frames []func()
}

// NewFrameScheduler creates an idle scheduler at time zero
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// Schedule queues action to run once the clock passes now+after
func (s *FrameScheduler) Schedule(after time.Duration, action func()) {
	if after < 0 {
		after = 0
	}
	s.seq++
	s.timed = append(s.timed, timedAction{at: s.clock + after, seq: s.seq, action: action})
}

// NextFrame queues action for the next call to Frame
func (s *FrameScheduler) NextFrame(action func()) {
	s.frames = append(s.frames, action)
}

// Now returns the virtual clock
func (s *FrameScheduler) Now() time.Duration {
	return s.clock
}

// Pending returns the number of queued actions
func (s *FrameScheduler) Pending() int {
	return len(s.timed) + len(s.frames)
}

// Frame advances the clock by elapsed, runs every timed action now due in
// due order, then the frame actions queued before this frame began. Frame
// actions queued while running go to the next frame.
func (s *FrameScheduler) Frame(elapsed time.Duration) {
	if elapsed > 0 {
		s.clock += elapsed
	}

	for {
		due := s.popDue()
		if due == nil {
			break
		}
		due()
	}

	frames := s.frames
	s.frames = nil
	for _, action := range frames {
		action()
	}
}

// Clear drops every queued action
func (s *FrameScheduler) Clear() {
	s.timed = nil
	s.frames = nil
}

func (s *FrameScheduler) popDue() func() {
	if len(s.timed) == 0 {
		return nil
	}
	sort.Slice(s.timed, func(i, j int) bool {
		if s.timed[i].at != s.timed[j].at {
			return s.timed[i].at < s.timed[j].at
		}
		return s.timed[i].seq < s.timed[j].seq
	})
	if s.timed[0].at > s.clock {
		return nil
	}
	next := s.timed[0]
	s.timed = s.timed[1:]
	return next.action
}
