package engine

import (
	"reflect"
	"testing"
	"time"
)

func TestFrameScheduler_TimedOrder(t *testing.T) {
	s := NewFrameScheduler()
	var got []string

	s.Schedule(300*time.Millisecond, func() { got = append(got, "late") })
	s.Schedule(100*time.Millisecond, func() { got = append(got, "early") })
	s.Schedule(100*time.Millisecond, func() { got = append(got, "early-second") })

	s.Frame(50 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("Expected nothing due at 50ms, got %v", got)
	}

	s.Frame(60 * time.Millisecond)
	if want := []string{"early", "early-second"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v at 110ms, got %v", want, got)
	}

	s.Frame(time.Second)
	if want := []string{"early", "early-second", "late"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if s.Pending() != 0 {
		t.Errorf("Expected empty queue, got %d pending", s.Pending())
	}
	if s.Now() != 1110*time.Millisecond {
		t.Errorf("Expected clock at 1110ms, got %v", s.Now())
	}
}

func TestFrameScheduler_OneStepPerFrame(t *testing.T) {
	s := NewFrameScheduler()
	steps := 0

	var step func()
	step = func() {
		steps++
		if steps < 3 {
			s.NextFrame(step)
		}
	}
	s.NextFrame(step)

	for frame := 1; frame <= 5; frame++ {
		s.Frame(16 * time.Millisecond)
		want := frame
		if want > 3 {
			want = 3
		}
		if steps != want {
			t.Fatalf("frame %d: expected %d steps, got %d", frame, want, steps)
		}
	}
}

func TestFrameScheduler_TimedBeforeFrameActions(t *testing.T) {
	s := NewFrameScheduler()
	var got []string

	s.NextFrame(func() { got = append(got, "frame") })
	s.Schedule(0, func() { got = append(got, "timed") })
	s.Frame(0)

	if want := []string{"timed", "frame"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFrameScheduler_ScheduleFromAction(t *testing.T) {
	s := NewFrameScheduler()
	ran := false

	s.Schedule(10*time.Millisecond, func() {
		s.Schedule(0, func() { ran = true })
	})
	s.Frame(10 * time.Millisecond)

	if !ran {
		t.Error("Expected an action scheduled with no delay to run in the same frame")
	}
}

func TestFrameScheduler_Clear(t *testing.T) {
	s := NewFrameScheduler()
	ran := false
	s.Schedule(0, func() { ran = true })
	s.NextFrame(func() { ran = true })

	s.Clear()
	s.Frame(time.Second)

	if ran {
		t.Error("Expected cleared actions not to run")
	}
}
