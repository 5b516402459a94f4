package envmap

import (
	"testing"
	"time"
)

func TestUpdateSchedulerRateLimit(t *testing.T) {
	tests := []struct {
		name   string
		rate   int
		step   time.Duration
		span   time.Duration
		window time.Duration
	}{
		{"10 Hz, 1 ms frames", 10, time.Millisecond, time.Second, 100 * time.Millisecond},
		{"10 Hz, 60 fps", 10, time.Second / 60, 2 * time.Second, 100 * time.Millisecond},
		{"30 Hz, 1 ms frames", 30, time.Millisecond, time.Second, time.Second / 30},
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUpdateScheduler(tt.rate)
			s.Start()
			perWindow := map[int64]int{}
			for at := time.Duration(0); at < tt.span; at += tt.step {
				if s.Admit(base.Add(at)) {
					perWindow[int64(at/tt.window)]++
				}
			}
			for w, n := range perWindow {
				if n > 1 {
					t.Errorf("window %d admitted %d frames, want at most 1", w, n)
				}
			}
			if got, want := len(perWindow), int(tt.span/tt.window); got < want*8/10 || got > want {
				t.Errorf("admissions = %d, want about %d", got, want)
			}
		})
	}
}

func TestUpdateSchedulerExactCount(t *testing.T) {
	s := NewUpdateScheduler(10)
	s.Start()
	base := time.Unix(100, 0)
	admitted := 0
	for ms := range 1000 {
		if s.Admit(base.Add(time.Duration(ms) * time.Millisecond)) {
			admitted++
		}
	}
	// Admissions at 0, 101, 202, ..., 909 ms.
	if admitted != 10 {
		t.Errorf("admitted = %d, want 10", admitted)
	}
}

func TestUpdateSchedulerIdle(t *testing.T) {
	s := NewUpdateScheduler(10)
	if s.State() != Idle {
		t.Fatalf("initial state = %v, want idle", s.State())
	}
	base := time.Unix(0, 0)
	for i := range 100 {
		if s.Admit(base.Add(time.Duration(i) * time.Second)) {
			t.Fatal("idle scheduler admitted a frame")
		}
	}
	s.Start()
	if !s.Admit(base) {
		t.Error("first frame after Start should be admitted")
	}
	s.Stop()
	if s.Admit(base.Add(time.Hour)) {
		t.Error("stopped scheduler admitted a frame")
	}
}

func TestUpdateSchedulerRestart(t *testing.T) {
	s := NewUpdateScheduler(10)
	s.Start()
	now := time.Unix(50, 0)
	if !s.Admit(now) {
		t.Fatal("first frame rejected")
	}
	if s.Admit(now.Add(10 * time.Millisecond)) {
		t.Fatal("frame inside the interval admitted")
	}
	s.Restart()
	if !s.Admit(now.Add(20 * time.Millisecond)) {
		t.Error("frame after Restart should be admitted immediately")
	}
}

func TestUpdateSchedulerBoundaryIsStrict(t *testing.T) {
	s := NewUpdateScheduler(10)
	s.Start()
	now := time.Unix(0, 0)
	s.Admit(now)
	if s.Admit(now.Add(100 * time.Millisecond)) {
		t.Error("frame exactly one interval later must be rejected")
	}
	if !s.Admit(now.Add(100*time.Millisecond + time.Nanosecond)) {
		t.Error("frame just past the interval must be admitted")
	}
}
