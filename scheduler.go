package envmap

import "time"

// SchedulerState is the state of an UpdateScheduler.
type SchedulerState int

const (
	// Idle drops every frame.
	Idle SchedulerState = iota
	// Active admits frames subject to the rate limit.
	Active
)

func (s SchedulerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// UpdateScheduler limits how often the kernel runs relative to incoming
// frames. It starts Idle.
//
// UpdateScheduler is not safe for concurrent use; the Mapper serializes it.
type UpdateScheduler struct {
	state    SchedulerState
	interval time.Duration
	last     time.Time
	hasLast  bool
}

// NewUpdateScheduler returns an idle scheduler admitting at most rate
// updates per second. rate must be positive.
func NewUpdateScheduler(rate int) *UpdateScheduler {
	return &UpdateScheduler{interval: time.Second / time.Duration(max(rate, 1))}
}

// Start enables admission.
func (s *UpdateScheduler) Start() { s.state = Active }

// Stop disables admission. The timing reference is kept.
func (s *UpdateScheduler) Stop() { s.state = Idle }

// State returns the current state.
func (s *UpdateScheduler) State() SchedulerState { return s.state }

// Interval returns the minimum time between two admitted updates.
func (s *UpdateScheduler) Interval() time.Duration { return s.interval }

// Admit reports whether a frame arriving at now should be processed. A
// frame is admitted while Active when more than one interval has passed
// since the last admission; the first frame is always admitted. Admission
// records now as the new reference. Rejected frames leave no trace.
func (s *UpdateScheduler) Admit(now time.Time) bool {
	if s.state != Active {
		return false
	}
	if s.hasLast && now.Sub(s.last) <= s.interval {
		return false
	}
	s.last = now
	s.hasLast = true
	return true
}

// Restart forgets the last admission so that the next frame is admitted
// immediately.
func (s *UpdateScheduler) Restart() {
	s.last = time.Time{}
	s.hasLast = false
}
