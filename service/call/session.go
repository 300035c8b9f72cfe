package call

import (
	"sync"
	"time"
)

// State is the lifecycle position of a call session. Transitions only
// move forward; once a terminal state is reached the session is dead.
type State int

const (
	StateRinging State = iota + 1
	StateAccepted
	StateActive
	StateEnded
	StateRejected
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRinging:
		return "ringing"
	case StateAccepted:
		return "accepted"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session can never transition again.
func (s State) Terminal() bool {
	switch s {
	case StateEnded, StateRejected, StateTimedOut, StateFailed:
		return true
	}
	return false
}

// Media is the call flavor announced in the invite.
type Media string

const (
	MediaAudio Media = "audio"
	MediaVideo Media = "video"
)

// Session is one caller/callee pairing. All state mutation goes
// through transition so concurrent signals race on the mutex, not on
// the field.
type Session struct {
	ID        string
	Caller    string
	Callee    string
	Media     Media
	CreatedAt time.Time

	mu    sync.Mutex
	state State
	timer *time.Timer
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves the session to next if the current state is one of
// allowed. It returns the state observed before the attempt and
// whether the move happened. A terminal current state always refuses,
// which is what makes late signals and fired timers single-shot.
func (s *Session) transition(next State, allowed ...State) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	if prev.Terminal() {
		return prev, false
	}
	for _, a := range allowed {
		if prev == a {
			s.state = next
			// The timer only guards the ring window; leaving RINGING
			// for any reason cancels it.
			if prev == StateRinging && s.timer != nil {
				s.timer.Stop()
				s.timer = nil
			}
			return prev, true
		}
	}
	return prev, false
}

func (s *Session) armTimer(t *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = t
}

// peer returns the other party, or "" when userID is not in the call.
func (s *Session) peer(userID string) string {
	switch userID {
	case s.Caller:
		return s.Callee
	case s.Callee:
		return s.Caller
	}
	return ""
}
