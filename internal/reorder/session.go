package reorder

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultIdleCeiling bounds how long a gesture may stay alive. A lost
// drop event must not leave the deck stuck in move mode forever.
const DefaultIdleCeiling = 30 * time.Second

// NoCandidate marks the absence of a hovered slot.
const NoCandidate = -1

// Session errors.
var (
	ErrSessionActive   = errors.New("reorder: another gesture is already active")
	ErrNotDragging     = errors.New("reorder: no gesture in progress")
	ErrNoCandidateSlot = errors.New("reorder: drop without a candidate slot")
)

// SessionState is the lifecycle state of one gesture.
type SessionState int

const (
	StateIdle SessionState = iota
	StateArmed
	StateDragging
	StateCommitted
)

// String returns a short name for the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	case StateCommitted:
		return "committed"
	}
	return "unknown"
}

// Session tracks one gesture from pick-up to drop or cancel. At most one
// gesture is active at a time; arming while another gesture is live is
// rejected. The session holds only transient gesture state and is never
// persisted.
type Session struct {
	mu          sync.Mutex
	state       SessionState
	itemID      string
	fromIndex   int
	candidate   int
	startedAt   time.Time
	idleCeiling time.Duration
	now         func() time.Time
}

// SessionParams holds parameters for creating a Session.
type SessionParams struct {
	IdleCeiling time.Duration    // 0 = DefaultIdleCeiling
	Now         func() time.Time // nil = time.Now, injectable for tests
}

// NewSession creates an idle Session.
func NewSession(params SessionParams) *Session {
	ceiling := params.IdleCeiling
	if ceiling == 0 {
		ceiling = DefaultIdleCeiling
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		state:       StateIdle,
		candidate:   NoCandidate,
		idleCeiling: ceiling,
		now:         now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Active returns true while a gesture is live (anything but idle).
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state != StateIdle
}

// ItemID returns the picked-up item's ID, valid while Active.
func (s *Session) ItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.itemID
}

// FromIndex returns the index the item occupied at pick-up, valid while
// Active. The index is a snapshot; the order may have changed since, which
// the engine detects at commit time.
func (s *Session) FromIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fromIndex
}

// Candidate returns the hovered slot, or NoCandidate.
func (s *Session) Candidate() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.candidate
}

// Arm starts a gesture for the item at fromIndex. Fails with
// ErrSessionActive if another gesture is live, including one still waiting
// for reconciliation to finish.
func (s *Session) Arm(itemID string, fromIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w (state %s)", ErrSessionActive, s.state)
	}
	s.state = StateArmed
	s.itemID = itemID
	s.fromIndex = fromIndex
	s.candidate = NoCandidate
	s.startedAt = s.now()
	return nil
}

// Drag moves an armed gesture into dragging. Already-dragging is fine.
func (s *Session) Drag() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateArmed:
		s.state = StateDragging
		return nil
	case StateDragging:
		return nil
	default:
		return fmt.Errorf("%w (state %s)", ErrNotDragging, s.state)
	}
}

// SetCandidate marks the hovered slot. Only one slot is a candidate at a
// time; the previous candidate is implicitly cleared.
func (s *Session) SetCandidate(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDragging {
		return fmt.Errorf("%w (state %s)", ErrNotDragging, s.state)
	}
	s.candidate = slot
	return nil
}

// ClearCandidate clears the hovered slot.
func (s *Session) ClearCandidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidate = NoCandidate
}

// Commit turns a drop on the current candidate slot into a gesture
// record. The session stays in committed until Finish: a second gesture
// must not start against indices that are about to change.
func (s *Session) Commit() (Gesture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDragging {
		return Gesture{}, fmt.Errorf("%w (state %s)", ErrNotDragging, s.state)
	}
	if s.candidate == NoCandidate {
		return Gesture{}, ErrNoCandidateSlot
	}
	g := Gesture{
		ItemID:    s.itemID,
		FromIndex: s.fromIndex,
		ToSlot:    s.candidate,
	}
	s.state = StateCommitted
	return g, nil
}

// Finish releases a committed session after reconciliation completed.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitted {
		s.reset()
	}
}

// Cancel tears the gesture down from any state. Pure cleanup: no store
// call is ever issued for a cancelled gesture. Safe to call when idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

// Expired reports whether a live gesture has outlived the idle ceiling.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return false
	}
	return s.now().Sub(s.startedAt) > s.idleCeiling
}

func (s *Session) reset() {
	s.state = StateIdle
	s.itemID = ""
	s.fromIndex = 0
	s.candidate = NoCandidate
	s.startedAt = time.Time{}
}

// Gesture is the committed outcome of a session: which item was picked up,
// where it was, and which slot it was dropped on.
type Gesture struct {
	ItemID    string
	FromIndex int
	ToSlot    int
}
