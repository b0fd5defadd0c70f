package shipping

import (
	"fmt"
	"time"
)

// LabelState is a step of a label request
type LabelState string

const (
	StateDraft         LabelState = "DRAFT"
	StateValidated     LabelState = "VALIDATED"
	StateAuthenticated LabelState = "AUTHENTICATED"
	StateSubmitted     LabelState = "SUBMITTED"
	StateLabeled       LabelState = "LABELED"
	StateFailed        LabelState = "FAILED"
)

// String returns the string representation of LabelState
func (s LabelState) String() string { return string(s) }

// IsTerminal returns true for Labeled and Failed
func (s LabelState) IsTerminal() bool {
	return s == StateLabeled || s == StateFailed
}

// next is the single forward transition out of each non-terminal state
var next = map[LabelState]LabelState{
	StateDraft:         StateValidated,
	StateValidated:     StateAuthenticated,
	StateAuthenticated: StateSubmitted,
	StateSubmitted:     StateLabeled,
}

// CanTransitionTo checks if the state can move to target. Failed is reachable
// from any non-terminal state.
func (s LabelState) CanTransitionTo(target LabelState) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StateFailed {
		return true
	}
	return next[s] == target
}

// Transition records one state change
type Transition struct {
	From LabelState
	To   LabelState
	At   time.Time
}

// LabelRequest tracks one run of the label state machine
type LabelRequest struct {
	state       LabelState
	failedIn    LabelState
	reason      error
	transitions []Transition
	now         func() time.Time
}

// NewLabelRequest starts a request in Draft
func NewLabelRequest(now func() time.Time) *LabelRequest {
	if now == nil {
		now = time.Now
	}
	return &LabelRequest{state: StateDraft, now: now}
}

// State returns the current state
func (r *LabelRequest) State() LabelState { return r.state }

// Advance moves to target or returns an error for an illegal transition
func (r *LabelRequest) Advance(target LabelState) error {
	if target == StateFailed {
		return fmt.Errorf("label request: use Fail to enter %s", StateFailed)
	}
	if !r.state.CanTransitionTo(target) {
		return fmt.Errorf("label request: cannot transition from %s to %s", r.state, target)
	}
	r.record(target)
	return nil
}

// Fail enters Failed carrying reason and returns reason. Failing a terminal
// request leaves it unchanged.
func (r *LabelRequest) Fail(reason error) error {
	if r.state.IsTerminal() {
		return reason
	}
	r.failedIn = r.state
	r.reason = reason
	r.record(StateFailed)
	return reason
}

// FailedIn is the state the request was in when it failed
func (r *LabelRequest) FailedIn() LabelState { return r.failedIn }

// Reason is the failure reason, nil unless Failed
func (r *LabelRequest) Reason() error { return r.reason }

// Transitions returns the recorded history
func (r *LabelRequest) Transitions() []Transition {
	out := make([]Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

func (r *LabelRequest) record(target LabelState) {
	r.transitions = append(r.transitions, Transition{From: r.state, To: target, At: r.now()})
	r.state = target
}
