package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/stackfsm"
)

// ValidationObserver mirrors the active-state stack from notifications and
// records violations of the stack discipline and of an optional allow-list
// of transitions
type ValidationObserver[S, K comparable] struct {
	stackfsm.BaseObserver[S, K]

	mutex              sync.RWMutex
	frames             []S
	started            bool
	visitedStates      map[S]bool
	allowedTransitions map[S]map[S]bool
	violations         []string
}

// NewValidationObserver creates a new validation observer
func NewValidationObserver[S, K comparable]() *ValidationObserver[S, K] {
	return &ValidationObserver[S, K]{
		visitedStates:      make(map[S]bool),
		allowedTransitions: make(map[S]map[S]bool),
	}
}

// AddAllowedTransition restricts transitions out of from to the allowed targets.
// States with no allowed entries are unrestricted.
func (o *ValidationObserver[S, K]) AddAllowedTransition(from, to S) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[S]bool)
	}
	o.allowedTransitions[from][to] = true
}

func (o *ValidationObserver[S, K]) addViolation(format string, args ...any) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnMachineStarted seeds the mirrored stack
func (o *ValidationObserver[S, K]) OnMachineStarted(state S) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.started {
		o.addViolation("machine started twice")
	}
	o.started = true
	o.frames = []S{state}
}

// OnStateEnter checks that the entered state is on top of the mirrored stack
func (o *ValidationObserver[S, K]) OnStateEnter(state S, depth int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates[state] = true
	if len(o.frames) == 0 || o.frames[len(o.frames)-1] != state {
		o.addViolation("entered %v which is not current", state)
	}
	if depth != len(o.frames) {
		o.addViolation("entered %v at depth %d, expected %d", state, depth, len(o.frames))
	}
}

// OnTransition applies the transition to the mirrored stack
func (o *ValidationObserver[S, K]) OnTransition(info stackfsm.TransitionInfo[S, K]) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if len(o.frames) == 0 {
		o.addViolation("transition %v -> %v before start", info.From, info.To)
		return
	}
	if top := o.frames[len(o.frames)-1]; top != info.From {
		o.addViolation("transition from %v but current is %v", info.From, top)
	}
	if allowed, restricted := o.allowedTransitions[info.From]; restricted && !allowed[info.To] {
		o.addViolation("transition %v -> %v is not allowed", info.From, info.To)
	}

	switch info.Kind {
	case stackfsm.Fire:
		o.frames[len(o.frames)-1] = info.To
	case stackfsm.Push:
		o.frames = append(o.frames, info.To)
	case stackfsm.Internal:
		if info.To != info.From {
			o.addViolation("internal transition on %v reported target %v", info.From, info.To)
		}
	case stackfsm.Pop:
		if len(o.frames) < 2 {
			o.addViolation("pop from %v emptied the stack", info.From)
			o.frames = nil
			return
		}
		o.frames = o.frames[:len(o.frames)-1]
		if top := o.frames[len(o.frames)-1]; top != info.To {
			o.addViolation("pop uncovered %v but reported %v", top, info.To)
		}
	}

	if info.Depth != len(o.frames) {
		o.addViolation("transition to %v reported depth %d, expected %d", info.To, info.Depth, len(o.frames))
	}
}

// OnStateResume checks that the resumed state is current
func (o *ValidationObserver[S, K]) OnStateResume(state S, depth int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if len(o.frames) == 0 || o.frames[len(o.frames)-1] != state {
		o.addViolation("resumed %v which is not current", state)
	}
}

// Violations returns the recorded violations
func (o *ValidationObserver[S, K]) Violations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	out := make([]string, len(o.violations))
	copy(out, o.violations)
	return out
}

// Visited reports whether state was ever entered
func (o *ValidationObserver[S, K]) Visited(state S) bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.visitedStates[state]
}

// Stack returns the mirrored stack, bottom first
func (o *ValidationObserver[S, K]) Stack() []S {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	out := make([]S, len(o.frames))
	copy(out, o.frames)
	return out
}
