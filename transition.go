package stackfsm

import (
	"fmt"
	"reflect"
)

// TransitionKind selects the stack operation a transition performs
type TransitionKind int

const (
	// Fire replaces the current state at the same stack depth
	Fire TransitionKind = iota + 1
	// Push suspends the current state beneath a new one
	Push
	// Pop discards the current state and resumes the one beneath
	Pop
	// Internal runs its action and stays in the current state without
	// exiting or re-entering it
	Internal
)

func (k TransitionKind) String() string {
	switch k {
	case Fire:
		return "fire"
	case Push:
		return "push"
	case Pop:
		return "pop"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// ParseTransitionKind converts a kind name as produced by String
func ParseTransitionKind(name string) (TransitionKind, error) {
	switch name {
	case "fire":
		return Fire, nil
	case "push":
		return Push, nil
	case "pop":
		return Pop, nil
	case "internal":
		return Internal, nil
	default:
		return 0, fmt.Errorf("unknown transition kind %q", name)
	}
}

// Target is an optional destination state. The zero value means no target.
type Target[S comparable] struct {
	state S
	set   bool
}

// To returns a target pointing at state
func To[S comparable](state S) Target[S] {
	return Target[S]{state: state, set: true}
}

// State returns the target state and whether one is present
func (t Target[S]) State() (S, bool) {
	return t.state, t.set
}

// IsSet reports whether a target is present
func (t Target[S]) IsSet() bool {
	return t.set
}

func (t Target[S]) String() string {
	if !t.set {
		return "<none>"
	}
	return fmt.Sprintf("%v", t.state)
}

// GuardFunc decides whether a transition may be taken for the given payload.
// The error result carries payload decoding failures and is propagated.
type GuardFunc[C any] func(ctx C, payload any) (bool, error)

// ActionFunc runs when a transition is taken
type ActionFunc[C any] func(ctx C, payload any) error

// HookFunc is an entry or exit action
type HookFunc[C any] func(ctx C) error

// ConditionFunc guards an eventless transition
type ConditionFunc[C any] func(ctx C) bool

// Guard adapts a guard with a statically typed payload
func Guard[C, P any](fn func(ctx C, payload P) bool) GuardFunc[C] {
	return func(ctx C, payload any) (bool, error) {
		p, err := payloadAs[P](payload)
		if err != nil {
			return false, err
		}
		return fn(ctx, p), nil
	}
}

// Action adapts an action with a statically typed payload
func Action[C, P any](fn func(ctx C, payload P) error) ActionFunc[C] {
	return func(ctx C, payload any) error {
		p, err := payloadAs[P](payload)
		if err != nil {
			return err
		}
		return fn(ctx, p)
	}
}

// When adapts a guard that ignores the payload
func When[C any](fn func(ctx C) bool) GuardFunc[C] {
	return func(ctx C, _ any) (bool, error) {
		return fn(ctx), nil
	}
}

// Do adapts an action that ignores the payload
func Do[C any](fn func(ctx C) error) ActionFunc[C] {
	return func(ctx C, _ any) error {
		return fn(ctx)
	}
}

// payloadAs converts a raw payload; a missing payload yields the zero value
func payloadAs[P any](payload any) (P, error) {
	var zero P
	if payload == nil {
		return zero, nil
	}
	p, ok := payload.(P)
	if !ok {
		return zero, &PayloadError{
			Expected: reflect.TypeOf((*P)(nil)).Elem().String(),
			Actual:   reflect.TypeOf(payload).String(),
		}
	}
	return p, nil
}

// Transition is an event-triggered edge out of a state
type Transition[S, K comparable, C any] struct {
	Event  K
	Kind   TransitionKind
	Target Target[S]
	Guard  GuardFunc[C]
	Action ActionFunc[C]
}

// validate enforces the target rule: Fire and Push need a target, Pop and
// Internal must not name one
func (t Transition[S, K, C]) validate(state S) error {
	switch t.Kind {
	case Fire, Push:
		if !t.Target.IsSet() {
			return NewInvalidTransitionError(fmt.Sprint(state), fmt.Sprint(t.Event), t.Kind,
				fmt.Sprintf("%s transition must define a target state", t.Kind))
		}
	case Pop, Internal:
		if t.Target.IsSet() {
			return NewInvalidTransitionError(fmt.Sprint(state), fmt.Sprint(t.Event), t.Kind,
				fmt.Sprintf("%s transition must not define a target, got '%v'", t.Kind, t.Target))
		}
	default:
		return NewInvalidTransitionError(fmt.Sprint(state), fmt.Sprint(t.Event), t.Kind,
			"unknown transition kind")
	}
	return nil
}

func (t Transition[S, K, C]) allows(ctx C, payload any) (bool, error) {
	if t.Guard == nil {
		return true, nil
	}
	return t.Guard(ctx, payload)
}

func (t Transition[S, K, C]) run(ctx C, payload any) error {
	if t.Action == nil {
		return nil
	}
	return t.Action(ctx, payload)
}

// AlwaysTransition is evaluated without an event every time its state becomes
// current. Without a target it only runs its action.
type AlwaysTransition[S comparable, C any] struct {
	Target Target[S]
	Guard  ConditionFunc[C]
	Action HookFunc[C]
}

func (a AlwaysTransition[S, C]) allows(ctx C) bool {
	if a.Guard == nil {
		return true
	}
	return a.Guard(ctx)
}

func (a AlwaysTransition[S, C]) run(ctx C) error {
	if a.Action == nil {
		return nil
	}
	return a.Action(ctx)
}
