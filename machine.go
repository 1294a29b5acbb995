package stackfsm

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MachineStatus describes where a machine is in its lifecycle
type MachineStatus int

const (
	// StatusIdle is a machine that accepts registrations and has not started
	StatusIdle MachineStatus = iota
	// StatusRunning is a started machine awaiting events
	StatusRunning
	// StatusFinished is a machine that reached a final state at the bottom of its stack
	StatusFinished
)

func (s MachineStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("MachineStatus(%d)", int(s))
	}
}

// cascadePathLen is how many states a CascadeError reports
const cascadePathLen = 10

// Machine is a stack-based state machine over states S, event kinds K and a
// caller-owned context C.
//
// A Machine advances only inside Start and Send, both of which run to
// completion before returning. Between calls it is paused awaiting the next
// event. It is not safe for concurrent use.
type Machine[S, K comparable, C any] struct {
	id              string
	context         C
	initial         S
	finals          map[S]struct{}
	finalOrder      []S
	stack           *stack[S]
	table           *table[S, K, C]
	status          MachineStatus
	maxCascadeSteps int
	observers       *ObserverManager[S, K]
}

// New creates a machine bound to ctx whose stack is seeded with initial.
// The run ends when one of finals is current with nothing suspended beneath it.
func New[S, K comparable, C any](ctx C, initial S, finals []S, opts ...Option) *Machine[S, K, C] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}

	m := &Machine[S, K, C]{
		id:              o.id,
		context:         ctx,
		initial:         initial,
		finals:          make(map[S]struct{}, len(finals)),
		stack:           newStack(initial),
		table:           newTable[S, K, C](),
		status:          StatusIdle,
		maxCascadeSteps: o.maxCascadeSteps,
		observers:       NewObserverManager[S, K](),
	}
	for _, s := range finals {
		if _, dup := m.finals[s]; !dup {
			m.finals[s] = struct{}{}
			m.finalOrder = append(m.finalOrder, s)
		}
	}
	return m
}

// ID returns the machine identifier
func (m *Machine[S, K, C]) ID() string {
	return m.id
}

// Context returns the context passed to every hook
func (m *Machine[S, K, C]) Context() C {
	return m.context
}

// Status returns the lifecycle status
func (m *Machine[S, K, C]) Status() MachineStatus {
	return m.status
}

// Running reports whether the machine has started and not yet finished
func (m *Machine[S, K, C]) Running() bool {
	return m.status == StatusRunning
}

// Finished reports whether the machine reached a final state
func (m *Machine[S, K, C]) Finished() bool {
	return m.status == StatusFinished
}

// CurrentState returns the state on top of the stack
func (m *Machine[S, K, C]) CurrentState() S {
	return m.stack.top()
}

// Stack returns a copy of the active states, bottom first
func (m *Machine[S, K, C]) Stack() []S {
	return m.stack.snapshot()
}

// Depth returns the number of active states
func (m *Machine[S, K, C]) Depth() int {
	return m.stack.depth()
}

// InitialState returns the state the machine was seeded with
func (m *Machine[S, K, C]) InitialState() S {
	return m.initial
}

// FinalStates returns the final states in the order they were given
func (m *Machine[S, K, C]) FinalStates() []S {
	out := make([]S, len(m.finalOrder))
	copy(out, m.finalOrder)
	return out
}

// IsFinal reports whether state is a final state
func (m *Machine[S, K, C]) IsFinal(state S) bool {
	_, ok := m.finals[state]
	return ok
}

// States returns the states that have a registered configuration, in registration order
func (m *Machine[S, K, C]) States() []S {
	out := make([]S, len(m.table.order))
	copy(out, m.table.order)
	return out
}

// Transitions returns a copy of the event transitions registered for state
func (m *Machine[S, K, C]) Transitions(state S) []Transition[S, K, C] {
	cfg := m.table.get(state)
	if cfg == nil {
		return nil
	}
	out := make([]Transition[S, K, C], len(cfg.Transitions))
	copy(out, cfg.Transitions)
	return out
}

// AlwaysTransitions returns a copy of the eventless transitions registered for state
func (m *Machine[S, K, C]) AlwaysTransitions(state S) []AlwaysTransition[S, C] {
	cfg := m.table.get(state)
	if cfg == nil {
		return nil
	}
	out := make([]AlwaysTransition[S, C], len(cfg.Always))
	copy(out, cfg.Always)
	return out
}

// AddObserver attaches an observer
func (m *Machine[S, K, C]) AddObserver(observer Observer[S, K]) {
	m.observers.AddObserver(observer)
}

// RemoveObserver detaches an observer
func (m *Machine[S, K, C]) RemoveObserver(observer Observer[S, K]) {
	m.observers.RemoveObserver(observer)
}

// checkConfigurable rejects registrations once the machine has started
func (m *Machine[S, K, C]) checkConfigurable(operation string) error {
	switch m.status {
	case StatusRunning:
		return NewAlreadyRunningError(operation)
	case StatusFinished:
		return NewFinishedError(operation, fmt.Sprint(m.stack.top()))
	}
	return nil
}

// AddTransition appends t to the ordered transitions of state. Fire and Push
// transitions must name a target; Pop and Internal transitions must not.
func (m *Machine[S, K, C]) AddTransition(state S, t Transition[S, K, C]) error {
	if err := m.checkConfigurable("AddTransition"); err != nil {
		return err
	}
	if err := t.validate(state); err != nil {
		return err
	}
	cfg := m.table.ensure(state)
	cfg.Transitions = append(cfg.Transitions, t)
	return nil
}

// AddAlwaysTransition appends an eventless transition to state
func (m *Machine[S, K, C]) AddAlwaysTransition(state S, a AlwaysTransition[S, C]) error {
	if err := m.checkConfigurable("AddAlwaysTransition"); err != nil {
		return err
	}
	cfg := m.table.ensure(state)
	cfg.Always = append(cfg.Always, a)
	return nil
}

// AddEntryAction appends a hook run whenever state is entered
func (m *Machine[S, K, C]) AddEntryAction(state S, hook HookFunc[C]) error {
	if err := m.checkConfigurable("AddEntryAction"); err != nil {
		return err
	}
	if hook == nil {
		return NewConfigurationError(fmt.Sprint(state), "entry action is nil")
	}
	cfg := m.table.ensure(state)
	cfg.Entry = append(cfg.Entry, hook)
	return nil
}

// AddExitAction appends a hook run whenever state is exited
func (m *Machine[S, K, C]) AddExitAction(state S, hook HookFunc[C]) error {
	if err := m.checkConfigurable("AddExitAction"); err != nil {
		return err
	}
	if hook == nil {
		return NewConfigurationError(fmt.Sprint(state), "exit action is nil")
	}
	cfg := m.table.ensure(state)
	cfg.Exit = append(cfg.Exit, hook)
	return nil
}

// AddState registers a whole configuration for state, appending to anything
// already registered. Nothing is registered if any part is invalid.
func (m *Machine[S, K, C]) AddState(state S, cfg StateConfig[S, K, C]) error {
	if err := m.checkConfigurable("AddState"); err != nil {
		return err
	}
	for _, t := range cfg.Transitions {
		if err := t.validate(state); err != nil {
			return err
		}
	}
	for _, hook := range cfg.Entry {
		if hook == nil {
			return NewConfigurationError(fmt.Sprint(state), "entry action is nil")
		}
	}
	for _, hook := range cfg.Exit {
		if hook == nil {
			return NewConfigurationError(fmt.Sprint(state), "exit action is nil")
		}
	}

	existing := m.table.ensure(state)
	existing.Entry = append(existing.Entry, cfg.Entry...)
	existing.Exit = append(existing.Exit, cfg.Exit...)
	existing.Transitions = append(existing.Transitions, cfg.Transitions...)
	existing.Always = append(existing.Always, cfg.Always...)
	return nil
}

// Validate reports targets that are neither registered, initial nor final
func (m *Machine[S, K, C]) Validate() error {
	known := func(s S) bool {
		return m.table.has(s) || s == m.initial || m.IsFinal(s)
	}

	var errs []error
	for _, state := range m.table.order {
		cfg := m.table.get(state)
		for _, t := range cfg.Transitions {
			if target, ok := t.Target.State(); ok && !known(target) {
				errs = append(errs, NewConfigurationError(fmt.Sprint(state),
					fmt.Sprintf("%s on '%v' targets unknown state '%v'", t.Kind, t.Event, target)))
			}
		}
		for _, a := range cfg.Always {
			if target, ok := a.Target.State(); ok && !known(target) {
				errs = append(errs, NewConfigurationError(fmt.Sprint(state),
					fmt.Sprintf("always transition targets unknown state '%v'", target)))
			}
		}
	}
	return errors.Join(errs...)
}

// Start runs the initial state's entry actions and settles its eventless
// transitions. It fails if the machine is already running or has finished.
func (m *Machine[S, K, C]) Start() error {
	switch m.status {
	case StatusRunning:
		return NewAlreadyRunningError("Start")
	case StatusFinished:
		return NewFinishedError("Start", fmt.Sprint(m.stack.top()))
	}

	m.status = StatusRunning
	m.observers.NotifyMachineStarted(m.stack.top())

	if err := m.enter(m.stack.top()); err != nil {
		return m.fail(err)
	}
	if err := m.settle(); err != nil {
		return m.fail(err)
	}
	return nil
}

// Send delivers event to the current state. The first transition whose kind
// matches and whose guard passes is applied; an event nothing matches is
// discarded without error. States suspended beneath the top never see events.
func (m *Machine[S, K, C]) Send(event Event[K]) error {
	switch m.status {
	case StatusIdle:
		return NewNotStartedError("Send")
	case StatusFinished:
		return NewFinishedError("Send", fmt.Sprint(m.stack.top()))
	}

	current := m.stack.top()
	t, found, err := m.match(current, event)
	if err != nil {
		return m.fail(err)
	}
	if !found {
		m.observers.NotifyEventDiscarded(current, event)
		return nil
	}

	if t.Kind == Pop && m.stack.depth() < 2 {
		return m.fail(NewStackUnderflowError(fmt.Sprint(current), fmt.Sprint(event.Kind())))
	}

	if err := t.run(m.context, event.Payload()); err != nil {
		return m.fail(err)
	}
	if err := m.apply(t.Kind, t.Target, &event); err != nil {
		return m.fail(err)
	}
	if err := m.settle(); err != nil {
		return m.fail(err)
	}
	return nil
}

// Can reports whether event would be handled by the current state. Guards
// are evaluated, actions are not. It is false unless the machine is running.
func (m *Machine[S, K, C]) Can(event Event[K]) (bool, error) {
	if m.status != StatusRunning {
		return false, nil
	}
	t, found, err := m.match(m.stack.top(), event)
	if err != nil || !found {
		return false, err
	}
	if t.Kind == Pop && m.stack.depth() < 2 {
		return false, nil
	}
	return true, nil
}

// EventKinds returns the event kinds the current state declares transitions for
func (m *Machine[S, K, C]) EventKinds() []K {
	cfg := m.table.get(m.stack.top())
	if cfg == nil {
		return nil
	}
	return cfg.eventKinds()
}

func (m *Machine[S, K, C]) fail(err error) error {
	m.observers.NotifyError(err)
	return err
}

// match finds the first transition of state for event whose guard passes
func (m *Machine[S, K, C]) match(state S, event Event[K]) (Transition[S, K, C], bool, error) {
	cfg := m.table.get(state)
	if cfg == nil {
		return Transition[S, K, C]{}, false, nil
	}
	for _, t := range cfg.Transitions {
		if t.Event != event.Kind() {
			continue
		}
		ok, err := t.allows(m.context, event.Payload())
		if err != nil {
			return Transition[S, K, C]{}, false, err
		}
		if ok {
			return t, true, nil
		}
	}
	return Transition[S, K, C]{}, false, nil
}

// apply performs the stack operation for kind. event is nil for eventless transitions.
func (m *Machine[S, K, C]) apply(kind TransitionKind, target Target[S], event *Event[K]) error {
	from := m.stack.top()

	switch kind {
	case Fire:
		to, _ := target.State()
		if err := m.exit(from); err != nil {
			return err
		}
		m.stack.replace(to)
		m.observers.NotifyTransition(TransitionInfo[S, K]{From: from, To: to, Kind: Fire, Event: event, Depth: m.stack.depth()})
		return m.enter(to)

	case Push:
		to, _ := target.State()
		m.stack.push(to)
		m.observers.NotifyTransition(TransitionInfo[S, K]{From: from, To: to, Kind: Push, Event: event, Depth: m.stack.depth()})
		return m.enter(to)

	case Pop:
		if err := m.exit(from); err != nil {
			return err
		}
		if !m.stack.pop() {
			return NewStackUnderflowError(fmt.Sprint(from), eventName(event))
		}
		to := m.stack.top()
		m.observers.NotifyTransition(TransitionInfo[S, K]{From: from, To: to, Kind: Pop, Event: event, Depth: m.stack.depth()})
		m.observers.NotifyStateResume(to, m.stack.depth())
		return nil

	case Internal:
		m.observers.NotifyTransition(TransitionInfo[S, K]{From: from, To: from, Kind: Internal, Event: event, Depth: m.stack.depth()})
		return nil
	}

	return NewInvalidTransitionError(fmt.Sprint(from), eventName(event), kind, "unknown transition kind")
}

func (m *Machine[S, K, C]) enter(state S) error {
	if cfg := m.table.get(state); cfg != nil {
		if err := cfg.runEntry(m.context); err != nil {
			return err
		}
	}
	m.observers.NotifyStateEnter(state, m.stack.depth())
	return nil
}

func (m *Machine[S, K, C]) exit(state S) error {
	if cfg := m.table.get(state); cfg != nil {
		if err := cfg.runExit(m.context); err != nil {
			return err
		}
	}
	m.observers.NotifyStateExit(state, m.stack.depth())
	return nil
}

// settle runs the always-cascade on the current state until no targeted
// eventless transition fires or the machine finishes.
//
// Each scan stops at the first entry whose guard passes. A targetless entry
// runs its action and the cascade settles; a targeted one runs its action,
// replaces the current state and the scan restarts on the new one.
func (m *Machine[S, K, C]) settle() error {
	steps := 0
	path := []string{fmt.Sprint(m.stack.top())}

	for {
		current := m.stack.top()
		if m.stack.depth() == 1 && m.IsFinal(current) {
			m.status = StatusFinished
			m.observers.NotifyMachineFinished(current)
			return nil
		}

		cfg := m.table.get(current)
		if cfg == nil {
			return nil
		}

		a, found := cfg.firstAlways(m.context)
		if !found {
			return nil
		}
		if !a.Target.IsSet() {
			return a.run(m.context)
		}

		steps++
		if steps > m.maxCascadeSteps {
			return &CascadeError{Limit: m.maxCascadeSteps, Path: path}
		}
		if err := a.run(m.context); err != nil {
			return err
		}
		if err := m.apply(Fire, a.Target, nil); err != nil {
			return err
		}
		path = append(path, a.Target.String())
		if len(path) > cascadePathLen {
			path = path[len(path)-cascadePathLen:]
		}
	}
}

func eventName[K comparable](event *Event[K]) string {
	if event == nil {
		return "always"
	}
	return fmt.Sprint(event.Kind())
}
