package stackfsm

// MachineBuilder provides a fluent interface over the registration methods of
// Machine. Registration errors are remembered and the first one is returned
// by Build, which also validates the table.
type MachineBuilder[S, K comparable, C any] struct {
	machine *Machine[S, K, C]
	err     error
	pending func() error
}

// StateBuilder configures a single state
type StateBuilder[S, K comparable, C any] struct {
	mb *MachineBuilder[S, K, C]
	id S
}

// TransitionBuilder configures an event transition out of a state. The
// transition is registered when the builder moves on.
type TransitionBuilder[S, K comparable, C any] struct {
	sb *StateBuilder[S, K, C]
	t  Transition[S, K, C]
}

// AlwaysBuilder configures an eventless transition out of a state
type AlwaysBuilder[S, K comparable, C any] struct {
	sb *StateBuilder[S, K, C]
	a  AlwaysTransition[S, C]
}

// NewMachine creates a new machine builder. Arguments are those of New.
func NewMachine[S, K comparable, C any](ctx C, initial S, finals []S, opts ...Option) *MachineBuilder[S, K, C] {
	return &MachineBuilder[S, K, C]{
		machine: New[S, K](ctx, initial, finals, opts...),
	}
}

func (mb *MachineBuilder[S, K, C]) record(err error) {
	if err != nil && mb.err == nil {
		mb.err = err
	}
}

// saveCurrentTransition registers the transition under construction, if any
func (mb *MachineBuilder[S, K, C]) saveCurrentTransition() {
	if mb.pending != nil {
		save := mb.pending
		mb.pending = nil
		mb.record(save())
	}
}

// State starts or continues configuring state id
func (mb *MachineBuilder[S, K, C]) State(id S) *StateBuilder[S, K, C] {
	mb.saveCurrentTransition()
	return &StateBuilder[S, K, C]{mb: mb, id: id}
}

// Observe attaches an observer to the machine being built
func (mb *MachineBuilder[S, K, C]) Observe(observer Observer[S, K]) *MachineBuilder[S, K, C] {
	mb.machine.AddObserver(observer)
	return mb
}

// Build returns the configured machine, or the first registration or validation error
func (mb *MachineBuilder[S, K, C]) Build() (*Machine[S, K, C], error) {
	mb.saveCurrentTransition()
	if mb.err != nil {
		return nil, mb.err
	}
	if err := mb.machine.Validate(); err != nil {
		return nil, err
	}
	return mb.machine, nil
}

// OnEntry appends an entry action
func (sb *StateBuilder[S, K, C]) OnEntry(hook HookFunc[C]) *StateBuilder[S, K, C] {
	sb.mb.saveCurrentTransition()
	sb.mb.record(sb.mb.machine.AddEntryAction(sb.id, hook))
	return sb
}

// OnExit appends an exit action
func (sb *StateBuilder[S, K, C]) OnExit(hook HookFunc[C]) *StateBuilder[S, K, C] {
	sb.mb.saveCurrentTransition()
	sb.mb.record(sb.mb.machine.AddExitAction(sb.id, hook))
	return sb
}

// On starts a transition triggered by event kind
func (sb *StateBuilder[S, K, C]) On(event K) *TransitionBuilder[S, K, C] {
	sb.mb.saveCurrentTransition()
	tb := &TransitionBuilder[S, K, C]{sb: sb, t: Transition[S, K, C]{Event: event}}
	sb.mb.pending = func() error {
		return sb.mb.machine.AddTransition(sb.id, tb.t)
	}
	return tb
}

// Always starts an eventless transition. Pass a zero Target for a
// bookkeeping-only entry.
func (sb *StateBuilder[S, K, C]) Always(target Target[S]) *AlwaysBuilder[S, K, C] {
	sb.mb.saveCurrentTransition()
	ab := &AlwaysBuilder[S, K, C]{sb: sb, a: AlwaysTransition[S, C]{Target: target}}
	sb.mb.pending = func() error {
		return sb.mb.machine.AddAlwaysTransition(sb.id, ab.a)
	}
	return ab
}

// State moves on to another state
func (sb *StateBuilder[S, K, C]) State(id S) *StateBuilder[S, K, C] {
	return sb.mb.State(id)
}

// Build finishes the machine
func (sb *StateBuilder[S, K, C]) Build() (*Machine[S, K, C], error) {
	return sb.mb.Build()
}

// Fire replaces the current state with target
func (tb *TransitionBuilder[S, K, C]) Fire(target S) *TransitionBuilder[S, K, C] {
	tb.t.Kind = Fire
	tb.t.Target = To(target)
	return tb
}

// Push suspends the current state beneath target
func (tb *TransitionBuilder[S, K, C]) Push(target S) *TransitionBuilder[S, K, C] {
	tb.t.Kind = Push
	tb.t.Target = To(target)
	return tb
}

// Pop resumes the suspended state beneath
func (tb *TransitionBuilder[S, K, C]) Pop() *TransitionBuilder[S, K, C] {
	tb.t.Kind = Pop
	tb.t.Target = Target[S]{}
	return tb
}

// Internal runs the action without leaving the current state
func (tb *TransitionBuilder[S, K, C]) Internal() *TransitionBuilder[S, K, C] {
	tb.t.Kind = Internal
	tb.t.Target = Target[S]{}
	return tb
}

// Guard sets the guard
func (tb *TransitionBuilder[S, K, C]) Guard(guard GuardFunc[C]) *TransitionBuilder[S, K, C] {
	tb.t.Guard = guard
	return tb
}

// Action sets the action
func (tb *TransitionBuilder[S, K, C]) Action(action ActionFunc[C]) *TransitionBuilder[S, K, C] {
	tb.t.Action = action
	return tb
}

// On starts another transition from the same state
func (tb *TransitionBuilder[S, K, C]) On(event K) *TransitionBuilder[S, K, C] {
	return tb.sb.On(event)
}

// Always starts an eventless transition from the same state
func (tb *TransitionBuilder[S, K, C]) Always(target Target[S]) *AlwaysBuilder[S, K, C] {
	return tb.sb.Always(target)
}

// State moves on to another state
func (tb *TransitionBuilder[S, K, C]) State(id S) *StateBuilder[S, K, C] {
	return tb.sb.mb.State(id)
}

// Build finishes the machine
func (tb *TransitionBuilder[S, K, C]) Build() (*Machine[S, K, C], error) {
	return tb.sb.mb.Build()
}

// When sets the condition
func (ab *AlwaysBuilder[S, K, C]) When(cond ConditionFunc[C]) *AlwaysBuilder[S, K, C] {
	ab.a.Guard = cond
	return ab
}

// Do sets the action
func (ab *AlwaysBuilder[S, K, C]) Do(action HookFunc[C]) *AlwaysBuilder[S, K, C] {
	ab.a.Action = action
	return ab
}

// On starts an event transition from the same state
func (ab *AlwaysBuilder[S, K, C]) On(event K) *TransitionBuilder[S, K, C] {
	return ab.sb.On(event)
}

// Always starts another eventless transition from the same state
func (ab *AlwaysBuilder[S, K, C]) Always(target Target[S]) *AlwaysBuilder[S, K, C] {
	return ab.sb.Always(target)
}

// State moves on to another state
func (ab *AlwaysBuilder[S, K, C]) State(id S) *StateBuilder[S, K, C] {
	return ab.sb.mb.State(id)
}

// Build finishes the machine
func (ab *AlwaysBuilder[S, K, C]) Build() (*Machine[S, K, C], error) {
	return ab.sb.mb.Build()
}
