package stackfsm

import (
	"fmt"
	"reflect"
)

// TransitionInfo describes a transition that has just been applied
type TransitionInfo[S, K comparable] struct {
	From  S
	To    S
	Kind  TransitionKind
	Event *Event[K] // nil for eventless transitions
	Depth int       // stack depth after the transition
}

// Always reports whether the transition was taken without an event
func (i TransitionInfo[S, K]) Always() bool {
	return i.Event == nil
}

// Observer represents an entity that observes state machine lifecycle
type Observer[S, K comparable] interface {
	// OnTransition is called after a transition changed the stack
	OnTransition(info TransitionInfo[S, K])

	// OnStateEnter is called after a state's entry actions ran
	OnStateEnter(state S, depth int)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver[S, K comparable] interface {
	Observer[S, K]

	// OnStateExit is called after a state's exit actions ran
	OnStateExit(state S, depth int)

	// OnStateResume is called when a pop uncovers a suspended state
	OnStateResume(state S, depth int)

	// OnEventDiscarded is called when no transition of the current state matched
	OnEventDiscarded(state S, event Event[K])

	// OnError is called when Start or Send fails
	OnError(err error)

	// OnMachineStarted is called when the machine starts
	OnMachineStarted(state S)

	// OnMachineFinished is called when the machine reaches a final state
	OnMachineFinished(state S)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver[S, K comparable] struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver[S, K]) OnTransition(info TransitionInfo[S, K]) {}

// OnStateEnter implements the required Observer method
func (o *BaseObserver[S, K]) OnStateEnter(state S, depth int) {}

// OnStateExit implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnStateExit(state S, depth int) {}

// OnStateResume implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnStateResume(state S, depth int) {}

// OnEventDiscarded implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnEventDiscarded(state S, event Event[K]) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnError(err error) {}

// OnMachineStarted implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnMachineStarted(state S) {}

// OnMachineFinished implements the optional ExtendedObserver method
func (o *BaseObserver[S, K]) OnMachineFinished(state S) {}

// ObserverManager fans notifications out to registered observers. A panicking
// observer is reported through OnError and never interrupts the machine.
// ObserverManager fans notifications out to observers in registration order
type ObserverManager[S, K comparable] struct {
	observers []Observer[S, K]
}

// NewObserverManager creates a new observer manager
func NewObserverManager[S, K comparable]() *ObserverManager[S, K] {
	return &ObserverManager[S, K]{
		observers: make([]Observer[S, K], 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager[S, K]) AddObserver(observer Observer[S, K]) {
	if observer == nil {
		return
	}
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager. Observers are matched
// by identity, so only comparable observers (usually pointers) can be removed.
func (om *ObserverManager[S, K]) RemoveObserver(observer Observer[S, K]) {
	if observer == nil || !reflect.TypeOf(observer).Comparable() {
		return
	}
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager[S, K]) Len() int {
	return len(om.observers)
}

func (om *ObserverManager[S, K]) each(method string, fn func(Observer[S, K])) {
	if len(om.observers) == 0 {
		return
	}
	observers := make([]Observer[S, K], len(om.observers))
	copy(observers, om.observers)

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver[S, K]); ok {
						func() {
							defer func() { _ = recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

func (om *ObserverManager[S, K]) eachExtended(method string, fn func(ExtendedObserver[S, K])) {
	om.each(method, func(observer Observer[S, K]) {
		if extObs, ok := observer.(ExtendedObserver[S, K]); ok {
			fn(extObs)
		}
	})
}

// NotifyTransition notifies all observers of a transition
func (om *ObserverManager[S, K]) NotifyTransition(info TransitionInfo[S, K]) {
	om.each("OnTransition", func(o Observer[S, K]) { o.OnTransition(info) })
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager[S, K]) NotifyStateEnter(state S, depth int) {
	om.each("OnStateEnter", func(o Observer[S, K]) { o.OnStateEnter(state, depth) })
}

// NotifyStateExit notifies all observers of state exit
func (om *ObserverManager[S, K]) NotifyStateExit(state S, depth int) {
	om.eachExtended("OnStateExit", func(o ExtendedObserver[S, K]) { o.OnStateExit(state, depth) })
}

// NotifyStateResume notifies all observers that a suspended state resumed
func (om *ObserverManager[S, K]) NotifyStateResume(state S, depth int) {
	om.eachExtended("OnStateResume", func(o ExtendedObserver[S, K]) { o.OnStateResume(state, depth) })
}

// NotifyEventDiscarded notifies all observers of an unmatched event
func (om *ObserverManager[S, K]) NotifyEventDiscarded(state S, event Event[K]) {
	om.eachExtended("OnEventDiscarded", func(o ExtendedObserver[S, K]) { o.OnEventDiscarded(state, event) })
}

// NotifyError notifies all observers of errors. Panics raised here are dropped.
func (om *ObserverManager[S, K]) NotifyError(err error) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver[S, K]); ok {
			func() {
				defer func() { _ = recover() }()
				extObs.OnError(err)
			}()
		}
	}
}

// NotifyMachineStarted notifies all observers that the machine has started
func (om *ObserverManager[S, K]) NotifyMachineStarted(state S) {
	om.eachExtended("OnMachineStarted", func(o ExtendedObserver[S, K]) { o.OnMachineStarted(state) })
}

// NotifyMachineFinished notifies all observers that the machine reached a final state
func (om *ObserverManager[S, K]) NotifyMachineFinished(state S) {
	om.eachExtended("OnMachineFinished", func(o ExtendedObserver[S, K]) { o.OnMachineFinished(state) })
}
