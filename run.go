package stackfsm

import (
	"context"
	"errors"
)

// ErrStop is returned by an EventSource to end Run early without an error
var ErrStop = errors.New("stackfsm: stop requested")

// EventSource supplies the next event for the current state. kinds lists the
// event kinds the current state declares transitions for.
type EventSource[S, K comparable] interface {
	Next(state S, kinds []K) (Event[K], error)
}

// EventSourceFunc adapts a function to EventSource
type EventSourceFunc[S, K comparable] func(state S, kinds []K) (Event[K], error)

// Next calls f
func (f EventSourceFunc[S, K]) Next(state S, kinds []K) (Event[K], error) {
	return f(state, kinds)
}

// Run starts m if needed and feeds it events from source until it finishes.
// Cancellation of ctx is observed between events; the machine is left paused
// in whatever state it had reached.
func Run[S, K comparable, C any](ctx context.Context, m *Machine[S, K, C], source EventSource[S, K]) error {
	if m.Status() == StatusIdle {
		if err := m.Start(); err != nil {
			return err
		}
	}

	for m.Running() {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, err := source.Next(m.CurrentState(), m.EventKinds())
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := m.Send(event); err != nil {
			return err
		}
	}
	return nil
}
