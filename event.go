package stackfsm

import (
	"fmt"

	"github.com/google/uuid"
)

// Event is an immutable stimulus delivered to a machine. Only Kind takes part
// in transition selection; the payload is handed to guards and actions.
type Event[K comparable] struct {
	id      string
	kind    K
	payload any
}

// NewEvent creates an event of the given kind carrying payload
func NewEvent[K comparable](kind K, payload any) Event[K] {
	return Event[K]{
		id:      uuid.New().String(),
		kind:    kind,
		payload: payload,
	}
}

// NewSignal creates an event without a payload
func NewSignal[K comparable](kind K) Event[K] {
	return NewEvent(kind, nil)
}

// ID returns the unique event identifier
func (e Event[K]) ID() string {
	return e.id
}

// Kind returns the event kind
func (e Event[K]) Kind() K {
	return e.kind
}

// Payload returns the event payload, nil if none was given
func (e Event[K]) Payload() any {
	return e.payload
}

// HasPayload reports whether the event carries a payload
func (e Event[K]) HasPayload() bool {
	return e.payload != nil
}

func (e Event[K]) String() string {
	if e.payload == nil {
		return fmt.Sprintf("%v", e.kind)
	}
	return fmt.Sprintf("%v(%v)", e.kind, e.payload)
}
