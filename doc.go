// Package stackfsm provides a generic, stack-based state machine for
// multi-phase, turn-based processes driven by external decisions.
//
// A state can be replaced (Fire), suspended beneath a new state (Push) or
// discarded to resume the state beneath it (Pop). Each state carries ordered
// entry and exit actions, event transitions and eventless "always"
// transitions that are settled every time the state becomes current.
//
// The machine advances only inside Start and Send. Both run to completion,
// including every hook and the always-cascade, before returning.
//
//	m := stackfsm.New[Phase, Kind](ctx, TurnStart, []Phase{GameOver})
//	_ = m.AddTransition(TurnStart, stackfsm.Transition[Phase, Kind, *Game]{
//		Event:  Roll,
//		Kind:   stackfsm.Fire,
//		Target: stackfsm.To(ComputeScore),
//		Action: stackfsm.Action(addRoll),
//	})
//	_ = m.Start()
//	_ = m.Send(stackfsm.NewEvent(Roll, 3))
package stackfsm
