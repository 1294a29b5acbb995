package stackfsm

// stack holds the active states; the last element is the current state.
// It is never empty once constructed.
type stack[S comparable] struct {
	frames []S
}

func newStack[S comparable](initial S) *stack[S] {
	return &stack[S]{frames: []S{initial}}
}

func (s *stack[S]) top() S {
	return s.frames[len(s.frames)-1]
}

func (s *stack[S]) depth() int {
	return len(s.frames)
}

// replace swaps the top frame for state
func (s *stack[S]) replace(state S) {
	s.frames[len(s.frames)-1] = state
}

func (s *stack[S]) push(state S) {
	s.frames = append(s.frames, state)
}

// pop removes the top frame and reports false when it is the only one
func (s *stack[S]) pop() bool {
	if len(s.frames) < 2 {
		return false
	}
	var zero S
	s.frames[len(s.frames)-1] = zero
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

// snapshot returns a copy, bottom first
func (s *stack[S]) snapshot() []S {
	out := make([]S, len(s.frames))
	copy(out, s.frames)
	return out
}
