package stackfsm

// StateConfig is the declarative table entry for one state. Order within each
// list is significant: hooks run in declaration order and the first matching
// transition wins.
type StateConfig[S, K comparable, C any] struct {
	Entry       []HookFunc[C]
	Exit        []HookFunc[C]
	Transitions []Transition[S, K, C]
	Always      []AlwaysTransition[S, C]
}

func (c *StateConfig[S, K, C]) runEntry(ctx C) error {
	for _, hook := range c.Entry {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *StateConfig[S, K, C]) runExit(ctx C) error {
	for _, hook := range c.Exit {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return nil
}

// firstAlways returns the first eventless transition whose guard passes
func (c *StateConfig[S, K, C]) firstAlways(ctx C) (AlwaysTransition[S, C], bool) {
	for _, a := range c.Always {
		if a.allows(ctx) {
			return a, true
		}
	}
	return AlwaysTransition[S, C]{}, false
}

// eventKinds returns the distinct event kinds in declaration order
func (c *StateConfig[S, K, C]) eventKinds() []K {
	seen := make(map[K]bool, len(c.Transitions))
	kinds := make([]K, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		if !seen[t.Event] {
			seen[t.Event] = true
			kinds = append(kinds, t.Event)
		}
	}
	return kinds
}

// table maps each registered state to its configuration, remembering
// registration order for deterministic iteration
type table[S, K comparable, C any] struct {
	configs map[S]*StateConfig[S, K, C]
	order   []S
}

func newTable[S, K comparable, C any]() *table[S, K, C] {
	return &table[S, K, C]{
		configs: make(map[S]*StateConfig[S, K, C]),
	}
}

// get returns the config for state, nil if the state has none
func (t *table[S, K, C]) get(state S) *StateConfig[S, K, C] {
	return t.configs[state]
}

// ensure returns the config for state, creating an empty one when missing
func (t *table[S, K, C]) ensure(state S) *StateConfig[S, K, C] {
	cfg, ok := t.configs[state]
	if !ok {
		cfg = &StateConfig[S, K, C]{}
		t.configs[state] = cfg
		t.order = append(t.order, state)
	}
	return cfg
}

func (t *table[S, K, C]) has(state S) bool {
	_, ok := t.configs[state]
	return ok
}
