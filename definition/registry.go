package definition

import "github.com/anggasct/stackfsm"

// Registry binds the names used in a definition to Go functions
type Registry[C any] struct {
	guards     map[string]stackfsm.GuardFunc[C]
	actions    map[string]stackfsm.ActionFunc[C]
	hooks      map[string]stackfsm.HookFunc[C]
	conditions map[string]stackfsm.ConditionFunc[C]
}

// NewRegistry creates an empty registry
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		guards:     make(map[string]stackfsm.GuardFunc[C]),
		actions:    make(map[string]stackfsm.ActionFunc[C]),
		hooks:      make(map[string]stackfsm.HookFunc[C]),
		conditions: make(map[string]stackfsm.ConditionFunc[C]),
	}
}

// RegisterGuard names a transition guard
func (r *Registry[C]) RegisterGuard(name string, guard stackfsm.GuardFunc[C]) *Registry[C] {
	r.guards[name] = guard
	return r
}

// RegisterAction names a transition action
func (r *Registry[C]) RegisterAction(name string, action stackfsm.ActionFunc[C]) *Registry[C] {
	r.actions[name] = action
	return r
}

// RegisterHook names an entry action, exit action or always action
func (r *Registry[C]) RegisterHook(name string, hook stackfsm.HookFunc[C]) *Registry[C] {
	r.hooks[name] = hook
	return r
}

// RegisterCondition names an always-transition guard
func (r *Registry[C]) RegisterCondition(name string, cond stackfsm.ConditionFunc[C]) *Registry[C] {
	r.conditions[name] = cond
	return r
}

func (r *Registry[C]) guard(state, name string) (stackfsm.GuardFunc[C], error) {
	if name == "" {
		return nil, nil
	}
	g, ok := r.guards[name]
	if !ok {
		return nil, unknownName(state, "guard", name)
	}
	return g, nil
}

func (r *Registry[C]) action(state, name string) (stackfsm.ActionFunc[C], error) {
	if name == "" {
		return nil, nil
	}
	a, ok := r.actions[name]
	if !ok {
		return nil, unknownName(state, "action", name)
	}
	return a, nil
}

func (r *Registry[C]) hook(state, name string) (stackfsm.HookFunc[C], error) {
	h, ok := r.hooks[name]
	if !ok {
		return nil, unknownName(state, "hook", name)
	}
	return h, nil
}

func (r *Registry[C]) optionalHook(state, name string) (stackfsm.HookFunc[C], error) {
	if name == "" {
		return nil, nil
	}
	return r.hook(state, name)
}

func (r *Registry[C]) condition(state, name string) (stackfsm.ConditionFunc[C], error) {
	if name == "" {
		return nil, nil
	}
	c, ok := r.conditions[name]
	if !ok {
		return nil, unknownName(state, "condition", name)
	}
	return c, nil
}

func unknownName(state, what, name string) error {
	return stackfsm.NewConfigurationError(state, "unknown "+what+" '"+name+"'")
}
