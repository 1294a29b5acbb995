// Package definition loads state machine tables from YAML documents. States
// and event kinds are strings; guards and actions are referenced by name and
// resolved through a Registry.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/stackfsm"
)

// Definition is the document form of a machine
type Definition struct {
	ID              string                     `yaml:"id,omitempty"`
	Initial         string                     `yaml:"initial"`
	Final           []string                   `yaml:"final,omitempty"`
	MaxCascadeSteps int                        `yaml:"max_cascade_steps,omitempty"`
	States          map[string]StateDefinition `yaml:"states"`
}

// StateDefinition is the document form of a state configuration
type StateDefinition struct {
	Entry  []string               `yaml:"entry,omitempty"`
	Exit   []string               `yaml:"exit,omitempty"`
	On     []TransitionDefinition `yaml:"on,omitempty"`
	Always []AlwaysDefinition     `yaml:"always,omitempty"`
}

// TransitionDefinition is the document form of an event transition.
// Kind defaults to "fire".
type TransitionDefinition struct {
	Event  string `yaml:"event"`
	Kind   string `yaml:"kind,omitempty"`
	Target string `yaml:"target,omitempty"`
	Guard  string `yaml:"guard,omitempty"`
	Action string `yaml:"action,omitempty"`
}

// AlwaysDefinition is the document form of an eventless transition
type AlwaysDefinition struct {
	Target string `yaml:"target,omitempty"`
	Guard  string `yaml:"guard,omitempty"`
	Action string `yaml:"action,omitempty"`
}

// Parse decodes a YAML document, rejecting unknown fields
func Parse(data []byte) (*Definition, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML document from r, rejecting unknown fields
func Load(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Definition
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stackfsm.NewConfigurationError("definition", "empty document")
		}
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads and decodes the YAML document at path
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func (d *Definition) check() error {
	if d.Initial == "" {
		return stackfsm.NewConfigurationError("definition", "initial state is required")
	}
	for name, st := range d.States {
		if name == "" {
			return stackfsm.NewConfigurationError("definition", "state name must not be empty")
		}
		for i, t := range st.On {
			if t.Event == "" {
				return stackfsm.NewConfigurationError(name, fmt.Sprintf("transition %d has no event", i))
			}
		}
	}
	return nil
}

// StateNames returns the defined state names with the initial state first
// and the rest sorted, which is the order Apply registers them in
func (d *Definition) StateNames() []string {
	names := make([]string, 0, len(d.States))
	for name := range d.States {
		if name != d.Initial {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := d.States[d.Initial]; ok {
		names = append([]string{d.Initial}, names...)
	}
	return names
}

// Build creates a machine bound to ctx and registers the definition on it
func Build[C any](d *Definition, ctx C, reg *Registry[C]) (*stackfsm.Machine[string, string, C], error) {
	var opts []stackfsm.Option
	if d.ID != "" {
		opts = append(opts, stackfsm.WithID(d.ID))
	}
	if d.MaxCascadeSteps > 0 {
		opts = append(opts, stackfsm.WithMaxCascadeSteps(d.MaxCascadeSteps))
	}

	m := stackfsm.New[string, string](ctx, d.Initial, d.Final, opts...)
	if err := Apply(d, m, reg); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply registers every state of d on m, resolving names through reg
func Apply[C any](d *Definition, m *stackfsm.Machine[string, string, C], reg *Registry[C]) error {
	if reg == nil {
		reg = NewRegistry[C]()
	}
	for _, name := range d.StateNames() {
		cfg, err := resolve(name, d.States[name], reg)
		if err != nil {
			return err
		}
		if err := m.AddState(name, cfg); err != nil {
			return err
		}
	}
	return nil
}

func resolve[C any](name string, st StateDefinition, reg *Registry[C]) (stackfsm.StateConfig[string, string, C], error) {
	var cfg stackfsm.StateConfig[string, string, C]

	for _, hookName := range st.Entry {
		h, err := reg.hook(name, hookName)
		if err != nil {
			return cfg, err
		}
		cfg.Entry = append(cfg.Entry, h)
	}
	for _, hookName := range st.Exit {
		h, err := reg.hook(name, hookName)
		if err != nil {
			return cfg, err
		}
		cfg.Exit = append(cfg.Exit, h)
	}

	for _, td := range st.On {
		kind := stackfsm.Fire
		if td.Kind != "" {
			k, err := stackfsm.ParseTransitionKind(td.Kind)
			if err != nil {
				return cfg, stackfsm.NewConfigurationError(name, err.Error())
			}
			kind = k
		}
		guard, err := reg.guard(name, td.Guard)
		if err != nil {
			return cfg, err
		}
		action, err := reg.action(name, td.Action)
		if err != nil {
			return cfg, err
		}
		t := stackfsm.Transition[string, string, C]{
			Event:  td.Event,
			Kind:   kind,
			Guard:  guard,
			Action: action,
		}
		if td.Target != "" {
			t.Target = stackfsm.To(td.Target)
		}
		cfg.Transitions = append(cfg.Transitions, t)
	}

	for _, ad := range st.Always {
		cond, err := reg.condition(name, ad.Guard)
		if err != nil {
			return cfg, err
		}
		action, err := reg.optionalHook(name, ad.Action)
		if err != nil {
			return cfg, err
		}
		a := stackfsm.AlwaysTransition[string, C]{Guard: cond, Action: action}
		if ad.Target != "" {
			a.Target = stackfsm.To(ad.Target)
		}
		cfg.Always = append(cfg.Always, a)
	}

	return cfg, nil
}
