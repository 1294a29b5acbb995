package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/stackfsm"
)

// popNode is the pseudo-node pop edges point at
const popNode = "(pop)"

// TableSource is the read-only view of a transition table. *stackfsm.Machine implements it.
type TableSource[S, K comparable, C any] interface {
	InitialState() S
	FinalStates() []S
	States() []S
	Transitions(state S) []stackfsm.Transition[S, K, C]
	AlwaysTransitions(state S) []stackfsm.AlwaysTransition[S, C]
}

// DOTGenerator generates Graphviz DOT format representations of state machines
type DOTGenerator[S, K comparable, C any] struct {
	source  TableSource[S, K, C]
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	ShowAlways          bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	FireStyle           string
	PushStyle           string
	PopStyle            string
	InternalStyle       string
	AlwaysStyle         string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		ShowAlways:          true,
		RankDirection:       "TB",
		NodeShape:           "box",
		FireStyle:           "solid",
		PushStyle:           "dashed",
		PopStyle:            "dotted",
		InternalStyle:       "solid",
		AlwaysStyle:         "bold",
	}
}

// NewDOTGenerator creates a new DOT generator for the table of m
func NewDOTGenerator[S, K comparable, C any](m *stackfsm.Machine[S, K, C], options ...DOTOptions) *DOTGenerator[S, K, C] {
	return NewTableDOTGenerator[S, K, C](m, options...)
}

// NewTableDOTGenerator creates a new DOT generator for any table source
func NewTableDOTGenerator[S, K comparable, C any](source TableSource[S, K, C], options ...DOTOptions) *DOTGenerator[S, K, C] {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator[S, K, C]{
		source:  source,
		options: opts,
	}
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator[S, K, C]) Generate() (string, error) {
	if g.source == nil {
		return "", fmt.Errorf("no table to render")
	}

	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// allStates lists registered states first, then initial, final and target
// states that have no configuration, without duplicates
func (g *DOTGenerator[S, K, C]) allStates() []S {
	seen := make(map[S]bool)
	var states []S
	add := func(s S) {
		if !seen[s] {
			seen[s] = true
			states = append(states, s)
		}
	}

	registered := g.source.States()
	add(g.source.InitialState())
	for _, s := range registered {
		add(s)
	}
	for _, s := range g.source.FinalStates() {
		add(s)
	}
	for _, s := range registered {
		for _, t := range g.source.Transitions(s) {
			if target, ok := t.Target.State(); ok {
				add(target)
			}
		}
		for _, a := range g.source.AlwaysTransitions(s) {
			if target, ok := a.Target.State(); ok {
				add(target)
			}
		}
	}
	return states
}

func (g *DOTGenerator[S, K, C]) generateStates(dot *strings.Builder) {
	initial := g.source.InitialState()
	finals := make(map[S]bool)
	for _, s := range g.source.FinalStates() {
		finals[s] = true
	}

	dot.WriteString("  // States\n")

	hasPop := false
	for _, state := range g.allStates() {
		shape := g.options.NodeShape
		fillColor := "lightblue"
		label := fmt.Sprint(state)

		if state == initial {
			fillColor = "lightgreen"
			label += "\\n(initial)"
		}
		if finals[state] {
			shape = "doublecircle"
			fillColor = "lightcoral"
		}

		dot.WriteString(fmt.Sprintf("  %s [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
			quote(state), shape, fillColor, escape(label)))

		for _, t := range g.source.Transitions(state) {
			if t.Kind == stackfsm.Pop {
				hasPop = true
			}
		}
	}

	if hasPop {
		dot.WriteString(fmt.Sprintf("  %q [shape=circle style=\"filled\" fillcolor=lightyellow label=\"pop\"];\n", popNode))
	}
	dot.WriteString("\n")
}

func (g *DOTGenerator[S, K, C]) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Transitions\n")

	for _, state := range g.source.States() {
		for _, t := range g.source.Transitions(state) {
			label := escape(fmt.Sprint(t.Event))
			if g.options.ShowGuardConditions && t.Guard != nil {
				label += " [guard]"
			}
			if g.options.ShowActions && t.Action != nil {
				label += " / action"
			}

			to := fmt.Sprintf("%q", popNode)
			style := g.options.PopStyle
			switch t.Kind {
			case stackfsm.Fire:
				target, _ := t.Target.State()
				to, style = quote(target), g.options.FireStyle
			case stackfsm.Push:
				target, _ := t.Target.State()
				to, style = quote(target), g.options.PushStyle
				label += " (push)"
			case stackfsm.Internal:
				to, style = quote(state), g.options.InternalStyle
				label += " (internal)"
			}

			dot.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\" style=%s];\n", quote(state), to, label, style))
		}

		if !g.options.ShowAlways {
			continue
		}
		for _, a := range g.source.AlwaysTransitions(state) {
			target, ok := a.Target.State()
			if !ok {
				continue
			}
			label := "always"
			if g.options.ShowGuardConditions && a.Guard != nil {
				label += " [guard]"
			}
			dot.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\" style=%s];\n",
				quote(state), quote(target), label, g.options.AlwaysStyle))
		}
	}
}

func quote(state any) string {
	return fmt.Sprintf("%q", fmt.Sprint(state))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator[S, K, C]) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG renders the DOT representation through the Graphviz dot command
func (g *DOTGenerator[S, K, C]) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}
