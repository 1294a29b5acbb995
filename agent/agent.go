// Package agent provides decision makers that choose among a finite set of
// options at a machine's decision points. Drivers wrap the chosen option into
// an event and send it to the machine.
package agent

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ErrNoOptions is returned when asked to choose from an empty option list
var ErrNoOptions = errors.New("agent: no options to choose from")

// ErrScriptExhausted is returned by ScriptedAgent once every reply was used
var ErrScriptExhausted = errors.New("agent: script exhausted")

// Agent chooses one of options for the decision named by prompt
type Agent[T any] interface {
	Ask(prompt string, options []T) (T, error)
}

// Agree asks a yes/no question
func Agree(a Agent[bool], prompt string) (bool, error) {
	return a.Ask(prompt, []bool{true, false})
}

// RandomAgent picks uniformly at random
type RandomAgent[T any] struct {
	rng *rand.Rand
}

// NewRandomAgent creates a random agent. A nil source uses a randomly seeded PCG.
func NewRandomAgent[T any](src rand.Source) *RandomAgent[T] {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomAgent[T]{rng: rand.New(src)}
}

// Ask returns a random option
func (a *RandomAgent[T]) Ask(prompt string, options []T) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, ErrNoOptions
	}
	return options[a.rng.IntN(len(options))], nil
}

// ScriptedAgent replays a fixed list of option indexes, one per question
type ScriptedAgent[T any] struct {
	replies []int
	next    int
	asked   []string
}

// NewScriptedAgent creates an agent answering with the given option indexes in order
func NewScriptedAgent[T any](replies ...int) *ScriptedAgent[T] {
	return &ScriptedAgent[T]{replies: replies}
}

// Ask returns the option at the next scripted index
func (a *ScriptedAgent[T]) Ask(prompt string, options []T) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, ErrNoOptions
	}
	if a.next >= len(a.replies) {
		return zero, ErrScriptExhausted
	}
	idx := a.replies[a.next]
	a.next++
	a.asked = append(a.asked, prompt)
	if idx < 0 || idx >= len(options) {
		return zero, fmt.Errorf("agent: scripted reply %d out of range for %d options", idx, len(options))
	}
	return options[idx], nil
}

// Asked returns the prompts answered so far
func (a *ScriptedAgent[T]) Asked() []string {
	out := make([]string, len(a.asked))
	copy(out, a.asked)
	return out
}

// PromptAgent shows a numbered menu on out and reads the chosen number from in.
// Invalid input is reported and the question repeated.
type PromptAgent[T any] struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptAgent creates an interactive agent
func NewPromptAgent[T any](in io.Reader, out io.Writer) *PromptAgent[T] {
	return &PromptAgent[T]{in: bufio.NewScanner(in), out: out}
}

// Ask prints the options and waits for a valid choice
func (a *PromptAgent[T]) Ask(prompt string, options []T) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, ErrNoOptions
	}

	fmt.Fprintln(a.out, prompt)
	for i, option := range options {
		fmt.Fprintf(a.out, "%d: %v\n", i, option)
	}

	for {
		fmt.Fprint(a.out, "> ")
		if !a.in.Scan() {
			if err := a.in.Err(); err != nil {
				return zero, err
			}
			return zero, io.EOF
		}
		choice, err := strconv.Atoi(strings.TrimSpace(a.in.Text()))
		if err == nil && choice >= 0 && choice < len(options) {
			return options[choice], nil
		}
		fmt.Fprintln(a.out, "Invalid")
	}
}
