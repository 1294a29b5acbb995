package agent

import (
	"bytes"
	"io"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAgent(t *testing.T) {
	options := []string{"roll", "pause", "quit"}

	a := NewRandomAgent[string](rand.NewPCG(1, 2))
	b := NewRandomAgent[string](rand.NewPCG(1, 2))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		got, err := a.Ask("move", options)
		require.NoError(t, err)
		assert.Contains(t, options, got)
		seen[got] = true

		same, err := b.Ask("move", options)
		require.NoError(t, err)
		assert.Equal(t, got, same, "equal seeds choose the same options")
	}
	assert.Len(t, seen, 3)

	_, err := NewRandomAgent[int](nil).Ask("empty", nil)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestScriptedAgent(t *testing.T) {
	a := NewScriptedAgent[int](2, 0, 5)
	options := []int{10, 20, 30}

	got, err := a.Ask("first", options)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	got, err = a.Ask("second", options)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	_, err = a.Ask("third", options)
	assert.ErrorContains(t, err, "out of range")

	_, err = a.Ask("fourth", options)
	assert.ErrorIs(t, err, ErrScriptExhausted)

	assert.Equal(t, []string{"first", "second", "third"}, a.Asked())
}

func TestAgree(t *testing.T) {
	yes, err := Agree(NewScriptedAgent[bool](0), "Continue?")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := Agree(NewScriptedAgent[bool](1), "Continue?")
	require.NoError(t, err)
	assert.False(t, no)
}

func TestPromptAgent(t *testing.T) {
	var out bytes.Buffer
	a := NewPromptAgent[string](strings.NewReader("x\n7\n 1 \n"), &out)

	got, err := a.Ask("Your move", []string{"roll", "pause"})
	require.NoError(t, err)
	assert.Equal(t, "pause", got)

	assert.Equal(t, "Your move\n0: roll\n1: pause\n> Invalid\n> Invalid\n> ", out.String())

	_, err = a.Ask("Again", []string{"roll"})
	assert.ErrorIs(t, err, io.EOF)

	_, err = a.Ask("None", nil)
	assert.ErrorIs(t, err, ErrNoOptions)
}
