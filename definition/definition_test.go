package definition_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/stackfsm"
	"github.com/anggasct/stackfsm/definition"
)

const diceYAML = `
id: dice
initial: TURN_START
final: [GAME_OVER]
max_cascade_steps: 50
states:
  TURN_START:
    entry: [next_turn]
    on:
      - event: Roll
        target: COMPUTE_SCORE
        action: add_roll
      - event: Pause
        kind: push
        target: PAUSED
  COMPUTE_SCORE:
    always:
      - target: GAME_OVER
        guard: over_twenty
    on:
      - event: Next
        target: TURN_START
  PAUSED:
    exit: [count_pause]
    on:
      - event: Pause
        kind: pop
`

type dice struct {
	turn   int
	score  int
	pauses int
}

func diceRegistry() *definition.Registry[*dice] {
	return definition.NewRegistry[*dice]().
		RegisterHook("next_turn", func(d *dice) error { d.turn++; return nil }).
		RegisterHook("count_pause", func(d *dice) error { d.pauses++; return nil }).
		RegisterAction("add_roll", stackfsm.Action(func(d *dice, n int) error { d.score += n; return nil })).
		RegisterCondition("over_twenty", func(d *dice) bool { return d.score > 20 })
}

func TestParse(t *testing.T) {
	d, err := definition.Parse([]byte(diceYAML))
	require.NoError(t, err)

	assert.Equal(t, "dice", d.ID)
	assert.Equal(t, "TURN_START", d.Initial)
	assert.Equal(t, []string{"GAME_OVER"}, d.Final)
	assert.Equal(t, 50, d.MaxCascadeSteps)
	assert.Equal(t, []string{"TURN_START", "COMPUTE_SCORE", "PAUSED"}, d.StateNames())

	turn := d.States["TURN_START"]
	require.Len(t, turn.On, 2)
	assert.Equal(t, "", turn.On[0].Kind)
	assert.Equal(t, "push", turn.On[1].Kind)
	assert.Equal(t, []string{"next_turn"}, turn.Entry)
}

func TestBuild_PlaysDiceGame(t *testing.T) {
	d, err := definition.Parse([]byte(diceYAML))
	require.NoError(t, err)

	ctx := &dice{}
	m, err := definition.Build(d, ctx, diceRegistry())
	require.NoError(t, err)
	assert.Equal(t, "dice", m.ID())

	require.NoError(t, m.Start())
	require.NoError(t, m.Send(stackfsm.NewSignal("Pause")))
	assert.Equal(t, []string{"TURN_START", "PAUSED"}, m.Stack())
	require.NoError(t, m.Send(stackfsm.NewSignal("Pause")))

	for m.Running() {
		require.NoError(t, m.Send(stackfsm.NewEvent("Roll", 3)))
		if m.Running() {
			require.NoError(t, m.Send(stackfsm.NewSignal("Next")))
		}
	}

	assert.Equal(t, "GAME_OVER", m.CurrentState())
	assert.Equal(t, 21, ctx.score)
	assert.Equal(t, 7, ctx.turn)
	assert.Equal(t, 1, ctx.pauses)
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown hook",
			yaml:    "initial: A\nstates:\n  A:\n    entry: [missing]\n",
			wantErr: "unknown hook 'missing'",
		},
		{
			name:    "unknown guard",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: go\n        target: A\n        guard: nope\n",
			wantErr: "unknown guard 'nope'",
		},
		{
			name:    "unknown condition",
			yaml:    "initial: A\nstates:\n  A:\n    always:\n      - target: A\n        guard: nope\n",
			wantErr: "unknown condition 'nope'",
		},
		{
			name:    "bad kind",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: go\n        kind: jump\n        target: A\n",
			wantErr: `unknown transition kind "jump"`,
		},
		{
			name:    "pop with target",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: back\n        kind: pop\n        target: A\n",
			wantErr: "pop transition must not define a target",
		},
		{
			name:    "internal with target",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: peek\n        kind: internal\n        target: A\n",
			wantErr: "internal transition must not define a target",
		},
		{
			name:    "fire without target",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: go\n",
			wantErr: "fire transition must define a target state",
		},
		{
			name:    "unknown target",
			yaml:    "initial: A\nstates:\n  A:\n    on:\n      - event: go\n        target: B\n",
			wantErr: "targets unknown state 'B'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := definition.Parse([]byte(tc.yaml))
			require.NoError(t, err)

			_, err = definition.Build(d, &dice{}, diceRegistry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

const draftYAML = `
initial: DRAW
final: [ACTION]
states:
  DRAW:
    entry: [deal]
    always:
      - target: ACTION
        guard: hand_ok
    on:
      - event: Discard
        kind: internal
        guard: holds_card
        action: discard
`

type hand struct {
	deals int
	cards []string
}

func TestBuild_InternalDiscard(t *testing.T) {
	d, err := definition.Parse([]byte(draftYAML))
	require.NoError(t, err)

	reg := definition.NewRegistry[*hand]().
		RegisterHook("deal", func(h *hand) error {
			h.deals++
			h.cards = append(h.cards, "strider", "witch-king")
			return nil
		}).
		RegisterCondition("hand_ok", func(h *hand) bool { return len(h.cards) < 2 }).
		RegisterGuard("holds_card", stackfsm.Guard(func(h *hand, card string) bool {
			return len(h.cards) > 0 && h.cards[0] == card
		})).
		RegisterAction("discard", stackfsm.Action(func(h *hand, card string) error {
			h.cards = h.cards[1:]
			return nil
		}))

	ctx := &hand{}
	m, err := definition.Build(d, ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, stackfsm.Internal, m.Transitions("DRAW")[0].Kind)

	require.NoError(t, m.Start())
	require.NoError(t, m.Send(stackfsm.NewEvent("Discard", "witch-king")))
	assert.Equal(t, "DRAW", m.CurrentState())

	require.NoError(t, m.Send(stackfsm.NewEvent("Discard", "strider")))
	assert.Equal(t, "ACTION", m.CurrentState())
	assert.Equal(t, 1, ctx.deals)
	assert.Equal(t, []string{"witch-king"}, ctx.cards)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"missing initial", "states:\n  A: {}\n"},
		{"missing event", "initial: A\nstates:\n  A:\n    on:\n      - target: A\n"},
		{"unknown field", "initial: A\ntransitions: []\n"},
		{"malformed", "initial: [A\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := definition.Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApply_ExistingMachine(t *testing.T) {
	d, err := definition.Load(strings.NewReader("initial: A\nfinal: [B]\nstates:\n  A:\n    always:\n      - target: B\n"))
	require.NoError(t, err)

	m := stackfsm.New[string, string](&dice{}, "A", []string{"B"})
	require.NoError(t, definition.Apply(d, m, nil))
	require.NoError(t, m.Start())
	assert.True(t, m.Finished())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(diceYAML), 0o644))

	d, err := definition.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, d.States, 3)

	_, err = definition.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
