package observers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/stackfsm"
	"github.com/anggasct/stackfsm/observers"
)

type round struct {
	score int
}

type transition = stackfsm.Transition[string, string, *round]

// newRoundMachine builds a small table: play scores on "roll", "menu" pushes
// a menu that "back" pops, and an eventless transition ends the round once
// the score reaches 10
func newRoundMachine(t *testing.T, opts ...stackfsm.Option) *stackfsm.Machine[string, string, *round] {
	t.Helper()

	m := stackfsm.New[string, string](&round{}, "play", []string{"done"}, opts...)
	require.NoError(t, m.AddTransition("play", transition{
		Event:  "roll",
		Kind:   stackfsm.Fire,
		Target: stackfsm.To("play"),
		Action: stackfsm.Action(func(r *round, n int) error { r.score += n; return nil }),
	}))
	require.NoError(t, m.AddTransition("play", transition{Event: "menu", Kind: stackfsm.Push, Target: stackfsm.To("menu")}))
	require.NoError(t, m.AddTransition("menu", transition{Event: "back", Kind: stackfsm.Pop}))
	require.NoError(t, m.AddAlwaysTransition("play", stackfsm.AlwaysTransition[string, *round]{
		Target: stackfsm.To("done"),
		Guard:  func(r *round) bool { return r.score >= 10 },
	}))
	return m
}

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	return records
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := newRoundMachine(t, stackfsm.WithID("round-1"))
	m.AddObserver(observers.NewMachineLoggingObserver(logger, m))

	require.NoError(t, m.Start())
	require.NoError(t, m.Send(stackfsm.NewSignal("jump")))
	require.NoError(t, m.Send(stackfsm.NewSignal("menu")))
	require.NoError(t, m.Send(stackfsm.NewSignal("back")))
	require.Error(t, m.Send(stackfsm.NewEvent("roll", "ten")))
	require.NoError(t, m.Send(stackfsm.NewEvent("roll", 10)))

	records := decodeRecords(t, &buf)
	var messages []string
	for _, record := range records {
		assert.Equal(t, "round-1", record["machine"])
		messages = append(messages, record["msg"].(string))
	}

	assert.Equal(t, []string{
		"machine started",
		"enter state",
		"event discarded",
		"transition",
		"enter state",
		"exit state",
		"transition",
		"resume state",
		"state machine error",
		"exit state",
		"transition",
		"enter state",
		"exit state",
		"transition",
		"enter state",
		"machine finished",
	}, messages)

	push := records[3]
	assert.Equal(t, "play", push["from"])
	assert.Equal(t, "menu", push["to"])
	assert.Equal(t, "push", push["kind"])
	assert.Equal(t, float64(2), push["depth"])
	assert.Equal(t, "menu", push["event"])

	assert.Equal(t, "DEBUG", records[2]["level"])
	assert.Equal(t, "ERROR", records[8]["level"])
	assert.Equal(t, "invalid payload", records[8]["code"])

	always := records[13]
	assert.Equal(t, true, always["always"])
	assert.Equal(t, "done", always["to"])
}

func TestLoggingObserver_DefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	o := observers.NewLoggingObserver[string, string](nil)
	o.OnError(errors.New("boom"))

	assert.Contains(t, buf.String(), "state machine error")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestMetricsObserver(t *testing.T) {
	m := newRoundMachine(t)
	metrics := observers.NewMetricsObserver[string, string]()
	m.AddObserver(metrics)

	require.NoError(t, m.Start())
	require.NoError(t, m.Send(stackfsm.NewEvent("roll", 4)))
	require.NoError(t, m.Send(stackfsm.NewSignal("menu")))
	require.NoError(t, m.Send(stackfsm.NewSignal("roll")))
	require.NoError(t, m.Send(stackfsm.NewSignal("back")))
	require.Error(t, m.Send(stackfsm.NewEvent("roll", 1.5)))
	require.NoError(t, m.Send(stackfsm.NewEvent("roll", 6)))

	snapshot := metrics.Snapshot()
	assert.Equal(t, 3, snapshot.StateVisits["play"])
	assert.Equal(t, 1, snapshot.StateVisits["menu"])
	assert.Equal(t, 1, snapshot.StateVisits["done"])
	assert.Equal(t, 1, snapshot.StateResumes["play"])
	assert.Equal(t, 2, snapshot.TransitionCounts["play->play"])
	assert.Equal(t, 1, snapshot.TransitionCounts["menu->play"])
	assert.Equal(t, 3, snapshot.KindCounts[stackfsm.Fire])
	assert.Equal(t, 1, snapshot.KindCounts[stackfsm.Push])
	assert.Equal(t, 1, snapshot.KindCounts[stackfsm.Pop])
	assert.Equal(t, 1, snapshot.AlwaysCount)
	assert.Equal(t, 1, snapshot.DiscardedEvents["roll"])
	assert.Equal(t, 1, snapshot.ErrorCount)
	assert.Equal(t, 2, snapshot.MaxDepth)

	snapshot.StateVisits["play"] = 100
	assert.Equal(t, 3, metrics.Snapshot().StateVisits["play"])

	metrics.Reset()
	assert.Empty(t, metrics.Snapshot().StateVisits)
	assert.Zero(t, metrics.Snapshot().MaxDepth)
}

func TestValidationObserver(t *testing.T) {
	t.Run("mirrors a valid run", func(t *testing.T) {
		m := newRoundMachine(t)
		validator := observers.NewValidationObserver[string, string]()
		m.AddObserver(validator)

		require.NoError(t, m.Start())
		require.NoError(t, m.Send(stackfsm.NewSignal("menu")))
		assert.Equal(t, []string{"play", "menu"}, validator.Stack())
		require.NoError(t, m.Send(stackfsm.NewSignal("back")))
		require.NoError(t, m.Send(stackfsm.NewEvent("roll", 12)))

		assert.Empty(t, validator.Violations())
		assert.Equal(t, m.Stack(), validator.Stack())
		assert.True(t, validator.Visited("menu"))
		assert.True(t, validator.Visited("done"))
	})

	t.Run("internal transitions keep the stack", func(t *testing.T) {
		m := newRoundMachine(t)
		require.NoError(t, m.AddTransition("menu", transition{Event: "peek", Kind: stackfsm.Internal}))
		validator := observers.NewValidationObserver[string, string]()
		m.AddObserver(validator)

		require.NoError(t, m.Start())
		require.NoError(t, m.Send(stackfsm.NewSignal("menu")))
		require.NoError(t, m.Send(stackfsm.NewSignal("peek")))

		assert.Empty(t, validator.Violations())
		assert.Equal(t, []string{"play", "menu"}, validator.Stack())
	})

	t.Run("reports disallowed transitions", func(t *testing.T) {
		m := newRoundMachine(t)
		validator := observers.NewValidationObserver[string, string]()
		validator.AddAllowedTransition("play", "play")
		validator.AddAllowedTransition("play", "done")
		m.AddObserver(validator)

		require.NoError(t, m.Start())
		require.NoError(t, m.Send(stackfsm.NewSignal("menu")))

		violations := validator.Violations()
		require.Len(t, violations, 1)
		assert.Equal(t, "transition play -> menu is not allowed", violations[0])
	})

	t.Run("reports inconsistent notifications", func(t *testing.T) {
		validator := observers.NewValidationObserver[string, string]()
		validator.OnTransition(stackfsm.TransitionInfo[string, string]{From: "a", To: "b", Kind: stackfsm.Fire, Depth: 1})
		validator.OnMachineStarted("a")
		validator.OnStateEnter("b", 1)
		validator.OnTransition(stackfsm.TransitionInfo[string, string]{From: "a", To: "b", Kind: stackfsm.Pop, Depth: 0})

		assert.Equal(t, []string{
			"transition a -> b before start",
			"entered b which is not current",
			"pop from a emptied the stack",
		}, validator.Violations())
	})
}
