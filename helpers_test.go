package stackfsm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingObserver captures every notification as a readable line
type recordingObserver struct {
	Log         []string
	Transitions []TransitionInfo[gameState, gameEvent]
	Discarded   []Event[gameEvent]
	Errors      []error
}

func (o *recordingObserver) OnTransition(info TransitionInfo[gameState, gameEvent]) {
	o.Transitions = append(o.Transitions, info)
	o.Log = append(o.Log, fmt.Sprintf("%s %v->%v", info.Kind, info.From, info.To))
}

func (o *recordingObserver) OnStateEnter(state gameState, depth int) {
	o.Log = append(o.Log, fmt.Sprintf("enter %v", state))
}

func (o *recordingObserver) OnStateExit(state gameState, depth int) {
	o.Log = append(o.Log, fmt.Sprintf("exit %v", state))
}

func (o *recordingObserver) OnStateResume(state gameState, depth int) {
	o.Log = append(o.Log, fmt.Sprintf("resume %v", state))
}

func (o *recordingObserver) OnEventDiscarded(state gameState, event Event[gameEvent]) {
	o.Discarded = append(o.Discarded, event)
	o.Log = append(o.Log, fmt.Sprintf("discard %v", event.Kind()))
}

func (o *recordingObserver) OnError(err error) {
	o.Errors = append(o.Errors, err)
}

func (o *recordingObserver) OnMachineStarted(state gameState) {
	o.Log = append(o.Log, fmt.Sprintf("started %v", state))
}

func (o *recordingObserver) OnMachineFinished(state gameState) {
	o.Log = append(o.Log, fmt.Sprintf("finished %v", state))
}

type gameState int

const (
	turnStart gameState = iota
	computeScore
	gameOver
	paused
	bonus
)

func (s gameState) String() string {
	switch s {
	case turnStart:
		return "TURN_START"
	case computeScore:
		return "COMPUTE_SCORE"
	case gameOver:
		return "GAME_OVER"
	case paused:
		return "PAUSED"
	case bonus:
		return "BONUS"
	default:
		return fmt.Sprintf("gameState(%d)", int(s))
	}
}

type gameEvent int

const (
	rollDie gameEvent = iota
	next
	pause
	cheat
)

func (e gameEvent) String() string {
	switch e {
	case rollDie:
		return "Roll"
	case next:
		return "Next"
	case pause:
		return "Pause"
	case cheat:
		return "Cheat"
	default:
		return fmt.Sprintf("gameEvent(%d)", int(e))
	}
}

type gameContext struct {
	turn   int
	score  int
	pauses int
}

type gameMachine = Machine[gameState, gameEvent, *gameContext]
type gameTransition = Transition[gameState, gameEvent, *gameContext]

func newGameMachine(ctx *gameContext, opts ...Option) *gameMachine {
	return New[gameState, gameEvent](ctx, turnStart, []gameState{gameOver}, opts...)
}

func addScore(ctx *gameContext, n int) error {
	ctx.score += n
	return nil
}

func isGameOver(ctx *gameContext) bool {
	return ctx.score > 20
}

func incrementTurn(ctx *gameContext) error {
	ctx.turn++
	return nil
}

// newDiceGame registers the dice table: roll to score, then either finish
// once the score passes 20 or start another turn. A Pause suspends the turn
// and a second Pause resumes it.
func newDiceGame(t *testing.T, ctx *gameContext) *gameMachine {
	t.Helper()

	m := newGameMachine(ctx)
	require.NoError(t, m.AddEntryAction(turnStart, incrementTurn))
	require.NoError(t, m.AddTransition(turnStart, gameTransition{
		Event:  rollDie,
		Kind:   Fire,
		Target: To(computeScore),
		Action: Action(addScore),
	}))
	require.NoError(t, m.AddTransition(turnStart, gameTransition{
		Event:  pause,
		Kind:   Push,
		Target: To(paused),
	}))
	require.NoError(t, m.AddTransition(computeScore, gameTransition{
		Event:  next,
		Kind:   Fire,
		Target: To(gameOver),
		Guard:  When(isGameOver),
	}))
	require.NoError(t, m.AddTransition(computeScore, gameTransition{
		Event:  next,
		Kind:   Fire,
		Target: To(turnStart),
	}))
	require.NoError(t, m.AddTransition(paused, gameTransition{
		Event: pause,
		Kind:  Pop,
	}))
	require.NoError(t, m.AddExitAction(paused, func(ctx *gameContext) error {
		ctx.pauses++
		return nil
	}))
	return m
}
