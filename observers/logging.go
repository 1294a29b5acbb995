// Package observers provides observers for monitoring state machine events
package observers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anggasct/stackfsm"
)

// LoggingObserver logs state machine events through slog
type LoggingObserver[S, K comparable] struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a logging observer writing to logger, or
// slog.Default when logger is nil
func NewLoggingObserver[S, K comparable](logger *slog.Logger) *LoggingObserver[S, K] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver[S, K]{logger: logger}
}

// NewMachineLoggingObserver tags every record with the machine ID
func NewMachineLoggingObserver[S, K comparable, C any](logger *slog.Logger, m *stackfsm.Machine[S, K, C]) *LoggingObserver[S, K] {
	o := NewLoggingObserver[S, K](logger)
	o.logger = o.logger.With(slog.String("machine", m.ID()))
	return o
}

func (o *LoggingObserver[S, K]) log(level slog.Level, msg string, attrs ...slog.Attr) {
	o.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func stateAttr(key string, state any) slog.Attr {
	return slog.String(key, fmt.Sprint(state))
}

// OnTransition logs transitions
func (o *LoggingObserver[S, K]) OnTransition(info stackfsm.TransitionInfo[S, K]) {
	attrs := []slog.Attr{
		stateAttr("from", info.From),
		stateAttr("to", info.To),
		slog.String("kind", info.Kind.String()),
		slog.Int("depth", info.Depth),
	}
	if info.Event != nil {
		attrs = append(attrs,
			slog.String("event", fmt.Sprint(info.Event.Kind())),
			slog.String("event_id", info.Event.ID()))
	} else {
		attrs = append(attrs, slog.Bool("always", true))
	}
	o.log(slog.LevelInfo, "transition", attrs...)
}

// OnStateEnter logs state entry
func (o *LoggingObserver[S, K]) OnStateEnter(state S, depth int) {
	o.log(slog.LevelInfo, "enter state", stateAttr("state", state), slog.Int("depth", depth))
}

// OnStateExit logs state exit
func (o *LoggingObserver[S, K]) OnStateExit(state S, depth int) {
	o.log(slog.LevelInfo, "exit state", stateAttr("state", state), slog.Int("depth", depth))
}

// OnStateResume logs a suspended state becoming current again
func (o *LoggingObserver[S, K]) OnStateResume(state S, depth int) {
	o.log(slog.LevelInfo, "resume state", stateAttr("state", state), slog.Int("depth", depth))
}

// OnEventDiscarded logs events no transition matched
func (o *LoggingObserver[S, K]) OnEventDiscarded(state S, event stackfsm.Event[K]) {
	o.log(slog.LevelDebug, "event discarded",
		stateAttr("state", state),
		slog.String("event", fmt.Sprint(event.Kind())),
		slog.String("event_id", event.ID()))
}

// OnError logs failures of Start and Send
func (o *LoggingObserver[S, K]) OnError(err error) {
	o.log(slog.LevelError, "state machine error",
		slog.String("error", err.Error()),
		slog.String("code", stackfsm.GetErrorCode(err).String()))
}

// OnMachineStarted logs machine start
func (o *LoggingObserver[S, K]) OnMachineStarted(state S) {
	o.log(slog.LevelInfo, "machine started", stateAttr("state", state))
}

// OnMachineFinished logs machine completion
func (o *LoggingObserver[S, K]) OnMachineFinished(state S) {
	o.log(slog.LevelInfo, "machine finished", stateAttr("state", state))
}

var _ stackfsm.ExtendedObserver[string, string] = (*LoggingObserver[string, string])(nil)
