package stackfsm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Transition violates the target rule for its kind
	ErrCodeInvalidTransition
	// Machine is already running
	ErrCodeAlreadyRunning
	// Machine has not been started
	ErrCodeNotStarted
	// Machine reached a final state and no longer accepts events
	ErrCodeFinished
	// Pop requested with nothing beneath the current state
	ErrCodeStackUnderflow
	// Eventless transitions did not settle
	ErrCodeCascadeLimit
	// Event payload does not have the type a hook expects
	ErrCodeInvalidPayload
	// Machine configuration is invalid
	ErrCodeInvalidConfiguration
)

var codeNames = map[ErrorCode]string{
	ErrCodeNone:                 "none",
	ErrCodeInvalidTransition:    "invalid transition",
	ErrCodeAlreadyRunning:       "already running",
	ErrCodeNotStarted:           "not started",
	ErrCodeFinished:             "finished",
	ErrCodeStackUnderflow:       "stack underflow",
	ErrCodeCascadeLimit:         "cascade limit exceeded",
	ErrCodeInvalidPayload:       "invalid payload",
	ErrCodeInvalidConfiguration: "invalid configuration",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// codeError is a bare sentinel that typed errors match against with errors.Is.
type codeError struct {
	code ErrorCode
}

func (e *codeError) Error() string {
	return "stackfsm: " + e.code.String()
}

// Sentinels usable with errors.Is against any typed error carrying the same code.
var (
	ErrInvalidTransition error = &codeError{ErrCodeInvalidTransition}
	ErrAlreadyRunning    error = &codeError{ErrCodeAlreadyRunning}
	ErrNotStarted        error = &codeError{ErrCodeNotStarted}
	ErrFinished          error = &codeError{ErrCodeFinished}
	ErrStackUnderflow    error = &codeError{ErrCodeStackUnderflow}
	ErrCascadeLimit      error = &codeError{ErrCodeCascadeLimit}
	ErrInvalidPayload    error = &codeError{ErrCodeInvalidPayload}
)

func matchesCode(code ErrorCode, target error) bool {
	var ce *codeError
	if errors.As(target, &ce) {
		return ce.code == code
	}
	return false
}

// TransitionError is returned when a transition is rejected at registration
type TransitionError struct {
	Code   ErrorCode
	State  string
	Event  string
	Kind   TransitionKind
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s on %s, %s]: %s", e.State, e.Event, e.Kind, e.Reason)
}

// Is reports whether target is the sentinel for this error's code
func (e *TransitionError) Is(target error) bool {
	return matchesCode(e.Code, target)
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(state, event string, kind TransitionKind, reason string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeInvalidTransition,
		State:  state,
		Event:  event,
		Kind:   kind,
		Reason: reason,
	}
}

// MachineError represents protocol violations on Start and Send
type MachineError struct {
	Code      ErrorCode
	Operation string
	State     string
	Message   string
}

func (e *MachineError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("machine error during %s in state '%s': %s", e.Operation, e.State, e.Message)
	}
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// Is reports whether target is the sentinel for this error's code
func (e *MachineError) Is(target error) bool {
	return matchesCode(e.Code, target)
}

// NewMachineError creates a new machine error
func NewMachineError(code ErrorCode, operation, state, message string) *MachineError {
	return &MachineError{
		Code:      code,
		Operation: operation,
		State:     state,
		Message:   message,
	}
}

// NewAlreadyRunningError creates a new already running error
func NewAlreadyRunningError(operation string) *MachineError {
	return NewMachineError(ErrCodeAlreadyRunning, operation, "", "state machine is already running")
}

// NewNotStartedError creates a new machine not started error
func NewNotStartedError(operation string) *MachineError {
	return NewMachineError(ErrCodeNotStarted, operation, "", "state machine is not started")
}

// NewFinishedError creates a new error for a machine that reached a final state
func NewFinishedError(operation, state string) *MachineError {
	return NewMachineError(ErrCodeFinished, operation, state, "state machine has reached a final state")
}

// NewStackUnderflowError creates a new error for a pop with nothing beneath
func NewStackUnderflowError(state, event string) *MachineError {
	return NewMachineError(ErrCodeStackUnderflow, "Send", state,
		fmt.Sprintf("cannot pop on event '%s': no suspended state beneath", event))
}

// CascadeError is returned when eventless transitions keep firing past the configured limit
type CascadeError struct {
	Limit int
	Path  []string
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("always-cascade did not settle after %d steps: %s", e.Limit, strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCascadeLimit
func (e *CascadeError) Is(target error) bool {
	return matchesCode(ErrCodeCascadeLimit, target)
}

// PayloadError is returned by typed guard and action adapters when the
// event payload has an unexpected dynamic type
type PayloadError struct {
	Expected string
	Actual   string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Is reports whether target is ErrInvalidPayload
func (e *PayloadError) Is(target error) bool {
	return matchesCode(ErrCodeInvalidPayload, target)
}

// ConfigurationError represents machine configuration issues
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issue:     issue,
	}
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}

// IsMachineError checks if an error is a MachineError
func IsMachineError(err error) bool {
	var e *MachineError
	return errors.As(err, &e)
}

// IsCascadeError checks if an error is a CascadeError
func IsCascadeError(err error) bool {
	var e *CascadeError
	return errors.As(err, &e)
}

// IsPayloadError checks if an error is a PayloadError
func IsPayloadError(err error) bool {
	var e *PayloadError
	return errors.As(err, &e)
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		te *TransitionError
		me *MachineError
		ce *CascadeError
		pe *PayloadError
		cf *ConfigurationError
	)
	switch {
	case errors.As(err, &te):
		return te.Code
	case errors.As(err, &me):
		return me.Code
	case errors.As(err, &ce):
		return ErrCodeCascadeLimit
	case errors.As(err, &pe):
		return ErrCodeInvalidPayload
	case errors.As(err, &cf):
		return ErrCodeInvalidConfiguration
	default:
		return ErrCodeNone
	}
}
