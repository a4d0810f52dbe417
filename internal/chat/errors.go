package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingNotFound is returned when no Setting exists for the
	// requested organization/provider pair.
	ErrSettingNotFound = errors.New("chat: setting not found")

	// ErrUnknownProvider is returned when no adapter is registered for a
	// provider name.
	ErrUnknownProvider = errors.New("chat: unknown provider")

	// ErrUnknownWorkflow is returned when a workflow name does not resolve
	// in the registry. Unknown names fail closed, never as a no-op.
	ErrUnknownWorkflow = errors.New("chat: unknown workflow")

	// ErrUnknownMessageType is returned by BuildMessage for an unrecognized
	// outbound message type.
	ErrUnknownMessageType = errors.New("chat: unknown outbound message type")

	// ErrUnknownAction is returned when a configured write action does not
	// resolve in the action registry.
	ErrUnknownAction = errors.New("chat: unknown write action")

	// ErrUnhandledInput is returned by a workflow that was dispatched a
	// message kind it has no handler for. Reaching it means the workflow
	// was wired as a target but left incomplete.
	ErrUnhandledInput = errors.New("chat: workflow does not handle this input")

	// ErrVerificationFailed is returned when the webhook handshake token
	// does not match. Expected during probing, not logged as an error.
	ErrVerificationFailed = errors.New("chat: webhook verification failed")
)

// IsConfigError reports whether the error marks a misconfiguration: the
// webhook is still acknowledged, but the error must surface in logs and
// metrics.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownProvider) ||
		errors.Is(err, ErrUnknownWorkflow) ||
		errors.Is(err, ErrUnknownMessageType) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrUnhandledInput)
}

// TransportError wraps a failed outbound provider call.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat: %s transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
