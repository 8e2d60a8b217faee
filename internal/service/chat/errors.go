package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

var (
	// ErrNotConfigured means no assistant credential was supplied.
	ErrNotConfigured = errors.New("assistant credential is not configured")
	// ErrInvalidInput means a required argument was empty.
	ErrInvalidInput = errors.New("session id and message are required")
)

// UpstreamError reports a failed or malformed assistant service call.
// Message is safe to hand back to the caller; Err carries the cause.
type UpstreamError struct {
	Op      string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TimeoutError reports an exchange that did not reach a terminal status
// within the polling budget.
type TimeoutError struct {
	LastStatus chat.Status
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run did not finish within %s, last status %s", e.Elapsed.Round(time.Millisecond), e.LastStatus)
}

// Message returns the caller-facing description of the timeout.
func (e *TimeoutError) Message() string {
	return runStatusMessage(e.LastStatus)
}

func runStatusMessage(status chat.Status) string {
	return fmt.Sprintf("Run did not complete successfully. Status: %s", status)
}
