// Package common provides shared utilities and types used across the engine.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Store errors.
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("task store unavailable")

	// Generation errors.
	ErrInvalidRuleDefinition   = errors.New("invalid rule definition")
	ErrCalendarDataUnavailable = errors.New("calendar data unavailable")

	// Lifecycle errors.
	ErrTaskLocked        = errors.New("task period has not begun")
	ErrAlreadyCompleted  = errors.New("task is already completed")
	ErrNotCompleted      = errors.New("task is not completed")

	// Reconciliation errors.
	ErrStaleReconciliation = errors.New("profile change references an unknown client")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// BlockedError is returned when a task cannot be completed because an
// earlier task in its series is still open and already due. It carries the
// blocking predecessor so callers can name it.
type BlockedError struct {
	TaskID        string
	PredecessorID string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("task %s is blocked by open predecessor %s", e.TaskID, e.PredecessorID)
}

// IsBlocked reports whether err is a BlockedError and returns it if so.
func IsBlocked(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}

// UserError represents an error that should be shown to the operator.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
