package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dueflow/dueflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidTask  = errors.New("invalid task")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTasks validates a slice of tasks.
func validateTasks(tasks []model.StoredTask) error {
	if tasks == nil {
		return fmt.Errorf("%w: tasks", ErrNilParameter)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w: tasks", ErrEmptySlice)
	}
	for i := range tasks {
		if err := validateTask(&tasks[i]); err != nil {
			return fmt.Errorf("task at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTask validates a single task.
func validateTask(task *model.StoredTask) error {
	if task == nil {
		return fmt.Errorf("%w: task", ErrNilParameter)
	}
	if task.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTask)
	}
	if task.ClientID == "" {
		return fmt.Errorf("%w: missing client ID", ErrInvalidTask)
	}
	if task.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidTask)
	}
	if task.CurrentDueDate.IsZero() {
		return fmt.Errorf("%w: missing due date", ErrInvalidTask)
	}
	switch task.Source {
	case model.SourceAutomatic, model.SourceManual:
	default:
		return fmt.Errorf("%w: source %q", ErrInvalidTask, task.Source)
	}
	switch task.Completion {
	case model.CompletionOpen, model.CompletionCompleted:
	default:
		return fmt.Errorf("%w: completion %q", ErrInvalidTask, task.Completion)
	}
	return nil
}

// validateProfile validates a client profile.
func validateProfile(profile *model.ClientProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if profile.ID == "" {
		return fmt.Errorf("%w: profile ID", ErrEmptyString)
	}
	if profile.Name == "" {
		return fmt.Errorf("%w: profile name", ErrEmptyString)
	}
	return nil
}
