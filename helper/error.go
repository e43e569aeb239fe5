package helper

import (
	"fmt"
	"runtime"
)

// NewError wraps an error with the failed action and the caller's
// location, keeping the underlying error available for errors.Is/As.
func NewError(action string, err error) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Errorf("error in %s: %w", action, err)
	}
	return fmt.Errorf("error in %s (%s:%d): %w", action, file, line, err)
}
