package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is the single boundary through which every model interaction runs.
// Implementations must never return an empty completion as a success.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CallError signals a transport or provider failure. Callers may retry;
// the wrapped error preserves the provider detail.
type CallError struct {
	Provider string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed (%s): %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsCallError reports whether err is (or wraps) a model call failure.
func IsCallError(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}
