package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/spigell/interview-coach/internal/interview"
)

// ErrInvalidResponse marks a model reply that could not be parsed or did not
// match the expected shape.
var ErrInvalidResponse = errors.New("invalid model response")

// UpstreamError wraps any failure of an analysis, generation or feedback call.
// The wrapped message is kept verbatim.
type UpstreamError struct {
	Adapter string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Adapter, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Kind() interview.Kind { return interview.KindUpstreamAdapter }

// Upstream wraps err for the named adapter. Errors that are already wrapped are returned as is.
func Upstream(adapter string, err error) error {
	if err == nil {
		return nil
	}
	var existing *UpstreamError
	if errors.As(err, &existing) {
		return err
	}
	return &UpstreamError{Adapter: adapter, Err: err}
}

// InputError marks caller input an adapter refused before calling the model.
type InputError struct {
	Adapter string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Adapter, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Kind() interview.Kind { return interview.KindValidation }

// Input wraps err as invalid input for the named adapter.
func Input(adapter string, err error) error {
	if err == nil {
		return nil
	}
	return &InputError{Adapter: adapter, Err: err}
}

// TemporaryError is returned by providers for failures worth retrying, such
// as rate limiting or server errors. RetryAfter is zero when the provider did
// not announce a delay.
type TemporaryError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *TemporaryError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("temporary failure (status %d, retry after %s): %v", e.StatusCode, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("temporary failure (status %d): %v", e.StatusCode, e.Err)
}

func (e *TemporaryError) Unwrap() error { return e.Err }
