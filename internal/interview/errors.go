package interview

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies errors returned by the interview core so front ends can
// choose user-facing wording and transport status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindOrderingViolation
	KindValidation
	KindUpstreamAdapter
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindOrderingViolation:
		return "ordering_violation"
	case KindValidation:
		return "validation"
	case KindUpstreamAdapter:
		return "upstream_adapter"
	default:
		return "unknown"
	}
}

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrDuplicateSession      = errors.New("session already exists")
	ErrNoCurrentQuestion     = errors.New("no current question")
	ErrQuestionMismatch      = errors.New("question mismatch")
	ErrInvalidState          = errors.New("invalid session state")
	ErrSessionPaused         = fmt.Errorf("%w: session is paused", ErrInvalidState)
	ErrDuplicateQuestionID   = errors.New("duplicate question id")
	ErrInvalidQuestion       = errors.New("invalid question")
	ErrInterviewNotCompleted = errors.New("interview is not completed")
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrSessionNotFound, KindNotFound},
	{ErrDuplicateSession, KindInvalidState},
	{ErrNoCurrentQuestion, KindInvalidState},
	{ErrInvalidState, KindInvalidState},
	{ErrInterviewNotCompleted, KindInvalidState},
	{ErrQuestionMismatch, KindOrderingViolation},
	{ErrDuplicateQuestionID, KindValidation},
	{ErrInvalidQuestion, KindValidation},
}

// KindOf reports the classification of err. Errors that carry their own kind
// (for example upstream adapter failures) take precedence over sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var kinded interface{ Kind() Kind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}

	for _, entry := range sentinelKinds {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}

	return KindUnknown
}

// Error describes a failed session operation.
type Error struct {
	Op         string
	SessionID  string
	QuestionID string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.SessionID != "" {
		fmt.Fprintf(&b, " session %q", e.SessionID)
	}
	if e.QuestionID != "" {
		fmt.Fprintf(&b, " question %q", e.QuestionID)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationErrors collects every problem found while loading questions.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}

	parts := make([]string, 0, len(v))
	for _, err := range v {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d validation errors: %s", len(v), strings.Join(parts, "; "))
}

func (v ValidationErrors) Unwrap() []error { return v }
