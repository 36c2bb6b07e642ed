package quiz

import (
	"fmt"

	"github.com/mroshb/quiz_bot/pkg/errors"
)

// Failures returned by the engine. All of them are recoverable; match them
// with errors.Is.
var (
	ErrTestNotFound     = errors.New(errors.ErrCodeTestNotFound, "test not found or inactive")
	ErrAlreadySubmitted = errors.New(errors.ErrCodeAlreadySubmitted, "test already submitted")
	ErrIncomplete       = errors.New(errors.ErrCodeIncomplete, "not every question is answered")
	ErrMalformed        = errors.New(errors.ErrCodeMalformed, "no answers found in text")
	ErrSessionExpired   = errors.New(errors.ErrCodeSessionExpired, "no active attempt")
	ErrDuplicate        = errors.New(errors.ErrCodeDuplicate, "result already stored")
	ErrInvalidChoice    = errors.New(errors.ErrCodeInvalidChoice, "invalid question or option")
)

// IncompleteError carries how far the participant got. It unwraps to
// ErrIncomplete.
type IncompleteError struct {
	Answered int
	Expected int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: answered %d of %d", errors.ErrCodeIncomplete, e.Answered, e.Expected)
}

func (e *IncompleteError) Unwrap() error {
	return ErrIncomplete
}

func invalidChoice(format string, args ...interface{}) error {
	return errors.Wrap(ErrInvalidChoice, errors.ErrCodeInvalidChoice, fmt.Sprintf(format, args...))
}
