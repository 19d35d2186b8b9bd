// Package apperrors defines the error taxonomy shared across the review pipeline.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned when a document yields no extractable text.
	ErrEmptyDocument = errors.New("no extractable text found in document")

	// ErrCompletionTimeout marks a completion call that exceeded its deadline.
	ErrCompletionTimeout = errors.New("completion call timed out")
)

// UnsupportedFormatError is returned when the uploaded filename carries an
// extension outside the recognized set.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("Unsupported file type: %s", e.Ext)
}

// CompletionError wraps an upstream model failure with the position of the
// question being answered when it occurred. QuestionIndex is -1 for the
// final decision call, which has no associated question.
type CompletionError struct {
	QuestionIndex int
	Err           error
}

func (e *CompletionError) Error() string {
	if e.QuestionIndex < 0 {
		return fmt.Sprintf("decision completion failed: %v", e.Err)
	}
	return fmt.Sprintf("completion failed for question %d: %v", e.QuestionIndex, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
