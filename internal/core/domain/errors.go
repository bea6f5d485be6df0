package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableInput is the only failure fatal to a request: without
	// text there is nothing to analyze.
	ErrUnreadableInput = errors.New("document unreadable")

	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type ModelErrorKind string

const (
	ModelTimeout         ModelErrorKind = "TIMEOUT"
	ModelRateLimit       ModelErrorKind = "RATE_LIMIT"
	ModelInvalidResponse ModelErrorKind = "INVALID_RESPONSE"
)

// ModelError is the typed failure of the generative-model collaborator.
// Every core caller recovers from all kinds via its own fallback.
type ModelError struct {
	Kind      ModelErrorKind
	Operation string
	Err       error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model %s: %s", e.Operation, e.Kind)
	}
	return fmt.Sprintf("model %s: %s: %v", e.Operation, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func NewModelError(kind ModelErrorKind, operation string, err error) *ModelError {
	return &ModelError{Kind: kind, Operation: operation, Err: err}
}

func AsModelError(err error) (*ModelError, bool) {
	var me *ModelError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

type IndexErrorKind string

const (
	IndexUnavailable IndexErrorKind = "UNAVAILABLE"
	IndexTimeout     IndexErrorKind = "TIMEOUT"
)

// IndexError is the typed failure of the vector-index collaborator.
// Retrieval failures are never fatal; the retriever degrades to an empty
// context.
type IndexError struct {
	Kind      IndexErrorKind
	Operation string
	Err       error
}

func (e *IndexError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("index %s: %s", e.Operation, e.Kind)
	}
	return fmt.Sprintf("index %s: %s: %v", e.Operation, e.Kind, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

func NewIndexError(kind IndexErrorKind, operation string, err error) *IndexError {
	return &IndexError{Kind: kind, Operation: operation, Err: err}
}

func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
