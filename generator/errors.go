package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid idea")
	// ErrGeneration matches any *GenerationError via errors.Is.
	ErrGeneration = errors.New("generation failed")
	// ErrParse matches any *ParseError via errors.Is.
	ErrParse = errors.New("unparseable model output")
)

// ValidationError reports a missing or malformed Idea field. It is raised
// before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// GenerationError wraps a failed model call, or an unparseable response on
// the section schema where no fallback exists.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// ParseError is internal to the pipeline: the agent always turns it into a
// fallback result or a GenerationError.
type ParseError struct {
	Kind   SchemaKind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %s", e.Kind, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
