package model

import (
	"errors"
	"fmt"
	"strings"
)

// Request-level errors. Handlers map these to HTTP statuses with errors.Is;
// anything not in this taxonomy surfaces as a generic 500 without detail.
var (
	// ErrInvalidModel - the caller asked for a story or image model that is
	// not registered. Caller bug, no side effects.
	ErrInvalidModel = errors.New("invalid model")

	// ErrInvalidInput - a required request field is missing or empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyStory - parsing succeeded structurally but every sentence was
	// empty after cleaning.
	ErrEmptyStory = errors.New("story has no usable sentences")

	// ErrMalformedOutput - the generation output could not be parsed as a
	// structured story (bad JSON, missing field, wrong type).
	ErrMalformedOutput = errors.New("malformed generation output")

	// ErrGenerationFailed - all text generation attempts were exhausted, or
	// every image slot failed for a non-empty sentence list.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrPersistenceFailed - a blob or document store write failed. The
	// request aborts; no partial StoryRecord is ever persisted.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrInsufficientCredits - the ledger precondition failed.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrGenerationInProgress - the user already has a pipeline running.
	ErrGenerationInProgress = errors.New("generation already in progress")

	// ErrStoryNotFound - story id does not exist or belongs to another user.
	ErrStoryNotFound = errors.New("story not found")
)

// Auth errors, consumed by the HTTP middleware.
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
)

// UnsafeContentError is returned when the safety gate rejects text. It
// carries the violated categories so the caller can explain the rejection.
type UnsafeContentError struct {
	Violations []Category
}

func (e *UnsafeContentError) Error() string {
	names := make([]string, 0, len(e.Violations))
	for _, c := range e.Violations {
		names = append(names, string(c))
	}
	return fmt.Sprintf("content rejected by safety gate: %s", strings.Join(names, ", "))
}
