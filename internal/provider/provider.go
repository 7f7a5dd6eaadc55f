package provider

import (
	"context"
	"errors"
)

// Adapter error classes. Every concrete adapter wraps vendor-specific
// failures into exactly one of these; raw vendor errors never cross the
// package boundary.
var (
	// ErrRetryable - transient vendor failure (rate limit, 5xx). Worth
	// another attempt or a fallback model.
	ErrRetryable = errors.New("provider: retryable failure")

	// ErrFatal - the call cannot succeed by retrying (bad request, auth,
	// content filter on the vendor side for text).
	ErrFatal = errors.New("provider: fatal failure")

	// ErrEmptyResult - the vendor answered but produced nothing usable.
	// Image workers treat timeouts as this class.
	ErrEmptyResult = errors.New("provider: empty result")
)

// Usage reports token consumption of one text generation call. Counts are
// estimated locally when the API omits them.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextProvider generates free text from a system and user prompt pair.
type TextProvider interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, Usage, error)
}

// ImageOptions carries the per-call knobs an image backend accepts.
type ImageOptions struct {
	AspectRatio    string
	NegativePrompt string
}

// ImageProvider generates one image and returns a URL the image bytes can be
// downloaded from.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (string, error)
}
