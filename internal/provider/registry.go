package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Registry resolves the caller-supplied model keys to adapters. Clients are
// constructed once at process start and injected; the registry never builds
// anything lazily.
type Registry struct {
	text  map[string]TextProvider
	image map[string]ImageProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		text:  make(map[string]TextProvider),
		image: make(map[string]ImageProvider),
	}
}

// RegisterText adds a text backend under the given model key.
func (r *Registry) RegisterText(key string, p TextProvider) {
	r.text[key] = p
}

// RegisterImage adds an image backend under the given model key.
func (r *Registry) RegisterImage(key string, p ImageProvider) {
	r.image[key] = p
}

// Text resolves a story model key.
func (r *Registry) Text(key string) (TextProvider, error) {
	p, ok := r.text[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown story model %q (known: %v)", ErrUnknownModel, key, r.textKeys())
	}
	return p, nil
}

// Image resolves an image model key.
func (r *Registry) Image(key string) (ImageProvider, error) {
	p, ok := r.image[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown image model %q (known: %v)", ErrUnknownModel, key, r.imageKeys())
	}
	return p, nil
}

// GenerateImageWithFallback tries the given image model keys in order and
// stops at the first success. A failure of any class moves on to the next
// model: fatal means this backend cannot serve the prompt, not that another
// one can't. Unknown keys in the middle of the chain are a configuration bug
// and fail immediately; a cancelled context stops the chain.
func (r *Registry) GenerateImageWithFallback(ctx context.Context, keys []string, prompt string, opts ImageOptions) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: empty model chain", ErrUnknownModel)
	}
	var lastErr error
	for _, key := range keys {
		p, err := r.Image(key)
		if err != nil {
			return "", err
		}
		url, err := p.GenerateImage(ctx, prompt, opts)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (r *Registry) textKeys() []string {
	keys := make([]string, 0, len(r.text))
	for k := range r.text {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) imageKeys() []string {
	keys := make([]string, 0, len(r.image))
	for k := range r.image {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownModel - the model key is not registered. This is a caller error
// (400-class), distinct from the adapter failure classes above.
var ErrUnknownModel = errors.New("provider: unknown model")
