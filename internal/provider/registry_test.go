package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storyfairy-server/internal/mocks"
	"storyfairy-server/internal/provider"
)

func TestRegistry_UnknownModel(t *testing.T) {
	registry := provider.NewRegistry()
	registry.RegisterText("openai", mocks.NewMockTextProvider(t))

	_, err := registry.Text("claude")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownModel)

	_, err = registry.Image("flux_schnell")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownModel)
}

func TestRegistry_ResolvesRegistered(t *testing.T) {
	textProvider := mocks.NewMockTextProvider(t)
	registry := provider.NewRegistry()
	registry.RegisterText("openai", textProvider)

	got, err := registry.Text("openai")
	require.NoError(t, err)
	assert.Same(t, textProvider, got)
}

func TestGenerateImageWithFallback_StopsAtFirstSuccess(t *testing.T) {
	first := mocks.NewMockImageProvider(t)
	first.On("GenerateImage", mock.Anything, "prompt", mock.Anything).
		Return("", provider.ErrEmptyResult)
	second := mocks.NewMockImageProvider(t)
	second.On("GenerateImage", mock.Anything, "prompt", mock.Anything).
		Return("https://img.example/ok.png", nil)
	third := mocks.NewMockImageProvider(t)

	registry := provider.NewRegistry()
	registry.RegisterImage("a", first)
	registry.RegisterImage("b", second)
	registry.RegisterImage("c", third)

	url, err := registry.GenerateImageWithFallback(context.Background(), []string{"a", "b", "c"}, "prompt", provider.ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/ok.png", url)
	third.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateImageWithFallback_FatalMovesToNextModel(t *testing.T) {
	// A content-filter style rejection on one backend must not doom the
	// whole chain; the next model still gets its turn.
	first := mocks.NewMockImageProvider(t)
	first.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("", provider.ErrFatal)
	second := mocks.NewMockImageProvider(t)
	second.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("https://img.example/ok.png", nil)

	registry := provider.NewRegistry()
	registry.RegisterImage("a", first)
	registry.RegisterImage("b", second)

	url, err := registry.GenerateImageWithFallback(context.Background(), []string{"a", "b"}, "prompt", provider.ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/ok.png", url)
}

func TestGenerateImageWithFallback_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := mocks.NewMockImageProvider(t)
	first.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", provider.ErrRetryable)
	second := mocks.NewMockImageProvider(t)

	registry := provider.NewRegistry()
	registry.RegisterImage("a", first)
	registry.RegisterImage("b", second)

	_, err := registry.GenerateImageWithFallback(ctx, []string{"a", "b"}, "prompt", provider.ImageOptions{})
	require.Error(t, err)
	second.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateImageWithFallback_AllFail(t *testing.T) {
	first := mocks.NewMockImageProvider(t)
	first.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("", provider.ErrRetryable)
	second := mocks.NewMockImageProvider(t)
	second.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("", provider.ErrEmptyResult)

	registry := provider.NewRegistry()
	registry.RegisterImage("a", first)
	registry.RegisterImage("b", second)

	_, err := registry.GenerateImageWithFallback(context.Background(), []string{"a", "b"}, "prompt", provider.ImageOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrEmptyResult)
}

func TestGenerateImageWithFallback_EmptyChain(t *testing.T) {
	registry := provider.NewRegistry()

	_, err := registry.GenerateImageWithFallback(context.Background(), nil, "prompt", provider.ImageOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownModel)
}
