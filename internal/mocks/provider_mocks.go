// Package mocks holds hand-written testify mocks for the service seams.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyfairy-server/internal/provider"
)

// MockTextProvider is a mock type for the provider.TextProvider type
type MockTextProvider struct {
	mock.Mock
}

func (_m *MockTextProvider) GenerateText(ctx context.Context, systemPrompt string, userPrompt string, maxTokens int) (string, provider.Usage, error) {
	ret := _m.Called(ctx, systemPrompt, userPrompt, maxTokens)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	var r1 provider.Usage
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(provider.Usage)
	}
	return r0, r1, ret.Error(2)
}

// NewMockTextProvider creates a new instance of MockTextProvider and
// registers the testing interface on it.
func NewMockTextProvider(t interface {
	mock.TestingT
	Helper()
}) *MockTextProvider {
	m := &MockTextProvider{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ provider.TextProvider = (*MockTextProvider)(nil)

// MockImageProvider is a mock type for the provider.ImageProvider type
type MockImageProvider struct {
	mock.Mock
}

func (_m *MockImageProvider) GenerateImage(ctx context.Context, prompt string, opts provider.ImageOptions) (string, error) {
	ret := _m.Called(ctx, prompt, opts)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	return r0, ret.Error(1)
}

// NewMockImageProvider creates a new instance of MockImageProvider and
// registers the testing interface on it.
func NewMockImageProvider(t interface {
	mock.TestingT
	Helper()
}) *MockImageProvider {
	m := &MockImageProvider{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ provider.ImageProvider = (*MockImageProvider)(nil)
