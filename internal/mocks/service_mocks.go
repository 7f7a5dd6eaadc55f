package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/platform"
	"storyfairy-server/internal/safety"
	"storyfairy-server/internal/service"
)

// MockClassifier is a mock type for the safety.Classifier type
type MockClassifier struct {
	mock.Mock
}

func (_m *MockClassifier) Analyze(ctx context.Context, text string) (model.CategoryScores, error) {
	ret := _m.Called(ctx, text)

	var r0 model.CategoryScores
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.CategoryScores)
	}
	return r0, ret.Error(1)
}

// NewMockClassifier creates a new instance of MockClassifier and registers
// the testing interface on it.
func NewMockClassifier(t interface {
	mock.TestingT
	Helper()
}) *MockClassifier {
	m := &MockClassifier{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ safety.Classifier = (*MockClassifier)(nil)

// MockSafetyGate is a mock type for the service.SafetyGate type
type MockSafetyGate struct {
	mock.Mock
}

func (_m *MockSafetyGate) Check(ctx context.Context, text string) (model.ModerationVerdict, error) {
	ret := _m.Called(ctx, text)

	var r0 model.ModerationVerdict
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.ModerationVerdict)
	}
	return r0, ret.Error(1)
}

// NewMockSafetyGate creates a new instance of MockSafetyGate and registers
// the testing interface on it.
func NewMockSafetyGate(t interface {
	mock.TestingT
	Helper()
}) *MockSafetyGate {
	m := &MockSafetyGate{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.SafetyGate = (*MockSafetyGate)(nil)

// MockStorySynthesizer is a mock type for the service.StorySynthesizer type
type MockStorySynthesizer struct {
	mock.Mock
}

func (_m *MockStorySynthesizer) Synthesize(ctx context.Context, req *model.GenerationRequest) (*service.SynthesisResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *service.SynthesisResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.SynthesisResult)
	}
	return r0, ret.Error(1)
}

// NewMockStorySynthesizer creates a new instance of MockStorySynthesizer and
// registers the testing interface on it.
func NewMockStorySynthesizer(t interface {
	mock.TestingT
	Helper()
}) *MockStorySynthesizer {
	m := &MockStorySynthesizer{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.StorySynthesizer = (*MockStorySynthesizer)(nil)

// MockIllustrationRenderer is a mock type for the service.IllustrationRenderer type
type MockIllustrationRenderer struct {
	mock.Mock
}

func (_m *MockIllustrationRenderer) RenderStoryImages(ctx context.Context, chain []string, sentences []string, imageStyle string, baseName string) ([]model.ImageResult, error) {
	ret := _m.Called(ctx, chain, sentences, imageStyle, baseName)

	var r0 []model.ImageResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ImageResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockIllustrationRenderer) RenderCovers(ctx context.Context, chain []string, title string, storyText string, imageStyle string, baseName string) model.CoverSet {
	ret := _m.Called(ctx, chain, title, storyText, imageStyle, baseName)

	var r0 model.CoverSet
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.CoverSet)
	}
	return r0
}

// NewMockIllustrationRenderer creates a new instance of
// MockIllustrationRenderer and registers the testing interface on it.
func NewMockIllustrationRenderer(t interface {
	mock.TestingT
	Helper()
}) *MockIllustrationRenderer {
	m := &MockIllustrationRenderer{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.IllustrationRenderer = (*MockIllustrationRenderer)(nil)

// MockGenerationLock is a mock type for the platform.GenerationLock type
type MockGenerationLock struct {
	mock.Mock
}

func (_m *MockGenerationLock) Acquire(ctx context.Context, userID string) (bool, error) {
	ret := _m.Called(ctx, userID)

	var r0 bool
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(bool)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerationLock) Release(ctx context.Context, userID string) {
	_m.Called(ctx, userID)
}

// NewMockGenerationLock creates a new instance of MockGenerationLock and
// registers the testing interface on it.
func NewMockGenerationLock(t interface {
	mock.TestingT
	Helper()
}) *MockGenerationLock {
	m := &MockGenerationLock{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ platform.GenerationLock = (*MockGenerationLock)(nil)
