package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyfairy-server/internal/mocks"
	"storyfairy-server/internal/model"
	"storyfairy-server/internal/provider"
	"storyfairy-server/internal/service"
	"storyfairy-server/internal/storage"
)

type sagaFixture struct {
	gate     *mocks.MockSafetyGate
	synth    *mocks.MockStorySynthesizer
	renderer *mocks.MockIllustrationRenderer
	blobs    *mocks.MockBlobStore
	docs     *mocks.MockDocumentStore
	ledger   *mocks.MockLedger
	lock     *mocks.MockGenerationLock
	svc      service.StoryService
}

func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()

	registry := provider.NewRegistry()
	registry.RegisterText("openai", mocks.NewMockTextProvider(t))
	registry.RegisterImage("flux_schnell", mocks.NewMockImageProvider(t))
	registry.RegisterImage("flux_pro", mocks.NewMockImageProvider(t))

	f := &sagaFixture{
		gate:     mocks.NewMockSafetyGate(t),
		synth:    mocks.NewMockStorySynthesizer(t),
		renderer: mocks.NewMockIllustrationRenderer(t),
		blobs:    mocks.NewMockBlobStore(t),
		docs:     mocks.NewMockDocumentStore(t),
		ledger:   mocks.NewMockLedger(t),
		lock:     mocks.NewMockGenerationLock(t),
	}
	f.svc = service.NewStoryService(
		registry, f.gate, f.synth, f.renderer,
		f.blobs, f.docs, f.ledger, f.lock,
		[]string{"flux_pro"}, 5*time.Minute, zap.NewNop(),
	)
	return f
}

func generationRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Topic:      "a brave turtle",
		StoryModel: "openai",
		ImageModel: "flux_schnell",
	}
}

func fiveSentenceSynthesis() *service.SynthesisResult {
	sentences := []string{"One.", "Two.", "Three.", "Four.", "Five."}
	story := &model.StructuredStory{Title: "The Brave Turtle", Sentences: sentences}
	detailed := strings.Join(sentences, " ")
	return &service.SynthesisResult{
		Story:          story,
		DetailedText:   detailed,
		SimplifiedText: "A turtle was brave.",
	}
}

func fiveImages() []model.ImageResult {
	images := make([]model.ImageResult, 5)
	for i := range images {
		images[i] = model.ImageResult{Index: i, URL: "https://signed.example/img"}
	}
	return images
}

func safeVerdict() model.ModerationVerdict {
	return model.ModerationVerdict{Safe: true}
}

func TestGenerateStory_HappyPath(t *testing.T) {
	f := newSagaFixture(t)
	synthesis := fiveSentenceSynthesis()

	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, "a brave turtle").Return(safeVerdict(), nil).Once()
	f.synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis, nil).Once()
	f.gate.On("Check", mock.Anything, synthesis.DetailedText).Return(safeVerdict(), nil).Once()
	f.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, storage.StoryContainer, mock.Anything).
		Return(nil).Twice()
	f.renderer.On("RenderStoryImages", mock.Anything, []string{"flux_schnell", "flux_pro"}, synthesis.Story.Sentences, "whimsical", mock.Anything).
		Return(fiveImages(), nil).Once()
	f.renderer.On("RenderCovers", mock.Anything, mock.Anything, "The Brave Turtle", synthesis.SimplifiedText, "whimsical", mock.Anything).
		Return(model.CoverSet{}).Once()

	persisted := false
	f.docs.On("CreateStory", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		persisted = true
	}).Return(nil).Once()
	f.ledger.On("Deduct", mock.Anything, "user-1", 5, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Deduction must come strictly after the record is durable.
		assert.True(t, persisted)
	}).Return(5, nil).Once()

	record, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.NoError(t, err)
	assert.Equal(t, "The Brave Turtle", record.Title)
	assert.Len(t, record.Images, 5)
	assert.Equal(t, 5, record.Metadata.CreditsUsed)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, synthesis.SimplifiedText, record.StoryText)
	assert.Equal(t, synthesis.DetailedText, record.DetailedStoryText)

	f.lock.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.docs.AssertExpectations(t)
}

func TestGenerateStory_UnknownModelRejectedBeforeAnything(t *testing.T) {
	f := newSagaFixture(t)

	req := generationRequest()
	req.StoryModel = "unregistered"

	_, err := f.svc.GenerateStory(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidModel)
	f.lock.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
}

func TestGenerateStory_ConcurrentGenerationRejected(t *testing.T) {
	f := newSagaFixture(t)
	f.lock.On("Acquire", mock.Anything, "user-1").Return(false, nil).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrGenerationInProgress)
	f.ledger.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
	f.lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestGenerateStory_InsufficientCredits(t *testing.T) {
	f := newSagaFixture(t)
	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(4, nil).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientCredits)
	// Nothing was generated or charged.
	f.synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.lock.AssertExpectations(t)
}

func TestGenerateStory_UnsafeTopicStopsPipeline(t *testing.T) {
	f := newSagaFixture(t)
	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, "a brave turtle").
		Return(model.ModerationVerdict{Safe: false, Violations: []model.Category{model.CategoryViolence}}, nil).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)

	var unsafe *model.UnsafeContentError
	require.True(t, errors.As(err, &unsafe))
	assert.Equal(t, []model.Category{model.CategoryViolence}, unsafe.Violations)

	f.synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
	f.renderer.AssertNotCalled(t, "RenderStoryImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateStory_UnsafeStoryStopsBeforeImages(t *testing.T) {
	f := newSagaFixture(t)
	synthesis := fiveSentenceSynthesis()

	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, "a brave turtle").Return(safeVerdict(), nil).Once()
	f.synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis, nil).Once()
	f.gate.On("Check", mock.Anything, synthesis.DetailedText).
		Return(model.ModerationVerdict{Safe: false, Violations: []model.Category{model.CategoryHate}}, nil).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)

	var unsafe *model.UnsafeContentError
	assert.True(t, errors.As(err, &unsafe))
	// No image call happened for the rejected story.
	f.renderer.AssertNotCalled(t, "RenderStoryImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateStory_ClassifierFailureFailsClosed(t *testing.T) {
	f := newSagaFixture(t)
	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, mock.Anything).
		Return(model.ModerationVerdict{}, errors.New("classifier unreachable")).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)
	f.synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestGenerateStory_PersistenceFailureDoesNotCharge(t *testing.T) {
	f := newSagaFixture(t)
	synthesis := fiveSentenceSynthesis()

	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, mock.Anything).Return(safeVerdict(), nil).Twice()
	f.synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis, nil).Once()
	f.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, storage.StoryContainer, mock.Anything).
		Return(nil).Twice()
	f.renderer.On("RenderStoryImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(fiveImages(), nil).Once()
	f.renderer.On("RenderCovers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.CoverSet{}).Once()
	f.docs.On("CreateStory", mock.Anything, mock.Anything).
		Return(model.ErrPersistenceFailed).Once()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	f.ledger.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateStory_DeductFailureAfterPersistKeepsStory(t *testing.T) {
	f := newSagaFixture(t)
	synthesis := fiveSentenceSynthesis()

	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, mock.Anything).Return(safeVerdict(), nil).Twice()
	f.synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis, nil).Once()
	f.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, storage.StoryContainer, mock.Anything).
		Return(nil).Twice()
	f.renderer.On("RenderStoryImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(fiveImages(), nil).Once()
	f.renderer.On("RenderCovers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.CoverSet{}).Once()
	f.docs.On("CreateStory", mock.Anything, mock.Anything).Return(nil).Once()
	f.ledger.On("Deduct", mock.Anything, "user-1", 5, mock.Anything, mock.Anything).
		Return(0, errors.New("ledger down")).Once()

	// The story stands even though the deduction failed.
	record, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func storedRecord(userID string) model.StoryRecord {
	return model.StoryRecord{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "The Brave Turtle",
		Images: []model.ImageResult{
			{Index: 0, URL: "https://signed.example/stale-0"},
			{Index: 1, URL: "https://signed.example/stale-1"},
		},
		CoverImages: model.CoverSet{
			Front: &model.ImageResult{URL: "https://signed.example/stale-front"},
		},
	}
}

func TestListStories_RefreshesSignedURLs(t *testing.T) {
	f := newSagaFixture(t)
	page := &model.StoryPage{Stories: []model.StoryRecord{storedRecord("user-1"), storedRecord("user-1")}}

	f.docs.On("GetUserStories", mock.Anything, "user-1", 20, "").Return(page, nil).Once()
	f.blobs.On("SignedURL", mock.Anything, storage.ImageContainer, mock.Anything, mock.Anything).
		Return("https://signed.example/fresh", nil)

	got, err := f.svc.ListStories(context.Background(), "user-1", 20, "")
	require.NoError(t, err)
	require.Len(t, got.Stories, 2)
	// Every image and cover URL in the listing is freshly signed, never the
	// one persisted at generation time.
	for _, record := range got.Stories {
		for _, img := range record.Images {
			assert.Equal(t, "https://signed.example/fresh", img.URL)
		}
		require.NotNil(t, record.CoverImages.Front)
		assert.Equal(t, "https://signed.example/fresh", record.CoverImages.Front.URL)
	}
	// 2 images + 1 cover per story, 2 stories.
	f.blobs.AssertNumberOfCalls(t, "SignedURL", 6)
}

func TestGetStory_RefreshesSignedURLs(t *testing.T) {
	f := newSagaFixture(t)
	record := storedRecord("user-1")

	f.docs.On("GetStory", mock.Anything, "user-1", record.ID).Return(&record, nil).Once()
	f.blobs.On("SignedURL", mock.Anything, storage.ImageContainer, mock.Anything, mock.Anything).
		Return("https://signed.example/fresh", nil)

	got, err := f.svc.GetStory(context.Background(), "user-1", record.ID)
	require.NoError(t, err)
	for _, img := range got.Images {
		assert.Equal(t, "https://signed.example/fresh", img.URL)
	}
	require.NotNil(t, got.CoverImages.Front)
	assert.Equal(t, "https://signed.example/fresh", got.CoverImages.Front.URL)
}

func TestGenerateStory_ImageFanoutFailureAborts(t *testing.T) {
	f := newSagaFixture(t)
	synthesis := fiveSentenceSynthesis()

	f.lock.On("Acquire", mock.Anything, "user-1").Return(true, nil).Once()
	f.lock.On("Release", mock.Anything, "user-1").Return().Once()
	f.ledger.On("GetBalance", mock.Anything, "user-1").Return(10, nil).Once()
	f.gate.On("Check", mock.Anything, mock.Anything).Return(safeVerdict(), nil).Twice()
	f.synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis, nil).Once()
	f.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, storage.StoryContainer, mock.Anything).
		Return(nil).Twice()
	f.renderer.On("RenderStoryImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, model.ErrGenerationFailed).Once()
	f.renderer.On("RenderCovers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.CoverSet{}).Maybe()

	_, err := f.svc.GenerateStory(context.Background(), "user-1", generationRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrGenerationFailed)
	f.docs.AssertNotCalled(t, "CreateStory", mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Deduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
