package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/platform"
	"storyfairy-server/internal/provider"
	"storyfairy-server/internal/repository"
	"storyfairy-server/internal/storage"
)

const textContentType = "text/plain; charset=utf-8"

const deductReason = "story generation"

// SafetyGate screens text before any generation is spent on it.
type SafetyGate interface {
	Check(ctx context.Context, text string) (model.ModerationVerdict, error)
}

// StorySynthesizer runs the text half of the pipeline.
type StorySynthesizer interface {
	Synthesize(ctx context.Context, req *model.GenerationRequest) (*SynthesisResult, error)
}

// IllustrationRenderer runs the image half of the pipeline.
type IllustrationRenderer interface {
	RenderStoryImages(ctx context.Context, chain []string, sentences []string, imageStyle, baseName string) ([]model.ImageResult, error)
	RenderCovers(ctx context.Context, chain []string, title, storyText, imageStyle, baseName string) model.CoverSet
}

// StoryService is the application facade the HTTP layer talks to.
type StoryService interface {
	GenerateStory(ctx context.Context, userID string, req *model.GenerationRequest) (*model.StoryRecord, error)
	GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error)
	ListStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error)
	DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error
	GetBalance(ctx context.Context, userID string) (int, error)
	AddCredits(ctx context.Context, userID string, amount int) (int, error)
	CreditHistory(ctx context.Context, userID string, limit int) ([]repository.CreditTransaction, error)
}

type storyService struct {
	registry       *provider.Registry
	gate           SafetyGate
	synthesizer    StorySynthesizer
	renderer       IllustrationRenderer
	blobs          storage.BlobStore
	docs           repository.DocumentStore
	ledger         repository.Ledger
	lock           platform.GenerationLock
	imageFallbacks []string
	signedTTL      time.Duration
	logger         *zap.Logger
}

// NewStoryService wires the pipeline stages into the saga. imageFallbacks is
// the ordered list of image models tried after the requested one.
func NewStoryService(
	registry *provider.Registry,
	gate SafetyGate,
	synthesizer StorySynthesizer,
	renderer IllustrationRenderer,
	blobs storage.BlobStore,
	docs repository.DocumentStore,
	ledger repository.Ledger,
	lock platform.GenerationLock,
	imageFallbacks []string,
	signedTTL time.Duration,
	logger *zap.Logger,
) StoryService {
	return &storyService{
		registry:       registry,
		gate:           gate,
		synthesizer:    synthesizer,
		renderer:       renderer,
		blobs:          blobs,
		docs:           docs,
		ledger:         ledger,
		lock:           lock,
		imageFallbacks: imageFallbacks,
		signedTTL:      signedTTL,
		logger:         logger.Named("StoryService"),
	}
}

// GenerateStory runs the full pipeline for one request. Ordering is strict:
// credits are checked before any generation and deducted only after the
// record is durably persisted.
func (s *storyService) GenerateStory(ctx context.Context, userID string, req *model.GenerationRequest) (*model.StoryRecord, error) {
	req.ApplyDefaults()
	log := s.logger.With(
		zap.String("user_id", userID),
		zap.String("story_model", req.StoryModel),
		zap.String("image_model", req.ImageModel))

	// Both model keys must resolve before anything is spent.
	if _, err := s.registry.Text(req.StoryModel); err != nil {
		return nil, translateProviderError(err)
	}
	if _, err := s.registry.Image(req.ImageModel); err != nil {
		return nil, translateProviderError(err)
	}

	acquired, err := s.lock.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !acquired {
		return nil, model.ErrGenerationInProgress
	}
	defer s.lock.Release(context.WithoutCancel(ctx), userID)

	sentenceCount := req.StoryLength.SentenceCount()
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	if balance < sentenceCount {
		log.Warn("Generation rejected, balance too low",
			zap.Int("balance", balance),
			zap.Int("required", sentenceCount))
		return nil, model.ErrInsufficientCredits
	}

	if req.Topic != "" {
		if err := s.screen(ctx, req.Topic); err != nil {
			log.Warn("Topic rejected by safety gate", zap.Error(err))
			return nil, err
		}
	}

	synthesis, err := s.synthesizer.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.screen(ctx, synthesis.DetailedText); err != nil {
		log.Warn("Generated story rejected by safety gate", zap.Error(err))
		return nil, err
	}

	storyID := uuid.New()
	baseName := storage.BlobBaseName(synthesis.Story.Title, storyID.String())

	if err := s.persistTexts(ctx, baseName, synthesis); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err)
	}

	chain := s.imageChain(req.ImageModel)
	var images []model.ImageResult
	var covers model.CoverSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var renderErr error
		images, renderErr = s.renderer.RenderStoryImages(gctx, chain, synthesis.Story.Sentences, req.ImageStyle, baseName)
		return renderErr
	})
	g.Go(func() error {
		covers = s.renderer.RenderCovers(gctx, chain, synthesis.Story.Title, synthesis.SimplifiedText, req.ImageStyle, baseName)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	record := &model.StoryRecord{
		ID:                storyID,
		UserID:            userID,
		Title:             synthesis.Story.Title,
		StoryText:         synthesis.SimplifiedText,
		DetailedStoryText: synthesis.DetailedText,
		StoryBlobName:     storage.StoryBlobName(baseName),
		DetailedBlobName:  storage.DetailedBlobName(baseName),
		Images:            images,
		CoverImages:       covers,
		CreatedAt:         time.Now().UTC(),
		Metadata: model.StoryMetadata{
			Topic:       req.Topic,
			StoryLength: req.StoryLength,
			ImageStyle:  req.ImageStyle,
			StoryModel:  req.StoryModel,
			ImageModel:  req.ImageModel,
			StoryStyle:  req.StoryStyle,
			CreditsUsed: sentenceCount,
		},
	}

	if err := s.docs.CreateStory(ctx, record); err != nil {
		return nil, err
	}

	// The record is durable from here on. A deduction failure is an anomaly
	// to investigate, never a reason to fail the request or roll back.
	storyIDStr := storyID.String()
	if _, err := s.ledger.Deduct(context.WithoutCancel(ctx), userID, sentenceCount, deductReason, &storyIDStr); err != nil {
		log.Error("ANOMALY: credit deduction failed after story was persisted",
			zap.String("story_id", storyIDStr),
			zap.Int("amount", sentenceCount),
			zap.Error(err))
	}

	log.Info("Story generated",
		zap.String("story_id", storyIDStr),
		zap.String("title", record.Title),
		zap.Int("images", len(images)),
		zap.Int("credits_used", sentenceCount))
	return record, nil
}

// screen runs text through the safety gate, converting an unsafe verdict
// into the typed rejection error. A classifier failure fails closed.
func (s *storyService) screen(ctx context.Context, text string) error {
	verdict, err := s.gate.Check(ctx, text)
	if err != nil {
		return err
	}
	if !verdict.Safe {
		return &model.UnsafeContentError{Violations: verdict.Violations}
	}
	return nil
}

// persistTexts uploads both renditions of the story text concurrently.
func (s *storyService) persistTexts(ctx context.Context, baseName string, synthesis *SynthesisResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.blobs.Put(gctx, []byte(synthesis.SimplifiedText), textContentType, storage.StoryContainer, storage.StoryBlobName(baseName))
	})
	g.Go(func() error {
		return s.blobs.Put(gctx, []byte(synthesis.DetailedText), textContentType, storage.StoryContainer, storage.DetailedBlobName(baseName))
	})
	return g.Wait()
}

// imageChain is the requested model followed by the configured fallbacks,
// deduplicated, order preserved.
func (s *storyService) imageChain(requested string) []string {
	chain := make([]string, 0, len(s.imageFallbacks)+1)
	chain = append(chain, requested)
	for _, key := range s.imageFallbacks {
		if key != requested {
			chain = append(chain, key)
		}
	}
	return chain
}

func (s *storyService) GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error) {
	record, err := s.docs.GetStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	s.refreshImageURLs(ctx, record)
	return record, nil
}

func (s *storyService) ListStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error) {
	page, err := s.docs.GetUserStories(ctx, userID, limit, cursor)
	if err != nil {
		return nil, err
	}
	// Stored URLs were signed at generation time and are long expired.
	for i := range page.Stories {
		s.refreshImageURLs(ctx, &page.Stories[i])
	}
	return page, nil
}

func (s *storyService) DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error {
	return s.docs.DeleteStory(ctx, userID, storyID)
}

func (s *storyService) GetBalance(ctx context.Context, userID string) (int, error) {
	return s.ledger.GetBalance(ctx, userID)
}

func (s *storyService) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	return s.ledger.Add(ctx, userID, amount, "credit top-up")
}

func (s *storyService) CreditHistory(ctx context.Context, userID string, limit int) ([]repository.CreditTransaction, error) {
	return s.ledger.History(ctx, userID, limit)
}

// refreshImageURLs re-signs the stored blob URLs. Persisted presigned URLs
// expire after minutes; reads issue fresh ones.
func (s *storyService) refreshImageURLs(ctx context.Context, record *model.StoryRecord) {
	baseName := storage.BlobBaseName(record.Title, record.ID.String())
	for i := range record.Images {
		name := storage.ImageBlobName(baseName, record.Images[i].Index)
		if url, err := s.blobs.SignedURL(ctx, storage.ImageContainer, name, s.signedTTL); err == nil {
			record.Images[i].URL = url
		}
	}
	if record.CoverImages.Front != nil {
		if url, err := s.blobs.SignedURL(ctx, storage.ImageContainer, storage.FrontCoverBlobName(baseName), s.signedTTL); err == nil {
			record.CoverImages.Front.URL = url
		}
	}
	if record.CoverImages.Back != nil {
		if url, err := s.blobs.SignedURL(ctx, storage.ImageContainer, storage.BackCoverBlobName(baseName), s.signedTTL); err == nil {
			record.CoverImages.Back.URL = url
		}
	}
}
