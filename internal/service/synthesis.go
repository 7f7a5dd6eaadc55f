// Package service implements the story generation pipeline and the
// surrounding orchestration.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/prompts"
	"storyfairy-server/internal/provider"
	"storyfairy-server/internal/schemas"
)

// SynthesisResult is the text half of a finished pipeline run: the parsed
// structured story plus the two renditions of its text.
type SynthesisResult struct {
	Story          *model.StructuredStory
	DetailedText   string
	SimplifiedText string
	Usage          provider.Usage
}

// Synthesizer runs the two text generation calls of the pipeline: the
// detailed structured story and its simplified rewrite.
type Synthesizer struct {
	registry  *provider.Registry
	maxTokens int
	logger    *zap.Logger
}

// NewSynthesizer creates the text synthesis stage.
func NewSynthesizer(registry *provider.Registry, maxTokens int, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		registry:  registry,
		maxTokens: maxTokens,
		logger:    logger.Named("Synthesizer"),
	}
}

// Synthesize generates, parses and simplifies a story for the request. The
// topic must already have passed the safety gate.
func (s *Synthesizer) Synthesize(ctx context.Context, req *model.GenerationRequest) (*SynthesisResult, error) {
	textProvider, err := s.registry.Text(req.StoryModel)
	if err != nil {
		return nil, translateProviderError(err)
	}
	log := s.logger.With(zap.String("story_model", req.StoryModel))

	userPrompt := prompts.BuildStoryPrompt(req.Topic, req.StoryLength, req.StoryStyle)
	raw, usage, err := textProvider.GenerateText(ctx, prompts.StorySystemPrompt, userPrompt, s.maxTokens)
	if err != nil {
		log.Error("Story generation call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrGenerationFailed, err)
	}

	story, dropped, err := schemas.ParseStory(raw)
	if err != nil {
		// Parse failures abort the request; no regeneration.
		log.Error("Failed to parse generation output",
			zap.Error(err),
			zap.Int("raw_len", len(raw)))
		return nil, err
	}
	if dropped > 0 {
		log.Warn("Dropped empty sentences from generation output", zap.Int("dropped", dropped))
	}

	detailed := story.DetailedText()
	simplified := s.simplify(ctx, textProvider, detailed, req.StoryLength, log)

	log.Info("Story synthesized",
		zap.String("title", story.Title),
		zap.Int("sentences", len(story.Sentences)),
		zap.Int("total_tokens", usage.TotalTokens))

	return &SynthesisResult{
		Story:          story,
		DetailedText:   detailed,
		SimplifiedText: simplified,
		Usage:          usage,
	}, nil
}

// simplify runs the second text call. Simplification is best effort: any
// failure degrades to the detailed text unchanged.
func (s *Synthesizer) simplify(ctx context.Context, p provider.TextProvider, detailed string, length model.StoryLength, log *zap.Logger) string {
	userPrompt := prompts.BuildSimplifyPrompt(detailed, length)
	simplified, _, err := p.GenerateText(ctx, prompts.SimplifySystemPrompt, userPrompt, s.maxTokens)
	if err != nil {
		log.Warn("Simplification failed, falling back to detailed text", zap.Error(err))
		return detailed
	}
	simplified = schemas.StripFences(simplified)
	if simplified == "" {
		log.Warn("Simplification returned empty text, falling back to detailed text")
		return detailed
	}
	return simplified
}

// translateProviderError maps registry resolution failures to the caller
// error taxonomy.
func translateProviderError(err error) error {
	if errors.Is(err, provider.ErrUnknownModel) {
		return fmt.Errorf("%w: %v", model.ErrInvalidModel, err)
	}
	return err
}
