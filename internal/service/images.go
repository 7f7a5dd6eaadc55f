package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/prompts"
	"storyfairy-server/internal/provider"
	"storyfairy-server/internal/storage"
)

const imageContentType = "image/png"

// maxImageDownloadBytes caps one downloaded illustration.
const maxImageDownloadBytes = 32 << 20

// ImageRenderer runs the illustration fan-out: one image per sentence plus
// the two covers, each rendered, downloaded, persisted and presigned.
type ImageRenderer struct {
	registry    *provider.Registry
	blobs       storage.BlobStore
	httpClient  *http.Client
	signedTTL   time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewImageRenderer creates the renderer. concurrency <= 0 means unbounded
// fan-out (one worker per sentence).
func NewImageRenderer(registry *provider.Registry, blobs storage.BlobStore, signedTTL time.Duration, concurrency int, logger *zap.Logger) *ImageRenderer {
	return &ImageRenderer{
		registry:    registry,
		blobs:       blobs,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		signedTTL:   signedTTL,
		concurrency: concurrency,
		logger:      logger.Named("ImageRenderer"),
	}
}

// RenderStoryImages generates one illustration per sentence. Slots are
// pre-allocated at the sentence index so fan-in keeps narrative order; a
// failed worker leaves its slot empty and the gaps are compacted after the
// join. Every slot failing for a non-empty sentence list fails the whole
// stage.
func (r *ImageRenderer) RenderStoryImages(ctx context.Context, chain []string, sentences []string, imageStyle, baseName string) ([]model.ImageResult, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	slots := make([]*model.ImageResult, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, sentence := range sentences {
		g.Go(func() error {
			prompt := prompts.BuildImagePrompt(sentence, imageStyle)
			blobName := storage.ImageBlobName(baseName, i)
			result, err := r.renderOne(gctx, chain, prompt, blobName)
			if err != nil {
				// Sibling workers keep going; the slot stays empty.
				r.logger.Warn("Image slot failed",
					zap.Int("index", i),
					zap.Error(err))
				return nil
			}
			result.Index = i
			slots[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]model.ImageResult, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: every image slot failed", model.ErrGenerationFailed)
	}
	if len(results) < len(sentences) {
		r.logger.Warn("Some image slots failed",
			zap.Int("succeeded", len(results)),
			zap.Int("expected", len(sentences)))
	}
	return results, nil
}

// RenderCovers generates the front and back covers concurrently. Covers are
// decorative; a failed cover is simply absent.
func (r *ImageRenderer) RenderCovers(ctx context.Context, chain []string, title, storyText, imageStyle, baseName string) model.CoverSet {
	var covers model.CoverSet
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prompt := prompts.BuildFrontCoverPrompt(title, storyText, imageStyle)
		result, err := r.renderOne(gctx, chain, prompt, storage.FrontCoverBlobName(baseName))
		if err != nil {
			r.logger.Warn("Front cover generation failed", zap.Error(err))
			return nil
		}
		covers.Front = result
		return nil
	})
	g.Go(func() error {
		prompt := prompts.BuildBackCoverPrompt(title, imageStyle)
		result, err := r.renderOne(gctx, chain, prompt, storage.BackCoverBlobName(baseName))
		if err != nil {
			r.logger.Warn("Back cover generation failed", zap.Error(err))
			return nil
		}
		covers.Back = result
		return nil
	})
	_ = g.Wait()
	return covers
}

// renderOne is the full life of a single illustration: generate a URL with
// the ordered model fallback, download the bytes, persist them and issue a
// presigned read URL.
func (r *ImageRenderer) renderOne(ctx context.Context, chain []string, prompt, blobName string) (*model.ImageResult, error) {
	opts := provider.ImageOptions{NegativePrompt: prompts.NegativeImagePrompt}
	vendorURL, err := r.registry.GenerateImageWithFallback(ctx, chain, prompt, opts)
	if err != nil {
		return nil, translateProviderError(err)
	}

	data, err := r.download(ctx, vendorURL)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if err := r.blobs.Put(ctx, data, imageContentType, storage.ImageContainer, blobName); err != nil {
		return nil, err
	}
	signedURL, err := r.blobs.SignedURL(ctx, storage.ImageContainer, blobName, r.signedTTL)
	if err != nil {
		return nil, err
	}

	return &model.ImageResult{
		URL:        signedURL,
		PromptUsed: prompt,
	}, nil
}

func (r *ImageRenderer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching image", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageDownloadBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image body was empty")
	}
	return data, nil
}
