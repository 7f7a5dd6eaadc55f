// Package safety gates text content before it reaches children. The gate
// fails closed: when the classifier cannot be reached the request is
// rejected rather than assumed safe.
package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

// ErrClassifierUnavailable - the moderation backend failed. Callers must
// treat this as fatal for the request.
var ErrClassifierUnavailable = errors.New("safety classifier unavailable")

// Classifier scores text against the moderated categories.
type Classifier interface {
	Analyze(ctx context.Context, text string) (model.CategoryScores, error)
}

// ClassifierConfig configures the HTTP moderation client.
type ClassifierConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// httpClassifier calls a Content Safety style text-analysis endpoint.
type httpClassifier struct {
	client   *http.Client
	endpoint string
	apiKey   string
	logger   *zap.Logger
}

// NewHTTPClassifier creates the moderation client.
func NewHTTPClassifier(cfg ClassifierConfig, logger *zap.Logger) (Classifier, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("safety classifier endpoint is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &httpClassifier{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		logger:   logger.Named("SafetyClassifier"),
	}, nil
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	CategoriesAnalysis []struct {
		Category string `json:"category"`
		Severity int    `json:"severity"`
	} `json:"categoriesAnalysis"`
}

func (c *httpClassifier) Analyze(ctx context.Context, text string) (model.CategoryScores, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Classifier request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Classifier returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", respBody),
		)
		return nil, fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrClassifierUnavailable, readErr)
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrClassifierUnavailable, err)
	}

	scores := make(model.CategoryScores, len(model.Categories))
	for _, cat := range model.Categories {
		scores[cat] = 0
	}
	for _, entry := range parsed.CategoriesAnalysis {
		scores[model.Category(entry.Category)] = entry.Severity
	}

	c.logger.Debug("Text classified",
		zap.Duration("duration", time.Since(start)),
		zap.Int("text_chars", len(text)),
	)
	return scores, nil
}
