package provider

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
)

// ImageConfig configures one image backend. All backends expose the same
// prompt-in/URL-out JSON contract; Model selects the upstream model on the
// shared endpoint.
type ImageConfig struct {
	BaseURL    string
	Token      string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// httpImage implements ImageProvider against a JSON generation endpoint.
type httpImage struct {
	client     *http.Client
	baseURL    string
	token      string
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewHTTPImage creates an image adapter for one backend model.
func NewHTTPImage(cfg ImageConfig, logger *zap.Logger) (ImageProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("image provider base URL is empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("image provider model name is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &httpImage{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("ImageProvider").With(zap.String("model", cfg.Model)),
	}, nil
}

type imageAPIRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	NumOutputs     int    `json:"num_outputs"`
}

type imageAPIResponse struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

func (c *httpImage) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (string, error) {
	payload := imageAPIRequest{
		Model:          c.model,
		Prompt:         prompt,
		AspectRatio:    opts.AspectRatio,
		NegativePrompt: opts.NegativePrompt,
		NumOutputs:     1,
	}
	if payload.AspectRatio == "" {
		payload.AspectRatio = "1:1"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrFatal, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		url, err := c.doGenerate(ctx, body)
		duration := time.Since(start)

		if err == nil {
			requestsTotal.With(statusLabels("image", c.model, "success")).Inc()
			requestDuration.With(callLabels("image", c.model)).Observe(duration.Seconds())
			c.logger.Debug("Image generation succeeded", zap.Duration("duration", duration))
			return url, nil
		}

		lastErr = err
		requestsTotal.With(statusLabels("image", c.model, "error")).Inc()
		c.logger.Warn("Image generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, ErrFatal) || attempt >= c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrEmptyResult, ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return "", lastErr
}

func (c *httpImage) doGenerate(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrFatal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// A timed-out image call costs the slot, not the request.
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrEmptyResult, err)
		}
		return "", fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: API returned status %d: %s", ErrRetryable, resp.StatusCode, string(respBody))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: API returned status %d: %s", ErrFatal, resp.StatusCode, string(respBody))
	case readErr != nil:
		return "", fmt.Errorf("%w: read response body: %v", ErrRetryable, readErr)
	}

	var parsed imageAPIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRetryable, err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResult, parsed.Error)
	}
	if len(parsed.Output) == 0 || parsed.Output[0] == "" {
		return "", fmt.Errorf("%w: API returned no output", ErrEmptyResult)
	}
	return parsed.Output[0], nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
