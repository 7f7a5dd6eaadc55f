package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TextConfig configures one OpenAI-compatible text backend.
type TextConfig struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// openAIText implements TextProvider against any OpenAI-compatible chat
// endpoint. All registered story models are instances of this type with
// different base URLs; provider-specific behavior lives in configuration,
// not in pipeline branches.
type openAIText struct {
	client     *openaigo.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewOpenAIText creates a text adapter for one backend.
func NewOpenAIText(cfg TextConfig, logger *zap.Logger) (TextProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("text provider API key is empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("text provider model name is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	clientConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIText{
		client:     openaigo.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("TextProvider").With(zap.String("model", cfg.Model)),
	}, nil
}

func (c *openAIText) GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		return "", usage, fmt.Errorf("%w: system prompt is empty", ErrFatal)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role: openaigo.ChatMessageRoleUser, Content: userPrompt,
		})
	}

	req := openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, req)
		duration := time.Since(start)

		if err != nil {
			lastErr = c.classify(err)
			requestsTotal.With(statusLabels("text", c.model, "error")).Inc()
			c.logger.Warn("Text generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			if errors.Is(lastErr, ErrFatal) || attempt >= c.maxRetries {
				return "", usage, lastErr
			}
			select {
			case <-ctx.Done():
				return "", usage, fmt.Errorf("%w: %v", ErrFatal, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("%w: no choices returned", ErrEmptyResult)
			requestsTotal.With(statusLabels("text", c.model, "error_empty")).Inc()
			if attempt >= c.maxRetries {
				return "", usage, lastErr
			}
			continue
		}

		text := resp.Choices[0].Message.Content
		requestsTotal.With(statusLabels("text", c.model, "success")).Inc()
		requestDuration.With(callLabels("text", c.model)).Observe(duration.Seconds())

		if resp.Usage.TotalTokens > 0 {
			usage.PromptTokens = resp.Usage.PromptTokens
			usage.CompletionTokens = resp.Usage.CompletionTokens
			usage.TotalTokens = resp.Usage.TotalTokens
		} else {
			usage = c.estimateUsage(systemPrompt, userPrompt, text)
		}
		if usage.TotalTokens > 0 {
			totalTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(usage.TotalTokens))
		}

		c.logger.Debug("Text generation succeeded",
			zap.Duration("duration", duration),
			zap.Int("response_chars", len(text)),
			zap.Int("total_tokens", usage.TotalTokens),
		)
		return text, usage, nil
	}

	return "", usage, lastErr
}

// classify maps vendor errors onto the adapter error classes. Text has no
// partial-credit concept, so timeouts are fatal for the request.
func (c *openAIText) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRetryable, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrRetryable, err)
		default:
			return fmt.Errorf("%w: %v", ErrFatal, err)
		}
	}
	// Network-level errors are worth a retry.
	return fmt.Errorf("%w: %v", ErrRetryable, err)
}

// estimateUsage computes token counts locally for backends that omit the
// usage block.
func (c *openAIText) estimateUsage(systemPrompt, userPrompt, response string) Usage {
	tke, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		// Unknown model for the tokenizer, fall back to a generic encoding.
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return Usage{}
		}
	}
	prompt := len(tke.Encode(systemPrompt, nil, nil)) + len(tke.Encode(userPrompt, nil, nil))
	completion := len(tke.Encode(response, nil, nil))
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
