package safety

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

// DefaultThreshold is the severity at or above which a category counts as a
// violation, on the classifier's 0..7 scale.
const DefaultThreshold = 2

// Gate turns classifier scores into an allow/deny verdict.
type Gate struct {
	classifier Classifier
	threshold  int
	verdicts   *gocache.Cache
	logger     *zap.Logger
}

// NewGate creates a gate over the given classifier. Verdicts are memoized
// in-process for a few minutes: they are pure functions of the text, and the
// same topic tends to be resubmitted after a rejection.
func NewGate(classifier Classifier, threshold int, logger *zap.Logger) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{
		classifier: classifier,
		threshold:  threshold,
		verdicts:   gocache.New(5*time.Minute, 10*time.Minute),
		logger:     logger.Named("SafetyGate"),
	}
}

// Check classifies text and applies the severity threshold. A classifier
// failure is returned as an error, never as a safe verdict.
func (g *Gate) Check(ctx context.Context, text string) (model.ModerationVerdict, error) {
	key := cacheKey(text)
	if cached, ok := g.verdicts.Get(key); ok {
		return cached.(model.ModerationVerdict), nil
	}

	scores, err := g.classifier.Analyze(ctx, text)
	if err != nil {
		return model.ModerationVerdict{}, fmt.Errorf("safety check failed: %w", err)
	}

	verdict := Evaluate(scores, g.threshold)
	if !verdict.Safe {
		g.logger.Warn("Content rejected",
			zap.Any("violations", verdict.Violations),
			zap.Int("text_chars", len(text)),
		)
	}
	g.verdicts.SetDefault(key, verdict)
	return verdict, nil
}

// Evaluate applies the threshold to a score set. Pure function: Safe is true
// iff every category scores below the threshold.
func Evaluate(scores model.CategoryScores, threshold int) model.ModerationVerdict {
	verdict := model.ModerationVerdict{Safe: true, Scores: scores}
	for _, cat := range model.Categories {
		if scores[cat] >= threshold {
			verdict.Safe = false
			verdict.Violations = append(verdict.Violations, cat)
		}
	}
	return verdict
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
