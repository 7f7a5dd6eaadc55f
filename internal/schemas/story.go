// Package schemas parses model output into domain structures. Parsers are
// pure functions: the same input text always yields the same result.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"

	"storyfairy-server/internal/model"
)

// rawStory mirrors the JSON shape the story prompt demands from the model.
type rawStory struct {
	Title     string            `json:"Title"`
	Sentences []json.RawMessage `json:"sentences"`
}

// ParseStory parses raw generation output into a StructuredStory.
//
// Models occasionally wrap the JSON in a markdown fence despite being told
// not to; a fence present at both ends is stripped before parsing. Sentences
// are trimmed and empty ones dropped (callers may log how many were dropped
// via the returned count). Failure modes are distinct so callers can decide
// between regenerating and aborting: structural problems return
// model.ErrMalformedOutput, a structurally valid story whose sentences are
// all empty returns model.ErrEmptyStory.
func ParseStory(text string) (*model.StructuredStory, int, error) {
	cleaned := StripFences(text)

	var raw rawStory
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", model.ErrMalformedOutput, err)
	}
	if raw.Title == "" {
		return nil, 0, fmt.Errorf("%w: missing Title field", model.ErrMalformedOutput)
	}
	if raw.Sentences == nil {
		return nil, 0, fmt.Errorf("%w: missing sentences field", model.ErrMalformedOutput)
	}

	sentences := make([]string, 0, len(raw.Sentences))
	dropped := 0
	for i, rawSentence := range raw.Sentences {
		var s string
		if err := json.Unmarshal(rawSentence, &s); err != nil {
			return nil, 0, fmt.Errorf("%w: sentence %d is not a string", model.ErrMalformedOutput, i)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			dropped++
			continue
		}
		sentences = append(sentences, s)
	}

	if len(sentences) == 0 {
		return nil, dropped, fmt.Errorf("%w: all %d sentences empty after cleaning", model.ErrEmptyStory, len(raw.Sentences))
	}

	return &model.StructuredStory{Title: raw.Title, Sentences: sentences}, dropped, nil
}

// SerializeStory renders a StructuredStory back into the JSON shape the
// prompt demands. ParseStory(SerializeStory(s)) reproduces s.
func SerializeStory(story *model.StructuredStory) (string, error) {
	out, err := json.Marshal(struct {
		Title     string   `json:"Title"`
		Sentences []string `json:"sentences"`
	}{Title: story.Title, Sentences: story.Sentences})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// StripFences removes a markdown code fence when it wraps the whole text.
// Text without a leading fence is returned unchanged.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
