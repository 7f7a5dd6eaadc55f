package model

import "strings"

// StoryLength controls how many sentences the generated story contains.
type StoryLength string

const (
	StoryLengthShort  StoryLength = "short"
	StoryLengthMedium StoryLength = "medium"
	StoryLengthLong   StoryLength = "long"
	StoryLengthEpic   StoryLength = "epic"
	StoryLengthSaga   StoryLength = "saga"
)

// sentenceCounts maps a story length to the number of sentences requested
// from the text model. One credit is charged per sentence.
var sentenceCounts = map[StoryLength]int{
	StoryLengthShort:  5,
	StoryLengthMedium: 7,
	StoryLengthLong:   9,
	StoryLengthEpic:   12,
	StoryLengthSaga:   15,
}

// SentenceCount returns the sentence count for the length. Unknown values
// fall back to short/5 rather than failing the request.
func (l StoryLength) SentenceCount() int {
	if n, ok := sentenceCounts[StoryLength(strings.ToLower(string(l)))]; ok {
		return n
	}
	return sentenceCounts[StoryLengthShort]
}

// GenerationRequest describes a single story generation job as submitted by
// the caller. Topic may be empty, which asks for a random story.
type GenerationRequest struct {
	Topic       string      `json:"topic"`
	StoryLength StoryLength `json:"storyLength"`
	ImageStyle  string      `json:"imageStyle"`
	StoryModel  string      `json:"storyModel"`
	ImageModel  string      `json:"imageModel"`
	StoryStyle  string      `json:"storyStyle"`
	VoiceName   string      `json:"voiceName"`
}

// ApplyDefaults fills the free-form fields the same way the HTTP layer
// historically did, so the pipeline never sees empty style selectors.
func (r *GenerationRequest) ApplyDefaults() {
	if r.StoryLength == "" {
		r.StoryLength = StoryLengthShort
	}
	if r.ImageStyle == "" {
		r.ImageStyle = "whimsical"
	}
	if r.StoryStyle == "" {
		r.StoryStyle = "adventure"
	}
	if r.StoryModel == "" {
		r.StoryModel = "gemini"
	}
	if r.ImageModel == "" {
		r.ImageModel = "flux_schnell"
	}
}
