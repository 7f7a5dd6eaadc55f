package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StructuredStory is the parsed output of a story generation call: a title
// plus the sentences in narrative order. Sentences is never empty for a
// successfully parsed story.
type StructuredStory struct {
	Title     string   `json:"Title"`
	Sentences []string `json:"sentences"`
}

// DetailedText joins the sentences into the full, repetitive story text that
// feeds image prompt construction and the simplification call.
func (s *StructuredStory) DetailedText() string {
	return strings.Join(s.Sentences, " ")
}

// ImageResult is one generated illustration, tagged with the index of the
// sentence it belongs to. Index is preserved through the fan-out so an image
// can never drift to a different sentence.
type ImageResult struct {
	Index      int    `json:"index" bson:"index"`
	URL        string `json:"imageUrl" bson:"url"`
	PromptUsed string `json:"prompt" bson:"prompt_used"`
}

// CoverSet holds the optional front and back cover illustrations. Covers are
// decorative; a nil entry means that cover job did not produce a result.
type CoverSet struct {
	Front *ImageResult `json:"frontCover,omitempty" bson:"front,omitempty"`
	Back  *ImageResult `json:"backCover,omitempty" bson:"back,omitempty"`
}

// StoryMetadata records the request parameters a story was generated with.
type StoryMetadata struct {
	Topic       string      `json:"topic" bson:"topic"`
	StoryLength StoryLength `json:"storyLength" bson:"story_length"`
	ImageStyle  string      `json:"imageStyle" bson:"image_style"`
	StoryModel  string      `json:"storyModel" bson:"story_model"`
	ImageModel  string      `json:"imageModel" bson:"image_model"`
	StoryStyle  string      `json:"storyStyle" bson:"story_style"`
	CreditsUsed int         `json:"creditsUsed" bson:"credits_used"`
}

// StoryRecord is the persisted aggregate. It is assembled only after every
// upstream stage succeeded and is written exactly once; the only mutation
// allowed afterwards is deletion.
type StoryRecord struct {
	ID                uuid.UUID     `json:"id" bson:"_id"`
	UserID            string        `json:"userId" bson:"user_id"`
	Title             string        `json:"title" bson:"title"`
	StoryText         string        `json:"storyText" bson:"story_text"`
	DetailedStoryText string        `json:"detailedStoryText" bson:"detailed_story_text"`
	StoryBlobName     string        `json:"storyBlobName" bson:"story_blob_name"`
	DetailedBlobName  string        `json:"detailedBlobName" bson:"detailed_blob_name"`
	Images            []ImageResult `json:"images" bson:"images"`
	CoverImages       CoverSet      `json:"coverImages" bson:"cover_images"`
	CreatedAt         time.Time     `json:"createdAt" bson:"created_at"`
	Metadata          StoryMetadata `json:"metadata" bson:"metadata"`
}

// StoryPage is one page of a user's story list.
type StoryPage struct {
	Stories    []StoryRecord `json:"stories"`
	NextCursor string        `json:"nextCursor,omitempty"`
}
