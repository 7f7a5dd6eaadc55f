// Package prompts builds the prompt strings used throughout the pipeline.
// Building is deterministic template fill; free-form caller input is only
// ever interpolated after it has passed the safety gate.
package prompts

import (
	"fmt"

	"storyfairy-server/internal/model"
)

// StorySystemPrompt is the fixed system role for story generation.
const StorySystemPrompt = "You are a creative storyteller for children."

// SimplifySystemPrompt is the fixed system role for the simplification call.
const SimplifySystemPrompt = "You are a helpful assistant that simplifies text."

const storyFormatInstructions = `Provide the response as a JSON object without any markdown elements or formatting. Format the story with each sentence as a separate entry in an array under the 'sentences' property, and include a unique, creative title in a property called 'Title'. Do NOT include any additional formatting or markdown.
Crucially, EVERY sentence must repeat the full visual details of the central character (name, appearance, attire, accessories), the scene (time of day, weather, environment), any supporting characters, and any significant objects, keeping those details consistent across all sentences. Be extremely repetitive with explicit details.`

// BuildStoryPrompt produces the user prompt for the initial detailed story.
// An empty topic asks for a random story.
func BuildStoryPrompt(topic string, length model.StoryLength, storyStyle string) string {
	n := length.SentenceCount()
	subject := "a random subject of your choosing"
	if topic != "" {
		subject = topic
	}
	return fmt.Sprintf(
		"Write a %s, imaginative and creative %d sentence children's story suitable for young readers about %s. The story should have a happy ending and its style should be %s.\n\n%s",
		length, n, subject, storyStyle, storyFormatInstructions,
	)
}

// BuildSimplifyPrompt asks for a reader-facing rewrite of the detailed story
// at the same sentence count.
func BuildSimplifyPrompt(detailedStory string, length model.StoryLength) string {
	return fmt.Sprintf(
		"Please simplify the following story into %d sentences, removing repetitive descriptions while maintaining the same narrative. Make the sentences as long and descriptive as possible while keeping the essence and key elements of the story intact:\n\n%s",
		length.SentenceCount(), detailedStory,
	)
}

// BuildImagePrompt produces the per-sentence illustration prompt.
func BuildImagePrompt(sentence, imageStyle string) string {
	return fmt.Sprintf("%s, %s style, children's book illustration, vibrant colors", sentence, imageStyle)
}

// BuildFrontCoverPrompt produces the front cover prompt from the title and
// overall story.
func BuildFrontCoverPrompt(title, storyText, imageStyle string) string {
	return fmt.Sprintf(
		"Front cover illustration for the children's book %q. The book is about: %s. %s style, children's book cover art, vibrant colors, space for title text",
		title, storyText, imageStyle,
	)
}

// BuildBackCoverPrompt produces the back cover prompt.
func BuildBackCoverPrompt(title, imageStyle string) string {
	return fmt.Sprintf(
		"Back cover illustration for the children's book %q, a calm closing scene echoing the story, %s style, children's book cover art, vibrant colors",
		title, imageStyle,
	)
}

// NegativeImagePrompt is appended as the negative prompt to every image call.
const NegativeImagePrompt = "ugly, blurry, distorted, text, watermark, extra limbs"
