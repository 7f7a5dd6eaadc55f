package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SanitizeTitle turns a story title into a blob-name-safe slug.
func SanitizeTitle(title string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	slug = unsafeNameChars.ReplaceAllString(slug, "")
	if slug == "" {
		slug = "story"
	}
	return slug
}

// BlobBaseName builds the common prefix shared by all blobs of one story.
func BlobBaseName(title, uniqueID string) string {
	return fmt.Sprintf("%s_%s", SanitizeTitle(title), uniqueID)
}

// ImageBlobName names the illustration blob for a sentence. Index is the
// zero-based sentence position; blob names are one-based.
func ImageBlobName(base string, index int) string {
	return fmt.Sprintf("%s-image%d.png", base, index+1)
}

// FrontCoverBlobName names the front cover blob.
func FrontCoverBlobName(base string) string {
	return base + "-cover-front.png"
}

// BackCoverBlobName names the back cover blob.
func BackCoverBlobName(base string) string {
	return base + "-cover-back.png"
}

// StoryBlobName names the simplified story text blob.
func StoryBlobName(base string) string {
	return base + ".txt"
}

// DetailedBlobName names the detailed story text blob.
func DetailedBlobName(base string) string {
	return base + "-detailed.txt"
}
