package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "The_Brave_Fox", SanitizeTitle("The Brave Fox"))
	assert.Equal(t, "Clouds_Journey", SanitizeTitle("Cloud's Journey!"))
	assert.Equal(t, "story", SanitizeTitle("???"))
	assert.Equal(t, "story", SanitizeTitle("   "))
}

func TestBlobNames(t *testing.T) {
	base := BlobBaseName("The Brave Fox", "abc123")
	assert.Equal(t, "The_Brave_Fox_abc123", base)

	// Image names are one-based while slot indexes are zero-based.
	assert.Equal(t, "The_Brave_Fox_abc123-image1.png", ImageBlobName(base, 0))
	assert.Equal(t, "The_Brave_Fox_abc123-image5.png", ImageBlobName(base, 4))

	assert.Equal(t, "The_Brave_Fox_abc123-cover-front.png", FrontCoverBlobName(base))
	assert.Equal(t, "The_Brave_Fox_abc123-cover-back.png", BackCoverBlobName(base))
	assert.Equal(t, "The_Brave_Fox_abc123.txt", StoryBlobName(base))
	assert.Equal(t, "The_Brave_Fox_abc123-detailed.txt", DetailedBlobName(base))
}
