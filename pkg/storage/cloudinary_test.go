package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712345/deck_covers/123-storm.webp": "deck_covers/123-storm",
		"https://res.cloudinary.com/demo/image/upload/deck_covers/vortex.webp":             "deck_covers/vortex",
		"https://res.cloudinary.com/demo/image/upload/cover.png":                           "cover",
		"https://example.com/no/upload-segment.png":                                        "",
		"https://res.cloudinary.com/demo/image/upload/":                                    "",
	}

	for in, want := range cases {
		assert.Equal(t, want, ExtractPublicID(in), in)
	}
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("cover.PNG"))
	assert.True(t, IsImageFile("art.webp"))
	assert.False(t, IsImageFile("deck.json"))
	assert.False(t, IsImageFile("noext"))
}
