package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDBName(t *testing.T) {
	assert.Equal(t, "decks", extractDBName("mongodb://localhost:27017/decks"))
	assert.Equal(t, "algomancy", extractDBName("mongodb://localhost:27017/"))
	assert.Equal(t, "algomancy", extractDBName("mongodb://localhost:27017"))
	assert.Equal(t, "algomancy", extractDBName("://bad"))
}
