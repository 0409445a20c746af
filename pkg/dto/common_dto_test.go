package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}
	assert.Equal(t, 0, p.Normalize())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)

	p = Pagination{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Normalize())

	p = Pagination{Page: 2, Limit: 500}
	assert.Equal(t, 50, p.Normalize())
	assert.Equal(t, 50, p.Limit)
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(1, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalItems)

	assert.Equal(t, 0, NewPaginationMeta(1, 20, 0).TotalPages)
}
