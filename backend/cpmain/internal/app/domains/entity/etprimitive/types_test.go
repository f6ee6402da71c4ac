package etprimitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 20}, NewPagination(0, 0))
	assert.Equal(t, Pagination{Page: 3, Limit: 100}, NewPagination(3, 500))

	p := NewPagination(3, 10)
	assert.Equal(t, 20, p.Offset())
}
