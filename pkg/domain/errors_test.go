package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrapKeepsSentinel(t *testing.T) {
	sentinel := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewConflictError("conflict").Wrap(sentinel))

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(sentinel))
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, res.TotalPages)

	empty := NewPaginatedResult[int](nil, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
