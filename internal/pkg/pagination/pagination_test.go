package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"libraryhub/internal/pkg/pagination"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults for zero values", page: 0, limit: 0, wantPage: 1, wantLimit: pagination.DefaultLimit, wantOffset: 0},
		{name: "third page", page: 3, limit: 10, wantPage: 3, wantLimit: 10, wantOffset: 20},
		{name: "limit capped", page: 1, limit: 1000, wantPage: 1, wantLimit: pagination.MaxLimit, wantOffset: 0},
		{name: "negative page", page: -4, limit: 5, wantPage: 1, wantLimit: 5, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pagination.New(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := pagination.GetMeta(pagination.New(2, 10), 25)

	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	last := pagination.GetMeta(pagination.New(3, 10), 25)
	assert.False(t, last.HasNext)

	empty := pagination.GetMeta(pagination.New(1, 10), 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
