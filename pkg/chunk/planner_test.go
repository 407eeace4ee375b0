package chunk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/model"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		size       int64
		hint       int64
		wantChunk  int64
		wantChunks int
	}{
		{name: "empty payload", size: 0, hint: 10, wantChunk: 10, wantChunks: 0},
		{name: "exact multiple", size: 100, hint: 10, wantChunk: 10, wantChunks: 10},
		{name: "remainder", size: 101, hint: 10, wantChunk: 10, wantChunks: 11},
		{name: "smaller than a chunk", size: 3, hint: 10, wantChunk: 10, wantChunks: 1},
		{name: "default chunk size", size: DefaultChunkSize + 1, hint: 0, wantChunk: DefaultChunkSize, wantChunks: 2},
		{name: "100MiB in 10MiB chunks", size: 100 << 20, hint: 10 << 20, wantChunk: 10 << 20, wantChunks: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := New(tt.size, tt.hint)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChunk, plan.ChunkSize)
			assert.Equal(t, tt.wantChunks, plan.TotalChunks)
		})
	}

	t.Run("negative size", func(t *testing.T) {
		_, err := New(-1, 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidSize))
	})
}

func TestPlanRangesCoverPayload(t *testing.T) {
	for _, size := range []int64{1, 7, 9, 10, 11, 99, 1000, 1023} {
		for _, hint := range []int64{1, 3, 10, 64} {
			plan, err := New(size, hint)
			require.NoError(t, err)

			var sum, next int64
			for i := 0; i < plan.TotalChunks; i++ {
				offset, length := plan.Range(i)
				assert.Equal(t, next, offset, "size=%d hint=%d chunk=%d", size, hint, i)
				assert.Positive(t, length)
				if i < plan.TotalChunks-1 {
					assert.Equal(t, plan.ChunkSize, length)
				}
				sum += length
				next = offset + length
			}
			assert.Equal(t, size, sum, "size=%d hint=%d", size, hint)
		}
	}
}

func TestPlanExpectedSizeOutOfRange(t *testing.T) {
	plan, err := New(25, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(5), plan.ExpectedSize(2))
	assert.Zero(t, plan.ExpectedSize(3))
	assert.Zero(t, plan.ExpectedSize(-1))
}

func TestUseChunked(t *testing.T) {
	assert.False(t, UseChunked(1<<10, 0))
	assert.False(t, UseChunked(DefaultThreshold, 0))
	assert.True(t, UseChunked(DefaultThreshold+1, 0))
	assert.True(t, UseChunked(100<<20, 50<<20))
	assert.False(t, UseChunked(0, 0))
}
