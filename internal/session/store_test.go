package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/local"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/utils/blake3"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memFinalizer struct {
	mu    sync.Mutex
	calls atomic.Int32
	fail  error
	blobs map[string][]byte
}

func (f *memFinalizer) Finalize(ctx context.Context, params FinalizeParams, content io.Reader) (string, error) {
	f.calls.Add(1)
	if f.fail != nil {
		return "", f.fail
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != params.Size {
		return "", fmt.Errorf("got %d bytes, want %d", len(data), params.Size)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("obj-%d", len(f.blobs)+1)
	f.blobs[id] = data
	return id, nil
}

type fixture struct {
	store     *Store
	chunks    *local.ClientImpl
	finalizer *memFinalizer
	clock     *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	chunks, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)

	f := &fixture{
		chunks:    chunks,
		finalizer: &memFinalizer{blobs: map[string][]byte{}},
		clock:     &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	f.store, err = NewStore(Config{
		Chunks:      chunks,
		Finalizer:   f.finalizer,
		ChunkSize:    10,
		MinChunkSize: 5,
		MaxChunkSize: 100,
		MaxFileSize:  1 << 20,
		TTL:          time.Hour,
		Retention:    10 * time.Minute,
		Now:          f.clock.Now,
	})
	require.NoError(t, err)
	return f
}

func payload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	return data
}

func (f *fixture) create(t *testing.T, data []byte) Created {
	t.Helper()
	created, err := f.store.Create(context.Background(), CreateParams{
		Filename:  "file.bin",
		TotalSize: int64(len(data)),
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) write(created Created, data []byte, index int) (ChunkResult, error) {
	start := index * int(created.ChunkSize)
	end := min(start+int(created.ChunkSize), len(data))
	if start > len(data) {
		start, end = 0, 0
	}
	return f.store.WriteChunk(context.Background(), WriteParams{
		SessionID: created.SessionID,
		Index:     index,
		Data:      data[start:end],
	})
}

func (f *fixture) storedChunks(t *testing.T, sessionID string) []string {
	t.Helper()
	keys, err := f.chunks.List(context.Background(), objectstore.ChunkPrefix(sessionID))
	require.NoError(t, err)
	return keys
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("plans chunks with the default chunk size", func(t *testing.T) {
		created, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 95})
		require.NoError(t, err)
		assert.Equal(t, int64(10), created.ChunkSize)
		assert.Equal(t, 10, created.TotalChunks)
		assert.Equal(t, f.clock.Now().Add(time.Hour), created.ExpiresAt)
	})

	t.Run("honours the hint", func(t *testing.T) {
		created, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 95, ChunkSizeHint: 50})
		require.NoError(t, err)
		assert.Equal(t, int64(50), created.ChunkSize)
		assert.Equal(t, 2, created.TotalChunks)
	})

	t.Run("raises a tiny hint to the minimum", func(t *testing.T) {
		created, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 1 << 20, ChunkSizeHint: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(5), created.ChunkSize)
		assert.Equal(t, (1<<20+4)/5, created.TotalChunks)

		progress, err := f.store.Progress(ctx, created.SessionID)
		require.NoError(t, err)
		assert.Len(t, progress.MissingChunks, created.TotalChunks)
	})

	t.Run("lowers a huge hint to the maximum", func(t *testing.T) {
		created, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 1000, ChunkSizeHint: 1 << 30})
		require.NoError(t, err)
		assert.Equal(t, int64(100), created.ChunkSize)
		assert.Equal(t, 10, created.TotalChunks)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		_, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 0})
		assert.ErrorIs(t, err, model.ErrInvalidSize)
	})

	t.Run("rejects oversized payload", func(t *testing.T) {
		_, err := f.store.Create(ctx, CreateParams{Filename: "a", TotalSize: 2 << 20})
		assert.ErrorIs(t, err, model.ErrFileTooLarge)
	})
}

func TestNewStoreRejectsInvertedBounds(t *testing.T) {
	chunks, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)

	_, err = NewStore(Config{
		Chunks:       chunks,
		Finalizer:    &memFinalizer{blobs: map[string][]byte{}},
		MinChunkSize: 100,
		MaxChunkSize: 10,
		TTL:          time.Hour,
	})
	assert.ErrorContains(t, err, "exceeds max chunk size")
}

func TestWriteChunkCompletesInAnyOrder(t *testing.T) {
	for run := 0; run < 5; run++ {
		t.Run(fmt.Sprintf("shuffle %d", run), func(t *testing.T) {
			f := newFixture(t)
			data := payload(95)
			created := f.create(t, data)

			order := rand.Perm(created.TotalChunks)
			for i, index := range order {
				result, err := f.write(created, data, index)
				require.NoError(t, err)

				last := i == len(order)-1
				assert.Equal(t, last, result.Completed, "write %d of index %d", i, index)
				if last {
					require.NotEmpty(t, result.FinalObjectID)
					assert.Equal(t, data, f.finalizer.blobs[result.FinalObjectID])
					assert.Equal(t, float64(100), result.Percent)
				} else {
					assert.Empty(t, result.FinalObjectID)
				}
			}

			assert.Equal(t, int32(1), f.finalizer.calls.Load())
			assert.Empty(t, f.storedChunks(t, created.SessionID), "chunks are discarded after finalization")

			progress, err := f.store.Progress(context.Background(), created.SessionID)
			require.NoError(t, err)
			assert.True(t, progress.Completed)
			assert.Equal(t, StateComplete, progress.Status)
			assert.Empty(t, progress.MissingChunks)
		})
	}
}

func TestWriteChunkDuplicateIsNoop(t *testing.T) {
	f := newFixture(t)
	data := payload(30)
	created := f.create(t, data)

	first, err := f.write(created, data, 1)
	require.NoError(t, err)
	before, err := f.store.Progress(context.Background(), created.SessionID)
	require.NoError(t, err)

	second, err := f.write(created, data, 1)
	require.NoError(t, err)
	after, err := f.store.Progress(context.Background(), created.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.Percent, second.Percent)
	assert.Equal(t, before.ReceivedCount, after.ReceivedCount)
	assert.Equal(t, before.UploadedBytes, after.UploadedBytes)
	assert.Equal(t, []int{0, 2}, after.MissingChunks)
}

func TestWriteChunkValidation(t *testing.T) {
	f := newFixture(t)
	data := payload(25)
	created := f.create(t, data)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.store.WriteChunk(ctx, WriteParams{SessionID: "missing", Index: 0, Data: data[:10]})
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("index out of range", func(t *testing.T) {
		for _, index := range []int{-1, 3} {
			_, err := f.store.WriteChunk(ctx, WriteParams{SessionID: created.SessionID, Index: index, Data: data[:10]})
			assert.ErrorIs(t, err, model.ErrChunkIndexOutOfRange)
		}
	})

	t.Run("short middle chunk", func(t *testing.T) {
		_, err := f.store.WriteChunk(ctx, WriteParams{SessionID: created.SessionID, Index: 1, Data: data[:9]})
		assert.ErrorIs(t, err, model.ErrChunkSizeMismatch)
	})

	t.Run("full sized last chunk", func(t *testing.T) {
		_, err := f.store.WriteChunk(ctx, WriteParams{SessionID: created.SessionID, Index: 2, Data: data[:10]})
		assert.ErrorIs(t, err, model.ErrChunkSizeMismatch)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		_, err := f.store.WriteChunk(ctx, WriteParams{
			SessionID: created.SessionID,
			Index:     0,
			Data:      data[:10],
			Checksum:  blake3.Sum(data[10:20]),
		})
		assert.ErrorIs(t, err, model.ErrChecksumMismatch)
	})

	t.Run("matching checksum", func(t *testing.T) {
		result, err := f.store.WriteChunk(ctx, WriteParams{
			SessionID: created.SessionID,
			Index:     2,
			Data:      data[20:],
			Checksum:  blake3.Sum(data[20:]),
		})
		require.NoError(t, err)
		assert.InDelta(t, 33.33, result.Percent, 0.01)
	})

	progress, err := f.store.Progress(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.ReceivedCount, "rejected writes leave no trace")
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects later writes and discards chunks", func(t *testing.T) {
		f := newFixture(t)
		data := payload(30)
		created := f.create(t, data)

		_, err := f.write(created, data, 0)
		require.NoError(t, err)
		require.Len(t, f.storedChunks(t, created.SessionID), 1)

		require.NoError(t, f.store.Cancel(ctx, created.SessionID))
		assert.Empty(t, f.storedChunks(t, created.SessionID))

		_, err = f.write(created, data, 1)
		assert.ErrorIs(t, err, model.ErrSessionClosed)

		progress, err := f.store.Progress(ctx, created.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, progress.Status)
		assert.Equal(t, 1, progress.ReceivedCount)
		assert.False(t, progress.Completed)

		// idempotent
		assert.NoError(t, f.store.Cancel(ctx, created.SessionID))
	})

	t.Run("complete session cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		data := payload(5)
		created := f.create(t, data)
		result, err := f.write(created, data, 0)
		require.NoError(t, err)
		require.True(t, result.Completed)

		assert.ErrorIs(t, f.store.Cancel(ctx, created.SessionID), model.ErrCannotCancelCompleted)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.store.Cancel(ctx, "missing"), model.ErrSessionNotFound)
	})
}

func TestResumeMissingChunks(t *testing.T) {
	f := newFixture(t)
	data := payload(100)
	created := f.create(t, data)
	require.Equal(t, 10, created.TotalChunks)

	for _, index := range []int{0, 1, 2, 4, 6, 9} {
		_, err := f.write(created, data, index)
		require.NoError(t, err)
	}

	progress, err := f.store.Progress(context.Background(), created.SessionID)
	require.NoError(t, err)
	require.Equal(t, []int{3, 5, 7, 8}, progress.MissingChunks)
	assert.Equal(t, float64(60), progress.Percent)

	missing := progress.MissingChunks
	rand.Shuffle(len(missing), func(i, j int) { missing[i], missing[j] = missing[j], missing[i] })
	for i, index := range missing {
		result, err := f.write(created, data, index)
		require.NoError(t, err)
		assert.Equal(t, i == len(missing)-1, result.Completed)
	}
	assert.Equal(t, int32(1), f.finalizer.calls.Load())
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("write after deadline is rejected", func(t *testing.T) {
		f := newFixture(t)
		data := payload(30)
		created := f.create(t, data)
		_, err := f.write(created, data, 0)
		require.NoError(t, err)

		f.clock.Advance(time.Hour)

		_, err = f.write(created, data, 1)
		assert.ErrorIs(t, err, model.ErrSessionClosed)
		assert.Empty(t, f.storedChunks(t, created.SessionID))

		_, err = f.store.Progress(ctx, created.SessionID)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("sweep expires then reaps", func(t *testing.T) {
		f := newFixture(t)
		data := payload(30)
		expiring := f.create(t, data)
		_, err := f.write(expiring, data, 0)
		require.NoError(t, err)

		f.clock.Advance(30 * time.Minute)
		fresh := f.create(t, data)
		f.clock.Advance(30 * time.Minute)

		result := f.store.Sweep(ctx)
		assert.Equal(t, SweepResult{Expired: 1}, result)
		assert.Empty(t, f.storedChunks(t, expiring.SessionID))

		_, err = f.write(expiring, data, 1)
		assert.ErrorIs(t, err, model.ErrSessionClosed, "tombstone answers closed until reaped")

		_, err = f.write(fresh, data, 0)
		assert.NoError(t, err, "sessions before their deadline are untouched")

		f.clock.Advance(10 * time.Minute)
		result = f.store.Sweep(ctx)
		assert.Equal(t, 1, result.Reaped)

		_, err = f.write(expiring, data, 1)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("closed answer lasts the retention window", func(t *testing.T) {
		f := newFixture(t)
		data := payload(30)
		created := f.create(t, data)

		f.clock.Advance(time.Hour)
		require.Equal(t, 1, f.store.Sweep(ctx).Expired)

		f.clock.Advance(10*time.Minute - time.Second)
		assert.Zero(t, f.store.Sweep(ctx).Reaped)
		_, err := f.write(created, data, 0)
		assert.ErrorIs(t, err, model.ErrSessionClosed)
		assert.True(t, f.store.Has(created.SessionID))

		f.clock.Advance(time.Second)
		assert.Equal(t, 1, f.store.Sweep(ctx).Reaped)
		_, err = f.write(created, data, 0)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})
}

func TestConcurrentWritesFinalizeOnce(t *testing.T) {
	f := newFixture(t)
	data := payload(200)
	created := f.create(t, data)

	var wg sync.WaitGroup
	var completed atomic.Int32
	// every chunk twice, to race duplicates against the finalizing write
	for round := 0; round < 2; round++ {
		for index := 0; index < created.TotalChunks; index++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				result, err := f.write(created, data, index)
				if err != nil {
					assert.ErrorIs(t, err, model.ErrSessionClosed)
					return
				}
				if result.Completed && result.Index == index {
					completed.Add(1)
				}
			}(index)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.finalizer.calls.Load())
	require.Len(t, f.finalizer.blobs, 1)
	assert.Equal(t, data, f.finalizer.blobs["obj-1"])
	assert.GreaterOrEqual(t, completed.Load(), int32(1))
}

func TestFinalizeFailureCanBeRetried(t *testing.T) {
	f := newFixture(t)
	data := payload(20)
	created := f.create(t, data)

	_, err := f.write(created, data, 0)
	require.NoError(t, err)

	f.finalizer.fail = errors.New("disk full")
	_, err = f.write(created, data, 1)
	require.Error(t, err)

	progress, err := f.store.Progress(context.Background(), created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, progress.Status)
	assert.Len(t, f.storedChunks(t, created.SessionID), 2)

	f.finalizer.fail = nil
	result, err := f.write(created, data, 1)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, data, f.finalizer.blobs[result.FinalObjectID])
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	data := payload(30)
	a := f.create(t, data)
	b := f.create(t, data)

	_, err := f.write(a, data, 0)
	require.NoError(t, err)
	require.NoError(t, f.store.Cancel(context.Background(), b.SessionID))

	stats := f.store.Stats()
	assert.Equal(t, Stats{ActiveSessions: 1, UploadingBytes: 10, DeclaredBytes: 30}, stats)

	active := f.store.Active()
	require.Len(t, active, 1)
	assert.Equal(t, a.SessionID, active[0].SessionID)
}
