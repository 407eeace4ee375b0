package sdk

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/pkg/chunk"
)

// fakeSession accepts chunks like the server does, in memory.
type fakeSession struct {
	plan     chunk.Plan
	received map[int][]byte
	writes   []int

	neverComplete bool
	failAt        int
	progressCalls int
}

func newFakeSession(plan chunk.Plan) *fakeSession {
	return &fakeSession{plan: plan, received: map[int][]byte{}, failAt: -1}
}

func (f *fakeSession) UploadChunk(_ context.Context, sessionID string, index int, data []byte) (ChunkResult, error) {
	f.writes = append(f.writes, index)
	if index == f.failAt {
		return ChunkResult{}, model.ErrTransportFailure.Fmt("connection reset")
	}
	if int64(len(data)) != f.plan.ExpectedSize(index) {
		return ChunkResult{}, model.ErrChunkSizeMismatch.Fmt(sessionID, index, len(data), f.plan.ExpectedSize(index))
	}
	f.received[index] = bytes.Clone(data)

	res := ChunkResult{
		SessionID: sessionID,
		Index:     index,
		Percent:   float64(len(f.received)) / float64(f.plan.TotalChunks) * 100,
	}
	if len(f.received) == f.plan.TotalChunks && !f.neverComplete {
		res.Completed = true
		res.FinalObjectID = "obj-1"
	}
	return res, nil
}

func (f *fakeSession) GetProgress(_ context.Context, sessionID string) (UploadProgress, error) {
	f.progressCalls++
	return UploadProgress{
		SessionID:     sessionID,
		TotalChunks:   f.plan.TotalChunks,
		ReceivedCount: len(f.received),
	}, nil
}

func (f *fakeSession) assembled() []byte {
	var out []byte
	for i := 0; i < f.plan.TotalChunks; i++ {
		out = append(out, f.received[i]...)
	}
	return out
}

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestTransferSendsChunksInOrder(t *testing.T) {
	payload := testPayload(25)
	plan, err := chunk.New(25, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	transfer := NewTransfer(fake, "s1", bytes.NewReader(payload), plan, nil, false)

	var indices []int
	var percents []float64
	for res, err := range transfer.Chunks(context.Background()) {
		require.NoError(t, err)
		indices = append(indices, res.Index)
		percents = append(percents, res.Percent)
		assert.Nil(t, res.Progress)
	}

	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.IsIncreasing(t, percents)
	assert.Equal(t, payload, fake.assembled())
	assert.Zero(t, fake.progressCalls)
}

func TestTransferStopsAtCompletion(t *testing.T) {
	plan, err := chunk.New(30, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	// the server already holds chunk 2, so chunk 1 completes the set
	fake.received[2] = make([]byte, 10)

	id, err := drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(testPayload(30)), plan, nil, false), UploadOptions{}, model.ErrIncompleteTransfer)
	require.NoError(t, err)
	assert.Equal(t, "obj-1", id)
	assert.Equal(t, []int{0, 1}, fake.writes)
}

func TestTransferIncomplete(t *testing.T) {
	plan, err := chunk.New(20, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	fake.neverComplete = true

	_, err = drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(testPayload(20)), plan, nil, false), UploadOptions{}, model.ErrIncompleteTransfer)
	require.ErrorIs(t, err, model.ErrIncompleteTransfer)

	var transferErr *TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, "s1", transferErr.SessionID)
	assert.Equal(t, -1, transferErr.ChunkIndex)
}

func TestTransferErrorCarriesChunk(t *testing.T) {
	plan, err := chunk.New(40, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	fake.failAt = 2

	var seen []int
	_, err = drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(testPayload(40)), plan, nil, false), UploadOptions{
		OnChunk: func(index int, _ float64) { seen = append(seen, index) },
	}, model.ErrIncompleteTransfer)

	require.ErrorIs(t, err, model.ErrTransportFailure)
	var transferErr *TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, 2, transferErr.ChunkIndex)
	assert.Equal(t, []int{0, 1}, seen)
	assert.Equal(t, []int{0, 1, 2}, fake.writes)
}

func TestTransferShortPayload(t *testing.T) {
	plan, err := chunk.New(25, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	_, err = drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(testPayload(21)), plan, nil, false), UploadOptions{}, model.ErrIncompleteTransfer)

	require.Error(t, err)
	var transferErr *TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, 2, transferErr.ChunkIndex)
	assert.Equal(t, []int{0, 1}, fake.writes)
}

func TestTransferDetailedProgress(t *testing.T) {
	plan, err := chunk.New(30, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	var snapshots []UploadProgress
	_, err = drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(testPayload(30)), plan, nil, true), UploadOptions{
		OnProgress: func(p UploadProgress) { snapshots = append(snapshots, p) },
	}, model.ErrIncompleteTransfer)
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	for i, p := range snapshots {
		assert.Equal(t, i+1, p.ReceivedCount)
	}
	assert.Equal(t, 3, fake.progressCalls)
}

func TestTransferMissingIndicesOnly(t *testing.T) {
	payload := testPayload(90)
	plan, err := chunk.New(90, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	missing := []int{3, 5, 7, 8}
	for i := 0; i < plan.TotalChunks; i++ {
		if i != 3 && i != 5 && i != 7 && i != 8 {
			offset, length := plan.Range(i)
			fake.received[i] = bytes.Clone(payload[offset : offset+length])
		}
	}

	id, err := drive(context.Background(), NewTransfer(fake, "s1", bytes.NewReader(payload), plan, missing, false), UploadOptions{}, model.ErrResumeIncomplete)
	require.NoError(t, err)
	assert.Equal(t, "obj-1", id)
	assert.Equal(t, missing, fake.writes)
	assert.Equal(t, payload, fake.assembled())
}

func TestTransferRestartable(t *testing.T) {
	plan, err := chunk.New(20, 10)
	require.NoError(t, err)

	fake := newFakeSession(plan)
	fake.neverComplete = true
	transfer := NewTransfer(fake, "s1", bytes.NewReader(testPayload(20)), plan, nil, false)

	for range 2 {
		for _, err := range transfer.Chunks(context.Background()) {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []int{0, 1, 0, 1}, fake.writes)
}

func TestTransferCancelledContext(t *testing.T) {
	plan, err := chunk.New(20, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := newFakeSession(plan)
	_, err = drive(ctx, NewTransfer(fake, "s1", bytes.NewReader(testPayload(20)), plan, nil, false), UploadOptions{}, model.ErrIncompleteTransfer)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, fake.writes)
}
