package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/db"
)

func TestOpenMigratesAndQueries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meta", "blobcraft.db")

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	q := db.New(conn)
	now := time.Now().UTC().Truncate(time.Second)
	expired := now.Add(-time.Minute)

	for _, p := range []db.CreateBlobParams{
		{ID: "a", Filename: "report.pdf", ObjectKey: "blobs/a", Size: 10, StoredSize: 10, ContentType: "application/pdf", FileHash: "h1", Metadata: "{}", UploadedAt: now},
		{ID: "b", Filename: "photo.PNG", ObjectKey: "blobs/b", Size: 20, StoredSize: 5, FileHash: "h2", Public: true, Compressed: true, Metadata: "{}", UploadedAt: now.Add(time.Second)},
		{ID: "c", Filename: "old.png", ObjectKey: "blobs/c", Size: 30, StoredSize: 30, FileHash: "h3", Metadata: "{}", UploadedAt: now, ExpiresAt: &expired},
	} {
		_, err := q.CreateBlob(ctx, p)
		require.NoError(t, err)
	}

	got, err := q.GetBlob(ctx, "b")
	require.NoError(t, err)
	assert.True(t, got.Public)
	assert.True(t, got.Compressed)
	assert.Nil(t, got.ExpiresAt)

	listed, err := q.ListBlobs(ctx, db.ListBlobsParams{Now: now, Ext: "png", Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1, "expired blobs are hidden")
	assert.Equal(t, "b", listed[0].ID)

	count, err := q.CountBlobs(ctx, db.CountBlobsParams{Now: now, Search: "report"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	stale, err := q.ListExpiredBlobs(ctx, db.ListExpiredBlobsParams{Now: now, Limit: 10})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "c", stale[0].ID)

	stats, err := q.BlobStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Count)
	assert.EqualValues(t, 60, stats.TotalSize)
	assert.EqualValues(t, 45, stats.StoredSize)
	assert.EqualValues(t, 1, stats.PublicCount)

	n, err := q.DeleteBlob(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = q.DeleteBlob(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// reopening finds the schema already applied
	require.NoError(t, conn.Close())
	conn, err = Open(path)
	require.NoError(t, err)
	_, err = db.New(conn).GetBlob(ctx, "b")
	assert.NoError(t, err)
}
