package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkpad/internal/document"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func doc(id, title string, updated time.Time) document.Document {
	return document.Document{
		ID:        id,
		Title:     title,
		UserID:    "u1",
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestCache_ReplaceAllAndList(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, c.ReplaceAll(ctx, []document.Document{
		doc("d1", "Older", now.Add(-time.Hour)),
		doc("d2", "Newer", now),
	}))

	docs, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "d2", docs[0].ID)
	require.Equal(t, "d1", docs[1].ID)

	// a fresh snapshot fully replaces the old one
	require.NoError(t, c.ReplaceAll(ctx, []document.Document{doc("d3", "Only", now)}))
	docs, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "d3", docs[0].ID)
}

func TestCache_PutUpserts(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, c.Put(ctx, doc("d1", "First", now)))

	updated := doc("d1", "Renamed", now.Add(time.Minute))
	updated.IsStarred = true
	require.NoError(t, c.Put(ctx, updated))

	docs, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Renamed", docs[0].Title)
	require.True(t, docs[0].IsStarred)
}

func TestCache_Remove(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, c.Put(ctx, doc("d1", "Doomed", now)))
	require.NoError(t, c.Remove(ctx, "d1"))
	require.NoError(t, c.Remove(ctx, "never-existed"))

	docs, err := c.List(ctx)
	require.NoError(t, err)
	require.Empty(t, docs)
}
