package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "weblog.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return newTestStore(t) })
}

func TestStore_PubDateStoredInUTC(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// 23:30 в UTC-5 - это уже следующий день по UTC
	loc := time.FixedZone("EST", -5*60*60)
	e, err := store.CreateEntry(ctx, &domain.Entry{
		Title: "Late", Slug: "late", AuthorID: "a", Status: domain.StatusLive, Body: "b",
		PubDate: time.Date(2008, time.June, 1, 23, 30, 0, 0, loc),
	})
	require.NoError(t, err)
	assert.Equal(t, "2008-06-02", e.PubDay)

	got, err := store.GetEntryByDate(ctx, time.Date(2008, time.June, 2, 0, 0, 0, 0, time.UTC), "late")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestStore_UpdateEntryReplacesCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.CreateCategory(ctx, &domain.Category{Title: "A", Slug: "a", Description: "a"})
	require.NoError(t, err)
	b, err := store.CreateCategory(ctx, &domain.Category{Title: "B", Slug: "b", Description: "b"})
	require.NoError(t, err)

	e, err := store.CreateEntry(ctx, &domain.Entry{
		Title: "Multi", Slug: "multi", AuthorID: "a", Status: domain.StatusLive, Body: "b",
		PubDate: time.Date(2008, time.June, 1, 10, 0, 0, 0, time.UTC), CategoryIDs: []string{a.ID, a.ID},
	})
	require.NoError(t, err)

	e.CategoryIDs = []string{b.ID}
	_, err = store.UpdateEntry(ctx, e)
	require.NoError(t, err)

	got, err := store.GetEntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.CategoryIDs)

	require.NoError(t, store.DeleteEntry(ctx, e.ID))
	inB, err := store.ListEntries(ctx, storage.EntryFilter{CategoryID: b.ID})
	require.NoError(t, err)
	assert.Empty(t, inB)
}
