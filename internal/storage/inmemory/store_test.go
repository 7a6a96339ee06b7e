package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище и одну запись для тестов
func newTestStore(t *testing.T) (*Store, *domain.Entry) {
	store := New()
	entry, err := store.CreateEntry(context.Background(), &domain.Entry{
		Title:          "Test Entry",
		Slug:           "test-entry",
		PubDate:        time.Date(2008, time.May, 1, 9, 0, 0, 0, time.UTC),
		AuthorID:       "user-1",
		Status:         domain.StatusLive,
		EnableComments: true,
		Body:           "Content",
	})
	require.NoError(t, err)
	return store, entry
}

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	store, entry := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	got.Title = "mutated outside"
	got.Status = domain.StatusDraft

	again, err := store.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Entry", again.Title)
	assert.Equal(t, domain.StatusLive, again.Status)

	// изменение исходного указателя после создания тоже не влияет на хранилище
	entry.Title = "changed after create"
	again, err = store.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Entry", again.Title)
}

func TestStore_FailedUpdateKeepsState(t *testing.T) {
	store, entry := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, &domain.Category{Title: "Go", Slug: "go", Description: "d"})
	require.NoError(t, err)

	entry.Title = "Renamed"
	entry.CategoryIDs = []string{"no-such-category"}
	_, err = store.UpdateEntry(ctx, entry)
	require.ErrorIs(t, err, storage.ErrUnknownCategory)

	got, err := store.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Entry", got.Title)
	assert.Empty(t, got.CategoryIDs)
}

func TestStore_CommentOrdering(t *testing.T) {
	store, entry := newTestStore(t)
	ctx := context.Background()

	// Создаем 3 комментария в обратном порядке времени
	for i := 3; i > 0; i-- {
		_, err := store.CreateComment(ctx, &domain.Comment{
			TargetType: domain.TargetEntry,
			TargetID:   entry.ID,
			AuthorName: "reader",
			Body:       "some comment",
			IsPublic:   true,
			CreatedAt:  entry.PubDate.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	comments, err := store.GetCommentsByTarget(ctx, domain.TargetEntry, entry.ID, false)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.True(t, comments[0].CreatedAt.Before(comments[1].CreatedAt))
	assert.True(t, comments[1].CreatedAt.Before(comments[2].CreatedAt))
}
