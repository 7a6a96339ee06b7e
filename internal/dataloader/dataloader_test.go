package dataloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore считает обращения к CountComments.
type countingStore struct {
	storage.Storage
	mu    sync.Mutex
	calls int
}

func (s *countingStore) CountComments(ctx context.Context, t domain.TargetType, ids []string, publicOnly bool) (map[string]int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Storage.CountComments(ctx, t, ids, publicOnly)
}

func TestLoaders_BatchesCounts(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.New()

	var entries []*domain.Entry
	for i, slug := range []string{"one", "two", "three"} {
		e, err := mem.CreateEntry(ctx, &domain.Entry{
			Title: slug, Slug: slug, AuthorID: "a", Status: domain.StatusLive, Body: "b", EnableComments: true,
			PubDate: time.Date(2008, time.May, i+1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		entries = append(entries, e)
	}
	for i := 0; i < 2; i++ {
		_, err := mem.CreateComment(ctx, &domain.Comment{
			TargetType: domain.TargetEntry, TargetID: entries[0].ID, AuthorName: "r", Body: "c",
			IsPublic: i == 0, CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	store := &countingStore{Storage: mem}
	loaders := NewLoaders(store)

	var wg sync.WaitGroup
	public := make([]int, len(entries))
	for i, e := range entries {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			n, err := loaders.CountComments(ctx, domain.TargetEntry, id, true)
			assert.NoError(t, err)
			public[i] = n
		}(i, e.ID)
	}
	wg.Wait()

	assert.Equal(t, []int{1, 0, 0}, public)

	all, err := loaders.CountComments(ctx, domain.TargetEntry, entries[0].ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, all)
}

func TestLoaders_CountManyInOneQuery(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.New()
	link, err := mem.CreateLink(ctx, &domain.Link{
		Title: "Go", Slug: "go", URL: "http://golang.org/", PostedByID: "a", EnableComments: true,
		PubDate: time.Date(2008, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = mem.CreateComment(ctx, &domain.Comment{
		TargetType: domain.TargetLink, TargetID: link.ID, AuthorName: "r", Body: "c", IsPublic: true, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	store := &countingStore{Storage: mem}
	counts, err := NewLoaders(store).CountCommentsMany(ctx, domain.TargetLink, []string{link.ID, "missing"}, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{link.ID: 1, "missing": 0}, counts)
	assert.Equal(t, 1, store.calls)
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	var got *Loaders
	h := Middleware(inmemory.New(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = For(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, got)
	assert.Nil(t, For(context.Background()))
}
