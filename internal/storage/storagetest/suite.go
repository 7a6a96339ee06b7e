// Package storagetest содержит общий набор тестов для реализаций storage.Storage.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory создает пустое хранилище для одного теста.
type Factory func(t *testing.T) storage.Storage

var base = time.Date(2008, time.March, 10, 12, 0, 0, 0, time.UTC)

// Run прогоняет все тесты набора против хранилища из factory.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CategoryCRUD", testCategoryCRUD},
		{"CategorySlugUnique", testCategorySlugUnique},
		{"DeleteCategoryDetachesEntries", testDeleteCategoryDetachesEntries},
		{"EntrySlugUniquePerDay", testEntrySlugUniquePerDay},
		{"EntryUnknownCategory", testEntryUnknownCategory},
		{"EntryByDate", testEntryByDate},
		{"LiveEntriesOnlyLive", testLiveEntriesOnlyLive},
		{"AdjacentLiveEntry", testAdjacentLiveEntry},
		{"AdjacentLiveEntrySamePubDate", testAdjacentSamePubDate},
		{"ListEntriesFilters", testListEntriesFilters},
		{"LinkUniqueness", testLinkUniqueness},
		{"ListLinks", testListLinks},
		{"Comments", testComments},
		{"UpdateMissing", testUpdateMissing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, factory(t))
		})
	}
}

func newCategory(t *testing.T, s storage.Storage, slug string) *domain.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), &domain.Category{
		Title:       "Category " + slug,
		Slug:        slug,
		Description: "About " + slug,
	})
	require.NoError(t, err)
	return c
}

func newEntry(t *testing.T, s storage.Storage, slug string, pub time.Time, status domain.Status, categoryIDs ...string) *domain.Entry {
	t.Helper()
	e, err := s.CreateEntry(context.Background(), &domain.Entry{
		Title:          "Entry " + slug,
		Slug:           slug,
		PubDate:        pub,
		AuthorID:       "author-1",
		Status:         status,
		EnableComments: true,
		Body:           "body of " + slug,
		BodyHTML:       "<p>body of " + slug + "</p>",
		CategoryIDs:    categoryIDs,
	})
	require.NoError(t, err)
	return e
}

func newLink(t *testing.T, s storage.Storage, slug, url string, pub time.Time) *domain.Link {
	t.Helper()
	l, err := s.CreateLink(context.Background(), &domain.Link{
		Title:      "Link " + slug,
		Slug:       slug,
		PubDate:    pub,
		PostedByID: "author-1",
		URL:        url,
	})
	require.NoError(t, err)
	return l
}

func ids(entries []*domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func testCategoryCRUD(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	b := newCategory(t, s, "bravo")
	a := newCategory(t, s, "alpha")
	assert.NotEmpty(t, a.ID)

	got, err := s.GetCategoryBySlug(ctx, "bravo")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	got.Title = "Zulu renamed"
	_, err = s.UpdateCategory(ctx, got)
	require.NoError(t, err)

	byID, err := s.GetCategoryByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zulu renamed", byID.Title)

	all, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID, "categories are ordered by title")

	require.NoError(t, s.DeleteCategory(ctx, a.ID))
	_, err = s.GetCategoryByID(ctx, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, a.ID), storage.ErrNotFound)
}

func testCategorySlugUnique(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	newCategory(t, s, "go")
	_, err := s.CreateCategory(ctx, &domain.Category{Title: "Go again", Slug: "go", Description: "dup"})
	assert.ErrorIs(t, err, storage.ErrDuplicateCategorySlug)

	other := newCategory(t, s, "python")
	other.Slug = "go"
	_, err = s.UpdateCategory(ctx, other)
	assert.ErrorIs(t, err, storage.ErrDuplicateCategorySlug)
}

func testDeleteCategoryDetachesEntries(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	keep := newCategory(t, s, "keep")
	drop := newCategory(t, s, "drop")
	e := newEntry(t, s, "tagged", base, domain.StatusLive, keep.ID, drop.ID)

	require.NoError(t, s.DeleteCategory(ctx, drop.ID))

	got, err := s.GetEntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, got.CategoryIDs)

	inDropped, err := s.LiveEntries(ctx, drop.ID)
	require.NoError(t, err)
	assert.Empty(t, inDropped)
}

func testEntrySlugUniquePerDay(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	newEntry(t, s, "hello", base, domain.StatusLive)

	sameDay := base.Add(3 * time.Hour)
	_, err := s.CreateEntry(ctx, &domain.Entry{
		Title: "Hello again", Slug: "hello", PubDate: sameDay, AuthorID: "a", Status: domain.StatusLive, Body: "b",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)

	other := newEntry(t, s, "hello", base.AddDate(0, 0, 1), domain.StatusLive)
	assert.NotEmpty(t, other.ID)

	// перенос второй записи на тот же день тоже запрещен
	other.PubDate = sameDay
	_, err = s.UpdateEntry(ctx, other)
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)
}

func testEntryUnknownCategory(t *testing.T, s storage.Storage) {
	_, err := s.CreateEntry(context.Background(), &domain.Entry{
		Title: "x", Slug: "x", PubDate: base, AuthorID: "a", Status: domain.StatusLive, Body: "b",
		CategoryIDs: []string{"missing"},
	})
	assert.ErrorIs(t, err, storage.ErrUnknownCategory)
}

func testEntryByDate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	e := newEntry(t, s, "dated", base, domain.StatusLive)

	got, err := s.GetEntryByDate(ctx, time.Date(2008, time.March, 10, 0, 0, 0, 0, time.UTC), "dated")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.True(t, e.PubDate.Equal(got.PubDate))

	_, err = s.GetEntryByDate(ctx, base.AddDate(0, 0, 1), "dated")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testLiveEntriesOnlyLive(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	cat := newCategory(t, s, "news")
	live1 := newEntry(t, s, "live-1", base, domain.StatusLive, cat.ID)
	newEntry(t, s, "draft", base.Add(time.Hour), domain.StatusDraft, cat.ID)
	live2 := newEntry(t, s, "live-2", base.Add(2*time.Hour), domain.StatusLive)
	newEntry(t, s, "hidden", base.Add(3*time.Hour), domain.StatusHidden)

	all, err := s.LiveEntries(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{live2.ID, live1.ID}, ids(all))
	for _, e := range all {
		assert.Equal(t, domain.StatusLive, e.Status)
	}

	inCat, err := s.LiveEntries(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{live1.ID}, ids(inCat))
}

func testAdjacentLiveEntry(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	t1 := newEntry(t, s, "t1", base, domain.StatusLive)
	newEntry(t, s, "t2", base.Add(1*time.Hour), domain.StatusDraft)
	t3 := newEntry(t, s, "t3", base.Add(2*time.Hour), domain.StatusLive)
	newEntry(t, s, "t4", base.Add(3*time.Hour), domain.StatusHidden)
	t5 := newEntry(t, s, "t5", base.Add(4*time.Hour), domain.StatusLive)

	cases := []struct {
		from *domain.Entry
		dir  domain.Direction
		want *domain.Entry
	}{
		{t1, domain.Next, t3},
		{t3, domain.Next, t5},
		{t5, domain.Next, nil},
		{t5, domain.Previous, t3},
		{t3, domain.Previous, t1},
		{t1, domain.Previous, nil},
	}
	for _, c := range cases {
		got, err := s.AdjacentLiveEntry(ctx, c.from, c.dir)
		require.NoError(t, err)
		if c.want == nil {
			assert.Nil(t, got, "%s dir=%d", c.from.Slug, c.dir)
			continue
		}
		require.NotNil(t, got, "%s dir=%d", c.from.Slug, c.dir)
		assert.Equal(t, c.want.ID, got.ID, "%s dir=%d", c.from.Slug, c.dir)
	}
}

func testAdjacentSamePubDate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := newEntry(t, s, "same-a", base, domain.StatusLive)
	b := newEntry(t, s, "same-b", base, domain.StatusLive)
	first, second := a, b
	if b.ID < a.ID {
		first, second = b, a
	}

	next, err := s.AdjacentLiveEntry(ctx, first, domain.Next)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, second.ID, next.ID)

	prev, err := s.AdjacentLiveEntry(ctx, second, domain.Previous)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first.ID, prev.ID)
}

func testListEntriesFilters(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	cat := newCategory(t, s, "filters")
	march := newEntry(t, s, "march", base, domain.StatusLive, cat.ID)
	april := newEntry(t, s, "april", base.AddDate(0, 1, 0), domain.StatusDraft)
	nextYear := newEntry(t, s, "next-year", base.AddDate(1, 0, 0), domain.StatusLive)

	all, err := s.ListEntries(ctx, storage.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{nextYear.ID, april.ID, march.ID}, ids(all))

	drafts, err := s.ListEntries(ctx, storage.EntryFilter{Status: domain.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, []string{april.ID}, ids(drafts))

	in2008, err := s.ListEntries(ctx, storage.EntryFilter{Year: 2008})
	require.NoError(t, err)
	assert.Equal(t, []string{april.ID, march.ID}, ids(in2008))

	inMarch, err := s.ListEntries(ctx, storage.EntryFilter{Year: 2008, Month: time.March, Day: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{march.ID}, ids(inMarch))

	byCat, err := s.ListEntries(ctx, storage.EntryFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, []string{cat.ID}, byCat[0].CategoryIDs)

	page, err := s.ListEntries(ctx, storage.EntryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{april.ID}, ids(page))
}

func testLinkUniqueness(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	newLink(t, s, "go", "https://go.dev/", base)

	_, err := s.CreateLink(ctx, &domain.Link{
		Title: "Go again", Slug: "go-again", PubDate: base.AddDate(0, 0, 3), PostedByID: "a", URL: "https://go.dev/",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateURL)

	_, err = s.CreateLink(ctx, &domain.Link{
		Title: "Other", Slug: "go", PubDate: base.Add(time.Hour), PostedByID: "a", URL: "https://example.com/",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)

	other := newLink(t, s, "go", "https://example.com/", base.AddDate(0, 0, 1))
	other.Title = "Edited"
	_, err = s.UpdateLink(ctx, other)
	require.NoError(t, err)

	got, err := s.GetLinkByDate(ctx, base.AddDate(0, 0, 1), "go")
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)
}

func testListLinks(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	older := newLink(t, s, "older", "https://a.example/", base)
	newer := newLink(t, s, "newer", "https://b.example/", base.AddDate(0, 2, 0))

	links, err := s.ListLinks(ctx, storage.LinkFilter{})
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, newer.ID, links[0].ID)

	march, err := s.ListLinks(ctx, storage.LinkFilter{Year: 2008, Month: time.March})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, older.ID, march[0].ID)

	require.NoError(t, s.DeleteLink(ctx, older.ID))
	_, err = s.GetLinkByID(ctx, older.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testComments(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	e1 := newEntry(t, s, "commented", base, domain.StatusLive)
	e2 := newEntry(t, s, "quiet", base.Add(time.Hour), domain.StatusLive)

	for i, public := range []bool{true, true, false} {
		_, err := s.CreateComment(ctx, &domain.Comment{
			TargetType: domain.TargetEntry,
			TargetID:   e1.ID,
			AuthorName: fmt.Sprintf("reader-%d", i),
			Body:       "nice post",
			IsPublic:   public,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	_, err := s.CreateComment(ctx, &domain.Comment{
		TargetType: domain.TargetLink, TargetID: e1.ID, AuthorName: "x", Body: "wrong target",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.CountComments(ctx, domain.TargetEntry, []string{e1.ID, e2.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{e1.ID: 3, e2.ID: 0}, all)

	public, err := s.CountComments(ctx, domain.TargetEntry, []string{e1.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, public[e1.ID])

	listed, err := s.GetCommentsByTarget(ctx, domain.TargetEntry, e1.ID, true)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "reader-0", listed[0].AuthorName)
}

func testUpdateMissing(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.UpdateEntry(ctx, &domain.Entry{ID: "missing", Title: "x", Slug: "x", PubDate: base, AuthorID: "a", Status: domain.StatusLive, Body: "b"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateLink(ctx, &domain.Link{ID: "missing", Title: "x", Slug: "x", PubDate: base, PostedByID: "a", URL: "https://x.example/"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateCategory(ctx, &domain.Category{ID: "missing", Title: "x", Slug: "x", Description: "d"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEntry(ctx, "missing"), storage.ErrNotFound)
}
