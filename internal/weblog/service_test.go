package weblog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/delicious"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/markup"
	"github.com/UkralStul/weblog-service/internal/moderation"
	"github.com/UkralStul/weblog-service/internal/notify"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2008, time.June, 30, 12, 0, 0, 0, time.UTC)

type rendererFunc func(string) (string, error)

func (f rendererFunc) Render(text string) (string, error) { return f(text) }

type fakePublisher struct {
	mu    sync.Mutex
	added []delicious.Bookmark
	err   error
	block bool
}

func (p *fakePublisher) Add(ctx context.Context, b delicious.Bookmark) error {
	p.mu.Lock()
	p.added = append(p.added, b)
	p.mu.Unlock()
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

type fakeMailer struct {
	notices []notify.CommentNotice
	err     error
}

func (m *fakeMailer) NotifyComment(n notify.CommentNotice) error {
	m.notices = append(m.notices, n)
	return m.err
}

type fakeBroadcaster struct {
	published []*domain.Comment
}

func (b *fakeBroadcaster) Publish(c *domain.Comment) { b.published = append(b.published, c) }

func newModerator() *moderation.Moderator {
	return moderation.New(moderation.Config{
		ModerateAfter:     30 * 24 * time.Hour,
		EmailNotification: true,
	}, nil, moderation.WithClock(func() time.Time { return testNow }))
}

// newTestService создает сервис поверх хранилища в памяти.
func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(inmemory.New(), markup.New(false), newModerator(), opts...)
}

func newEntry(title string, pub time.Time) *domain.Entry {
	return &domain.Entry{
		Title:          title,
		PubDate:        pub,
		AuthorID:       "user-1",
		EnableComments: true,
		Body:           "Hello *world*",
	}
}

func TestCreateEntry_RendersOnSave(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	e, err := svc.CreateEntry(ctx, newEntry("First post", testNow))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello <em>world</em></p>\n", e.BodyHTML)
	assert.Empty(t, e.Excerpt)
	assert.Empty(t, e.ExcerptHTML)

	e.Body = "Changed **body**"
	e.Excerpt = "Short"
	_, err = svc.UpdateEntry(ctx, e)
	require.NoError(t, err)

	stored, err := svc.Entry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>Changed <strong>body</strong></p>\n", stored.BodyHTML)
	assert.Equal(t, "<p>Short</p>\n", stored.ExcerptHTML)

	stored.Excerpt = ""
	_, err = svc.UpdateEntry(ctx, stored)
	require.NoError(t, err)
	stored, err = svc.Entry(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ExcerptHTML)
}

func TestCreateEntry_Defaults(t *testing.T) {
	svc := newTestService(t)

	e, err := svc.CreateEntry(context.Background(), &domain.Entry{
		Title: "Hello, World!", AuthorID: "user-1", Body: "text", Tags: "go  web,   go",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLive, e.Status)
	assert.Equal(t, "hello-world", e.Slug)
	assert.True(t, e.PubDate.Equal(testNow))
	assert.Equal(t, "go, go web", e.Tags)
}

func TestCreateEntry_RenderFailurePersistsNothing(t *testing.T) {
	failing := rendererFunc(func(string) (string, error) { return "", errors.New("boom") })
	store := inmemory.New()
	svc := New(store, failing, newModerator(), WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, newEntry("Broken", testNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render entry")

	entries, err := store.ListEntries(ctx, storage.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.CreateLink(ctx, &domain.Link{Title: "Go", URL: "http://golang.org/", PostedByID: "u", Description: "x"})
	require.Error(t, err)
	links, err := store.ListLinks(ctx, storage.LinkFilter{})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestCreateEntry_ValidationAndDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, &domain.Entry{Title: "No body", AuthorID: "u"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Field)

	_, err = svc.CreateEntry(ctx, newEntry("Same", testNow))
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, newEntry("Same", testNow.Add(time.Hour)))
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)

	_, err = svc.CreateEntry(ctx, newEntry("Same", testNow.AddDate(0, 0, 1)))
	assert.NoError(t, err)
}

func TestNextPrevious(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	statuses := []domain.Status{domain.StatusLive, domain.StatusDraft, domain.StatusLive, domain.StatusHidden, domain.StatusLive}
	var entries []*domain.Entry
	for i, st := range statuses {
		e := newEntry("Entry", testNow.AddDate(0, 0, i))
		e.Status = st
		created, err := svc.CreateEntry(ctx, e)
		require.NoError(t, err)
		entries = append(entries, created)
	}

	next, err := svc.Next(ctx, entries[0])
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, entries[2].ID, next.ID)

	prev, err := svc.Previous(ctx, entries[4])
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, entries[2].ID, prev.ID)

	none, err := svc.Next(ctx, entries[4])
	require.NoError(t, err)
	assert.Nil(t, none)

	live, err := svc.LiveEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, live, 3)
	for _, e := range live {
		assert.True(t, e.IsLive())
	}

	_, err = svc.LiveEntryByDate(ctx, entries[1].PubDate, entries[1].Slug)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateLink_FailingPublisherStillSaves(t *testing.T) {
	pub := &fakePublisher{err: errors.New("service unavailable")}
	svc := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	res, err := svc.CreateLink(ctx, &domain.Link{
		Title: "Go", URL: "http://golang.org/", PostedByID: "u", PostElsewhere: true, Tags: `"new york" go`,
	})
	require.NoError(t, err)
	assert.Equal(t, PublishFailed, res.Publish)
	assert.Error(t, res.PublishErr)

	stored, err := svc.Link(ctx, res.Link.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://golang.org/", stored.URL)
	require.Len(t, pub.added, 1)
	assert.Equal(t, []string{"go", "new york"}, pub.added[0].Tags)
	assert.Equal(t, "go, new york", stored.Tags)
}

func TestCreateLink_PublishOnlyOnCreate(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	res, err := svc.CreateLink(ctx, &domain.Link{Title: "Go", URL: "http://golang.org/", PostedByID: "u", PostElsewhere: true})
	require.NoError(t, err)
	assert.Equal(t, PublishSucceeded, res.Publish)
	assert.NoError(t, res.PublishErr)

	res.Link.Title = "Go home"
	_, err = svc.UpdateLink(ctx, res.Link)
	require.NoError(t, err)
	assert.Len(t, pub.added, 1)

	skipped, err := svc.CreateLink(ctx, &domain.Link{Title: "Blog", URL: "http://blog.golang.org/", PostedByID: "u"})
	require.NoError(t, err)
	assert.Equal(t, PublishSkipped, skipped.Publish)
	assert.Len(t, pub.added, 1)
}

func TestCreateLink_PublishTimeout(t *testing.T) {
	pub := &fakePublisher{block: true}
	svc := newTestService(t, WithPublisher(pub), WithPublishTimeout(20*time.Millisecond))

	start := time.Now()
	res, err := svc.CreateLink(context.Background(), &domain.Link{Title: "Go", URL: "http://golang.org/", PostedByID: "u", PostElsewhere: true})
	require.NoError(t, err)
	assert.Equal(t, PublishFailed, res.Publish)
	assert.ErrorIs(t, res.PublishErr, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCreateLink_DuplicateURL(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateLink(ctx, &domain.Link{Title: "Go", URL: "http://golang.org/", PostedByID: "u"})
	require.NoError(t, err)
	_, err = svc.CreateLink(ctx, &domain.Link{Title: "Other", URL: "http://golang.org/", PostedByID: "u"})
	assert.ErrorIs(t, err, storage.ErrDuplicateURL)
}

func TestLink_RendersDescriptionOnSave(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateLink(ctx, &domain.Link{Title: "Go", URL: "http://golang.org/", PostedByID: "u", Description: "*x*"})
	require.NoError(t, err)
	assert.Equal(t, "<p><em>x</em></p>\n", res.Link.DescriptionHTML)

	l := res.Link
	l.Description = "**y**"
	_, err = svc.UpdateLink(ctx, l)
	require.NoError(t, err)
	stored, err := svc.Link(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>y</strong></p>\n", stored.DescriptionHTML)

	stored.Description = ""
	_, err = svc.UpdateLink(ctx, stored)
	require.NoError(t, err)
	stored, err = svc.Link(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.DescriptionHTML)
}

func TestSubmitComment(t *testing.T) {
	mailer := &fakeMailer{}
	bc := &fakeBroadcaster{}
	svc := newTestService(t, WithMailer(mailer), WithBroadcaster(bc))
	ctx := context.Background()

	fresh, err := svc.CreateEntry(ctx, newEntry("Fresh", testNow.Add(-time.Hour)))
	require.NoError(t, err)
	old, err := svc.CreateEntry(ctx, newEntry("Old", testNow.AddDate(0, -2, 0)))
	require.NoError(t, err)
	closedEntry := newEntry("Closed", testNow)
	closedEntry.EnableComments = false
	closed, err := svc.CreateEntry(ctx, closedEntry)
	require.NoError(t, err)

	in := CommentInput{TargetType: domain.TargetEntry, AuthorName: "Reader", Body: "Nice"}

	in.TargetID = fresh.ID
	c, d, err := svc.SubmitComment(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, moderation.Accept, d.Action)
	assert.True(t, c.IsPublic)
	require.Len(t, bc.published, 1)

	in.TargetID = old.ID
	c, d, err = svc.SubmitComment(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, moderation.Hold, d.Action)
	assert.False(t, c.IsPublic)
	assert.Len(t, bc.published, 1)

	in.TargetID = closed.ID
	_, d, err = svc.SubmitComment(ctx, in)
	assert.ErrorIs(t, err, ErrCommentsClosed)
	assert.Equal(t, moderation.Reject, d.Action)

	require.Len(t, mailer.notices, 2)
	assert.Equal(t, "Fresh", mailer.notices[0].TargetTitle)
	assert.True(t, mailer.notices[1].Held)

	all, err := svc.Comments(ctx, domain.TargetEntry, closed.ID, false)
	require.NoError(t, err)
	assert.Empty(t, all)

	summaries, err := svc.ListEntries(ctx, storage.EntryFilter{})
	require.NoError(t, err)
	counts := map[string]int{}
	for _, s := range summaries {
		counts[s.Title] = s.CommentCount
	}
	assert.Equal(t, map[string]int{"Fresh": 1, "Old": 1, "Closed": 0}, counts)
}

func TestPublicComments_OnlyForLiveEntries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	live, err := svc.CreateEntry(ctx, newEntry("Live", testNow))
	require.NoError(t, err)
	draftEntry := newEntry("Draft", testNow)
	draftEntry.Status = domain.StatusDraft
	draft, err := svc.CreateEntry(ctx, draftEntry)
	require.NoError(t, err)

	_, _, err = svc.SubmitComment(ctx, CommentInput{TargetType: domain.TargetEntry, TargetID: live.ID, AuthorName: "R", Body: "Hi"})
	require.NoError(t, err)

	comments, err := svc.PublicComments(ctx, domain.TargetEntry, live.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = svc.PublicComments(ctx, domain.TargetEntry, draft.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, svc.CheckCommentTarget(ctx, domain.TargetEntry, draft.ID), storage.ErrNotFound)
	assert.NoError(t, svc.CheckCommentTarget(ctx, domain.TargetEntry, live.ID))
}

func TestSubmitComment_MailFailureIsNotFatal(t *testing.T) {
	svc := newTestService(t, WithMailer(&fakeMailer{err: errors.New("smtp down")}))
	ctx := context.Background()

	e, err := svc.CreateEntry(ctx, newEntry("Fresh", testNow))
	require.NoError(t, err)

	c, _, err := svc.SubmitComment(ctx, CommentInput{TargetType: domain.TargetEntry, TargetID: e.ID, AuthorName: "R", Body: "Hi"})
	require.NoError(t, err)
	assert.True(t, c.IsPublic)
}

func TestSubmitComment_UnknownTarget(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SubmitComment(context.Background(), CommentInput{TargetType: domain.TargetLink, TargetID: "missing", AuthorName: "R", Body: "Hi"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = svc.SubmitComment(context.Background(), CommentInput{TargetType: "photo", TargetID: "x", AuthorName: "R", Body: "Hi"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSearch(t *testing.T) {
	idx, err := search.NewMemOnly()
	require.NoError(t, err)
	defer idx.Close()

	svc := newTestService(t, WithIndex(idx))
	ctx := context.Background()

	e := newEntry("Gophers", testNow)
	e.Body = "all about concurrency"
	entry, err := svc.CreateEntry(ctx, e)
	require.NoError(t, err)
	_, err = svc.CreateLink(ctx, &domain.Link{Title: "Concurrency talk", URL: "http://talks.golang.org/", PostedByID: "u"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, "", "concurrency", 10)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, entry.ID, res.Entries[0].ID)
	assert.Len(t, res.Links, 1)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))
	res, err = svc.Search(ctx, search.KindEntry, "concurrency", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestCategories(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, &domain.Category{Title: "Go Programming", Description: "About *Go*"})
	require.NoError(t, err)
	assert.Equal(t, "go-programming", c.Slug)
	assert.Equal(t, "<p>About <em>Go</em></p>\n", c.DescriptionHTML)

	_, err = svc.CreateCategory(ctx, &domain.Category{Title: "Go Programming", Description: "dup"})
	assert.ErrorIs(t, err, storage.ErrDuplicateCategorySlug)

	e := newEntry("In category", testNow)
	e.CategoryIDs = []string{c.ID}
	entry, err := svc.CreateEntry(ctx, e)
	require.NoError(t, err)

	inCat, err := svc.LiveEntries(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, inCat, 1)

	require.NoError(t, svc.DeleteCategory(ctx, c.ID))
	got, err := svc.Entry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryIDs)
}
