package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(s string) (string, error) { return "<p>" + strings.ToUpper(s) + "</p>", nil }

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags("   "))
	assert.Equal(t, []string{"django", "go", "python"}, ParseTags("python go  django go"))
	assert.Equal(t, []string{"new york", "travel"}, ParseTags("travel, new   york,,travel"))
	assert.Equal(t, []string{"new york", "travel"}, ParseTags(`"new york" travel`))
	assert.Equal(t, []string{"a, b", "c"}, ParseTags(`"a, b" c`))
	assert.Equal(t, []string{"go", "new york", "web"}, ParseTags(`go, "new york", web`))
	assert.Equal(t, []string{"open", "quote"}, ParseTags(`open "quote`))
}

func TestFormatTags_RoundTrip(t *testing.T) {
	for _, in := range []string{"go python", "new york, travel", `"a, b" c`, `"a, b" "new york"`, ""} {
		tags := ParseTags(in)
		assert.Equal(t, tags, ParseTags(FormatTags(tags)), in)
	}
	assert.Equal(t, "go python", NormalizeTags("python, go"))
	assert.Equal(t, `"a, b", c`, NormalizeTags(`c "a, b"`))
	assert.Equal(t, "new york, travel", NormalizeTags(`"new york" travel`))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello, World!"))

	long := Slugify(strings.Repeat("weblog ", 20))
	assert.LessOrEqual(t, len(long), maxSlugLength)
	assert.False(t, strings.HasSuffix(long, "-"))
	assert.True(t, IsValidSlug(long))

	assert.False(t, IsValidSlug("has space"))
	assert.False(t, IsValidSlug(""))
}

func TestAbsoluteURL(t *testing.T) {
	pub := time.Date(2008, time.January, 5, 14, 30, 0, 0, time.UTC)
	e := &Entry{Slug: "first-post", PubDate: pub}
	l := &Link{Slug: "a-link", PubDate: pub}
	c := &Category{Slug: "golang"}

	assert.Equal(t, "/entries/2008/jan/05/first-post/", e.AbsoluteURL())
	assert.Equal(t, "/links/2008/jan/05/a-link/", l.AbsoluteURL())
	assert.Equal(t, "/categories/golang/", c.AbsoluteURL())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2008", "jan", "05")
	require.NoError(t, err)
	assert.Equal(t, "2008-01-05", DayKey(d))

	_, err = ParseDay("2008", "foo", "05")
	assert.Error(t, err)
	_, err = ParseDay("2008", "feb", "31")
	assert.Error(t, err)
}

func TestStatusJSON(t *testing.T) {
	b, err := json.Marshal(StatusHidden)
	require.NoError(t, err)
	assert.Equal(t, `"hidden"`, string(b))

	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"Live"`), &s))
	assert.Equal(t, StatusLive, s)
	assert.Error(t, json.Unmarshal([]byte(`"published"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`1`), &s))
}

func TestEntryRender(t *testing.T) {
	e := &Entry{Body: "body", Excerpt: "short", ExcerptHTML: "stale"}
	require.NoError(t, e.Render(upper))
	assert.Equal(t, "<p>BODY</p>", e.BodyHTML)
	assert.Equal(t, "<p>SHORT</p>", e.ExcerptHTML)

	e.Excerpt = ""
	require.NoError(t, e.Render(upper))
	assert.Empty(t, e.ExcerptHTML)
}

func TestEntryRender_FailureLeavesEntryUntouched(t *testing.T) {
	e := &Entry{Body: "body", Excerpt: "short", BodyHTML: "old body", ExcerptHTML: "old excerpt"}
	calls := 0
	failing := func(s string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("boom")
		}
		return s, nil
	}
	require.Error(t, e.Render(failing))
	assert.Equal(t, "old body", e.BodyHTML)
	assert.Equal(t, "old excerpt", e.ExcerptHTML)
}

func TestLinkAndCategoryRender(t *testing.T) {
	l := &Link{DescriptionHTML: "stale"}
	require.NoError(t, l.Render(upper))
	assert.Empty(t, l.DescriptionHTML)

	c := &Category{Description: "about"}
	require.NoError(t, c.Render(upper))
	assert.Equal(t, "<p>ABOUT</p>", c.DescriptionHTML)
}

func TestValidate(t *testing.T) {
	e := &Entry{Title: "Title", Slug: "title", AuthorID: "u1", Status: StatusLive, Body: "text"}
	require.NoError(t, Validate(e))

	e.Body = ""
	var verr *ValidationError
	require.ErrorAs(t, Validate(e), &verr)
	assert.Equal(t, "body", verr.Field)

	e.Body = "text"
	e.Slug = "bad slug"
	require.ErrorAs(t, Validate(e), &verr)
	assert.Equal(t, "slug", verr.Field)

	e.Slug = "title"
	e.Status = 7
	require.ErrorAs(t, Validate(e), &verr)
	assert.Equal(t, "status", verr.Field)

	l := &Link{Title: "t", Slug: "t", PostedByID: "u1", URL: "not a url"}
	require.ErrorAs(t, Validate(l), &verr)
	assert.Equal(t, "url", verr.Field)
}
