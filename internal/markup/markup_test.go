package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_Render(t *testing.T) {
	r := New(false)

	out, err := r.Render("Hello *world*")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello <em>world</em></p>\n", out)
}

func TestMarkdown_Deterministic(t *testing.T) {
	r := New(false)
	text := "# Title\n\n- one\n- two\n\n[link](https://example.com)"

	first, err := r.Render(text)
	require.NoError(t, err)
	second, err := r.Render(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarkdown_RawHTML(t *testing.T) {
	text := "<div class=\"x\">hi</div>"

	safe, err := New(false).Render(text)
	require.NoError(t, err)
	assert.NotContains(t, safe, "<div")

	unsafe, err := New(true).Render(text)
	require.NoError(t, err)
	assert.Contains(t, unsafe, "<div class=\"x\">hi</div>")
}
