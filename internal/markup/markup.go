// Package markup конвертирует авторский текст (Markdown) в HTML.
package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer конвертирует текст в HTML.
type Renderer interface {
	Render(text string) (string, error)
}

// Markdown - Renderer на goldmark.
type Markdown struct {
	md goldmark.Markdown
}

// New создает Markdown-рендерер. Сырой HTML в тексте пропускается
// только при allowHTML.
func New(allowHTML bool) *Markdown {
	var rendererOpts []goldmark.Option
	if allowHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	opts := append([]goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
	}, rendererOpts...)
	return &Markdown{md: goldmark.New(opts...)}
}

func (m *Markdown) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
