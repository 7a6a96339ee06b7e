package domain

// RenderFunc превращает авторский текст в HTML.
// Должна быть чистой функцией: рендер повторяется при каждом сохранении.
type RenderFunc func(text string) (string, error)

func renderOptional(render RenderFunc, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	return render(raw)
}

// Render пересчитывает DescriptionHTML. При ошибке категория не меняется.
func (c *Category) Render(render RenderFunc) error {
	html, err := renderOptional(render, c.Description)
	if err != nil {
		return err
	}
	c.DescriptionHTML = html
	return nil
}

// Render пересчитывает ExcerptHTML и BodyHTML. При ошибке запись не меняется.
func (e *Entry) Render(render RenderFunc) error {
	excerpt, err := renderOptional(render, e.Excerpt)
	if err != nil {
		return err
	}
	body, err := renderOptional(render, e.Body)
	if err != nil {
		return err
	}
	e.ExcerptHTML = excerpt
	e.BodyHTML = body
	return nil
}

// Render пересчитывает DescriptionHTML. При ошибке ссылка не меняется.
func (l *Link) Render(render RenderFunc) error {
	html, err := renderOptional(render, l.Description)
	if err != nil {
		return err
	}
	l.DescriptionHTML = html
	return nil
}
