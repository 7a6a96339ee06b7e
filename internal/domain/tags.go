package domain

import (
	"sort"
	"strings"
)

// ParseTags разбирает строку тегов в том виде, в каком ее вводит автор.
// Фраза в двойных кавычках - один тег. Остальной текст делится запятыми,
// если они в нем есть, иначе пробелами. Результат отсортирован и не содержит повторов.
func ParseTags(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	var quoted, rest []string
	for {
		open := strings.IndexByte(input, '"')
		if open < 0 {
			rest = append(rest, input)
			break
		}
		closing := strings.IndexByte(input[open+1:], '"')
		if closing < 0 {
			// незакрытая кавычка: остаток разбираем как обычный текст
			rest = append(rest, input[:open], input[open+1:])
			break
		}
		rest = append(rest, input[:open])
		quoted = append(quoted, input[open+1:open+1+closing])
		input = input[open+closing+2:]
	}

	split := strings.Fields
	for _, chunk := range rest {
		if strings.Contains(chunk, ",") {
			split = func(s string) []string { return strings.Split(s, ",") }
			break
		}
	}

	parts := quoted
	for _, chunk := range rest {
		parts = append(parts, split(chunk)...)
	}

	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		tags = append(tags, p)
	}
	if len(tags) == 0 {
		return nil
	}
	sort.Strings(tags)
	return tags
}

// FormatTags собирает теги обратно в строку, которую ParseTags разберет так же.
// Теги с запятой берутся в кавычки.
func FormatTags(tags []string) string {
	glue := " "
	names := make([]string, len(tags))
	for i, t := range tags {
		if strings.Contains(t, " ") {
			glue = ", "
		}
		if strings.Contains(t, ",") {
			t = `"` + t + `"`
		}
		names[i] = t
	}
	return strings.Join(names, glue)
}

// NormalizeTags приводит строку тегов к каноническому виду.
func NormalizeTags(input string) string {
	return FormatTags(ParseTags(input))
}

// TagList возвращает теги записи списком.
func (e *Entry) TagList() []string { return ParseTags(e.Tags) }

// TagList возвращает теги ссылки списком.
func (l *Link) TagList() []string { return ParseTags(l.Tags) }
