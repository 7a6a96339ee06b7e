package domain

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

const maxSlugLength = 50

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Slugify строит slug из заголовка.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) <= maxSlugLength {
		return s
	}
	s = s[:maxSlugLength]
	if i := strings.LastIndex(s, "-"); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// IsValidSlug проверяет, что slug можно использовать в URL.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
