package domain

import (
	"fmt"
	"strings"
	"time"
)

var monthAbbrs = [...]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// MonthAbbr возвращает трехбуквенное сокращение месяца в нижнем регистре.
func MonthAbbr(m time.Month) string {
	return monthAbbrs[m-1]
}

// ParseMonthAbbr - обратное преобразование к MonthAbbr.
func ParseMonthAbbr(s string) (time.Month, error) {
	s = strings.ToLower(s)
	for i, abbr := range monthAbbrs {
		if abbr == s {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// ParseDay собирает дату из компонентов канонического URL (2008/jan/05).
func ParseDay(year, month, day string) (time.Time, error) {
	m, err := ParseMonthAbbr(month)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-1-2", fmt.Sprintf("%s-%d-%s", year, int(m), day), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %s/%s/%s: %w", year, month, day, err)
	}
	return t, nil
}

func datedURL(prefix string, pub time.Time, slug string) string {
	pub = pub.UTC()
	return fmt.Sprintf("/%s/%04d/%s/%02d/%s/", prefix, pub.Year(), MonthAbbr(pub.Month()), pub.Day(), slug)
}

func (c *Category) AbsoluteURL() string { return "/categories/" + c.Slug + "/" }

func (e *Entry) AbsoluteURL() string { return datedURL("entries", e.PubDate, e.Slug) }

func (l *Link) AbsoluteURL() string { return datedURL("links", l.PubDate, l.Slug) }
