package storage

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateCategorySlug = errors.New("category with this slug already exists")
	ErrDuplicateSlug         = errors.New("slug must be unique for the publication date")
	ErrDuplicateURL          = errors.New("link with this url already exists")
	ErrUnknownCategory       = errors.New("unknown category")
)

// EntryFilter - параметры выборки записей для админки.
// Нулевые значения полей означают "без фильтра".
type EntryFilter struct {
	Status     domain.Status
	CategoryID string
	Year       int
	Month      time.Month
	Day        int
	Limit      int
	Offset     int
}

// LinkFilter - параметры выборки ссылок для админки.
type LinkFilter struct {
	Year   int
	Month  time.Month
	Day    int
	Limit  int
	Offset int
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	GetCategoryByID(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	CreateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	GetEntryByID(ctx context.Context, id string) (*domain.Entry, error)
	GetEntryByDate(ctx context.Context, day time.Time, slug string) (*domain.Entry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]*domain.Entry, error)

	// LiveEntries возвращает опубликованные записи (опционально одной рубрики),
	// от новых к старым.
	LiveEntries(ctx context.Context, categoryID string) ([]*domain.Entry, error)
	// AdjacentLiveEntry ищет ближайшую опубликованную запись по pub_date
	// в заданном направлении. Если такой нет, возвращает nil, nil.
	AdjacentLiveEntry(ctx context.Context, e *domain.Entry, dir domain.Direction) (*domain.Entry, error)

	CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error)
	UpdateLink(ctx context.Context, l *domain.Link) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	GetLinkByID(ctx context.Context, id string) (*domain.Link, error)
	GetLinkByDate(ctx context.Context, day time.Time, slug string) (*domain.Link, error)
	ListLinks(ctx context.Context, f LinkFilter) ([]*domain.Link, error)

	CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
	GetCommentsByTarget(ctx context.Context, targetType domain.TargetType, targetID string, publicOnly bool) ([]*domain.Comment, error)

	// Метод для Dataloader'а
	CountComments(ctx context.Context, targetType domain.TargetType, targetIDs []string, publicOnly bool) (map[string]int, error)
}

// DateRange переводит фильтр по году/месяцу/дню в полуинтервал [from, to).
// ok == false, если год не задан.
func DateRange(year int, month time.Month, day int) (from, to time.Time, ok bool) {
	if year == 0 {
		return time.Time{}, time.Time{}, false
	}
	switch {
	case month == 0:
		from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	case day == 0:
		from = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	default:
		from = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 0, 1)
	}
	return from, to, true
}
