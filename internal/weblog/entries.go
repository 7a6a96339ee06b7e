package weblog

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// EntrySummary - строка списка записей в админке.
type EntrySummary struct {
	*domain.Entry
	CommentCount  int `json:"commentCount"`
	CategoryCount int `json:"categoryCount"`
}

// prepareEntry заполняет значения по умолчанию, рендерит текст и проверяет поля.
// Рендер выполняется при каждом сохранении, до записи в хранилище.
func (s *Service) prepareEntry(e *domain.Entry) error {
	if e.Status == 0 {
		e.Status = domain.StatusLive
	}
	if e.PubDate.IsZero() {
		e.PubDate = s.now()
	}
	e.PubDate = e.PubDate.UTC()
	if e.Slug == "" {
		e.Slug = domain.Slugify(e.Title)
	}
	e.Tags = domain.NormalizeTags(e.Tags)

	if err := e.Render(s.render); err != nil {
		return fmt.Errorf("render entry: %w", err)
	}
	return domain.Validate(e)
}

func (s *Service) CreateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if err := s.prepareEntry(e); err != nil {
		return nil, err
	}
	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return nil, storeError(err)
	}
	s.indexEntry(created)
	return created, nil
}

func (s *Service) UpdateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if err := s.prepareEntry(e); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return nil, storeError(err)
	}
	s.indexEntry(updated)
	return updated, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.unindex(search.KindEntry, id)
	return nil
}

func (s *Service) Entry(ctx context.Context, id string) (*domain.Entry, error) {
	return s.store.GetEntryByID(ctx, id)
}

// LiveEntryByDate ищет опубликованную запись по дате и slug из ее URL.
// Черновики и скрытые записи публично не видны: для них возвращается ErrNotFound.
func (s *Service) LiveEntryByDate(ctx context.Context, day time.Time, slug string) (*domain.Entry, error) {
	e, err := s.store.GetEntryByDate(ctx, day, slug)
	if err != nil {
		return nil, err
	}
	if !e.IsLive() {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

// LiveEntries возвращает опубликованные записи, от новых к старым.
// Пустой categoryID означает все категории.
func (s *Service) LiveEntries(ctx context.Context, categoryID string) ([]*domain.Entry, error) {
	return s.store.LiveEntries(ctx, categoryID)
}

// Next возвращает следующую по дате опубликованную запись или nil.
func (s *Service) Next(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	return s.store.AdjacentLiveEntry(ctx, e, domain.Next)
}

// Previous возвращает предыдущую по дате опубликованную запись или nil.
func (s *Service) Previous(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	return s.store.AdjacentLiveEntry(ctx, e, domain.Previous)
}

// ListEntries - список записей для админки с числом комментариев и категорий.
func (s *Service) ListEntries(ctx context.Context, f storage.EntryFilter) ([]EntrySummary, error) {
	entries, err := s.store.ListEntries(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	counts, err := s.store.CountComments(ctx, domain.TargetEntry, ids, false)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	out := make([]EntrySummary, len(entries))
	for i, e := range entries {
		out[i] = EntrySummary{Entry: e, CommentCount: counts[e.ID], CategoryCount: len(e.CategoryIDs)}
	}
	return out, nil
}

func (s *Service) indexEntry(e *domain.Entry) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexEntry(e); err != nil {
		s.logger.WithError(err).WithField("entry_id", e.ID).Error("failed to index entry")
	}
}

func (s *Service) unindex(kind search.Kind, id string) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(kind, id); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"kind": kind, "id": id}).Error("failed to remove from index")
	}
}
