package weblog

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/weblog-service/internal/delicious"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// PublishStatus - итог публикации ссылки во внешнем сервисе закладок.
type PublishStatus int

const (
	PublishSkipped PublishStatus = iota
	PublishSucceeded
	PublishFailed
)

func (p PublishStatus) String() string {
	switch p {
	case PublishSucceeded:
		return "succeeded"
	case PublishFailed:
		return "failed"
	default:
		return "skipped"
	}
}

func (p PublishStatus) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// LinkResult - сохраненная ссылка и результат ее публикации.
// Ошибка публикации не отменяет сохранение.
type LinkResult struct {
	Link       *domain.Link  `json:"link"`
	Publish    PublishStatus `json:"publish"`
	PublishErr error         `json:"-"`
}

func (s *Service) prepareLink(l *domain.Link) error {
	if l.PubDate.IsZero() {
		l.PubDate = s.now()
	}
	l.PubDate = l.PubDate.UTC()
	if l.Slug == "" {
		l.Slug = domain.Slugify(l.Title)
	}
	l.Tags = domain.NormalizeTags(l.Tags)

	if err := l.Render(s.render); err != nil {
		return fmt.Errorf("render link: %w", err)
	}
	return domain.Validate(l)
}

// CreateLink сохраняет ссылку и, если PostElsewhere, один раз публикует ее
// во внешнем сервисе закладок.
func (s *Service) CreateLink(ctx context.Context, l *domain.Link) (*LinkResult, error) {
	if err := s.prepareLink(l); err != nil {
		return nil, err
	}
	created, err := s.store.CreateLink(ctx, l)
	if err != nil {
		return nil, storeError(err)
	}
	s.indexLink(created)

	res := &LinkResult{Link: created}
	if !created.PostElsewhere || s.publisher == nil {
		return res, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	err = s.publisher.Add(pctx, delicious.Bookmark{
		URL:   created.URL,
		Title: created.Title,
		Tags:  created.TagList(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("link_id", created.ID).Warn("failed to publish link")
		res.Publish = PublishFailed
		res.PublishErr = err
		return res, nil
	}
	res.Publish = PublishSucceeded
	return res, nil
}

// UpdateLink сохраняет изменения ссылки. Повторной публикации не происходит.
func (s *Service) UpdateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	if err := s.prepareLink(l); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateLink(ctx, l)
	if err != nil {
		return nil, storeError(err)
	}
	s.indexLink(updated)
	return updated, nil
}

func (s *Service) DeleteLink(ctx context.Context, id string) error {
	if err := s.store.DeleteLink(ctx, id); err != nil {
		return err
	}
	s.unindex(search.KindLink, id)
	return nil
}

func (s *Service) Link(ctx context.Context, id string) (*domain.Link, error) {
	return s.store.GetLinkByID(ctx, id)
}

func (s *Service) LinkByDate(ctx context.Context, day time.Time, slug string) (*domain.Link, error) {
	return s.store.GetLinkByDate(ctx, day, slug)
}

func (s *Service) ListLinks(ctx context.Context, f storage.LinkFilter) ([]*domain.Link, error) {
	return s.store.ListLinks(ctx, f)
}

func (s *Service) indexLink(l *domain.Link) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexLink(l); err != nil {
		s.logger.WithError(err).WithField("link_id", l.ID).Error("failed to index link")
	}
}
