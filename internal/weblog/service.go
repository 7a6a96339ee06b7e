// Package weblog - сервисный слой блога: рендер, валидация и сохранение
// записей, ссылок и категорий, модерация комментариев и публикация закладок.
package weblog

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UkralStul/weblog-service/internal/delicious"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/markup"
	"github.com/UkralStul/weblog-service/internal/moderation"
	"github.com/UkralStul/weblog-service/internal/notify"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// ErrCommentsClosed - комментарии к объекту отклонены модератором.
var ErrCommentsClosed = errors.New("comments are closed")

// Publisher публикует ссылку во внешнем сервисе закладок.
type Publisher interface {
	Add(ctx context.Context, b delicious.Bookmark) error
}

// Indexer - полнотекстовый индекс для админки.
type Indexer interface {
	IndexEntry(e *domain.Entry) error
	IndexLink(l *domain.Link) error
	Delete(kind search.Kind, id string) error
	Search(kind search.Kind, q string, limit int) ([]string, error)
}

// Decider принимает решение по комментарию.
type Decider interface {
	Decide(ctx context.Context, target moderation.Target, c moderation.Comment) moderation.Decision
}

// Notifier отправляет администраторам письмо о комментарии.
type Notifier interface {
	NotifyComment(n notify.CommentNotice) error
}

// Broadcaster рассылает опубликованные комментарии подписчикам.
type Broadcaster interface {
	Publish(c *domain.Comment)
}

const defaultPublishTimeout = 10 * time.Second

// Service объединяет хранилище и внешних участников.
type Service struct {
	store          storage.Storage
	render         domain.RenderFunc
	moderator      Decider
	publisher      Publisher
	index          Indexer
	mailer         Notifier
	broadcaster    Broadcaster
	logger         logrus.FieldLogger
	now            func() time.Time
	publishTimeout time.Duration
}

type Option func(*Service)

func WithPublisher(p Publisher) Option     { return func(s *Service) { s.publisher = p } }
func WithIndex(idx Indexer) Option         { return func(s *Service) { s.index = idx } }
func WithMailer(m Notifier) Option         { return func(s *Service) { s.mailer = m } }
func WithBroadcaster(b Broadcaster) Option { return func(s *Service) { s.broadcaster = b } }
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithPublishTimeout ограничивает время вызова внешнего сервиса закладок.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// New создает сервис. moderator обязателен для приема комментариев.
func New(store storage.Storage, renderer markup.Renderer, moderator Decider, opts ...Option) *Service {
	s := &Service{
		store:          store,
		render:         renderer.Render,
		moderator:      moderator,
		logger:         logrus.StandardLogger(),
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store возвращает хранилище сервиса.
func (s *Service) Store() storage.Storage { return s.store }

// storeError переводит ошибки уникальности в ошибки валидации,
// сохраняя исходный sentinel для errors.Is.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateSlug):
		return &domain.ValidationError{Field: "slug", Message: "must be unique for the publication date", Err: err}
	case errors.Is(err, storage.ErrDuplicateCategorySlug):
		return &domain.ValidationError{Field: "slug", Message: "category with this slug already exists", Err: err}
	case errors.Is(err, storage.ErrDuplicateURL):
		return &domain.ValidationError{Field: "url", Message: "link with this url already exists", Err: err}
	case errors.Is(err, storage.ErrUnknownCategory):
		return &domain.ValidationError{Field: "categoryIds", Message: "unknown category", Err: err}
	default:
		return err
	}
}
