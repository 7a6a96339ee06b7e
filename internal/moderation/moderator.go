// Package moderation решает, что делать с новым комментарием:
// принять, отложить на модерацию или отклонить.
package moderation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Action - решение модератора.
type Action int

const (
	Accept Action = iota
	Hold
	Reject
)

func (a Action) String() string {
	switch a {
	case Accept:
		return "accept"
	case Hold:
		return "hold"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Target - объект, к которому оставляют комментарий (запись или ссылка).
type Target interface {
	CommentsEnabled() bool
	PublishedAt() time.Time
}

// Comment - данные комментария, нужные для проверки на спам.
type Comment struct {
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	IPAddress   string
	UserAgent   string
	Referrer    string
	Body        string
	Permalink   string
}

// SpamChecker классифицирует комментарий.
type SpamChecker interface {
	IsSpam(ctx context.Context, c Comment) (bool, error)
}

// Config - настройки модерации.
type Config struct {
	// ModerateAfter - возраст объекта, после которого все комментарии
	// уходят на модерацию.
	ModerateAfter     time.Duration
	SpamCheck         bool
	EmailNotification bool
}

// Decision - результат модерации.
type Decision struct {
	Action Action
	Notify bool
	Reason string
}

// Moderator применяет политику модерации. Ошибок не возвращает:
// при любой неопределенности комментарий откладывается.
type Moderator struct {
	cfg    Config
	spam   SpamChecker
	now    func() time.Time
	logger logrus.FieldLogger
}

type Option func(*Moderator)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *Moderator) { m.now = now }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Moderator) { m.logger = l }
}

// New создает модератора. spam может быть nil, если проверка выключена.
func New(cfg Config, spam SpamChecker, opts ...Option) *Moderator {
	m := &Moderator{
		cfg:    cfg,
		spam:   spam,
		now:    time.Now,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Decide возвращает решение для комментария к target.
func (m *Moderator) Decide(ctx context.Context, target Target, c Comment) Decision {
	if !target.CommentsEnabled() {
		return Decision{Action: Reject, Reason: "comments are disabled"}
	}
	return m.withNotify(m.classify(ctx, target, c))
}

func (m *Moderator) classify(ctx context.Context, target Target, c Comment) Decision {
	if m.cfg.SpamCheck {
		if m.spam == nil {
			m.logger.Warn("spam check enabled without a checker, holding comment")
			return Decision{Action: Hold, Reason: "spam checker is not configured"}
		}
		spam, err := m.spam.IsSpam(ctx, c)
		if err != nil {
			m.logger.WithError(err).Warn("spam check failed, holding comment")
			return Decision{Action: Hold, Reason: "spam check failed"}
		}
		if spam {
			return Decision{Action: Hold, Reason: "looks like spam"}
		}
	}

	if m.cfg.ModerateAfter <= 0 {
		return Decision{Action: Hold, Reason: "moderation threshold is not configured"}
	}
	if m.now().Sub(target.PublishedAt()) > m.cfg.ModerateAfter {
		return Decision{Action: Hold, Reason: "target is older than the moderation threshold"}
	}
	return Decision{Action: Accept}
}

func (m *Moderator) withNotify(d Decision) Decision {
	d.Notify = m.cfg.EmailNotification && d.Action != Reject
	return d
}
