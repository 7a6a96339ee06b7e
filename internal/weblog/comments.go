package weblog

import (
	"context"
	"fmt"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/moderation"
	"github.com/UkralStul/weblog-service/internal/notify"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// CommentInput - комментарий, присланный читателем.
type CommentInput struct {
	TargetType  domain.TargetType
	TargetID    string
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	IPAddress   string
	UserAgent   string
	Referrer    string
	Body        string
}

type commentTarget interface {
	moderation.Target
	AbsoluteURL() string
}

func (s *Service) loadTarget(ctx context.Context, t domain.TargetType, id string) (commentTarget, string, error) {
	switch t {
	case domain.TargetEntry:
		e, err := s.store.GetEntryByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		// к черновикам и скрытым записям комментарии не принимаются
		if !e.IsLive() {
			return nil, "", storage.ErrNotFound
		}
		return e, e.Title, nil
	case domain.TargetLink:
		l, err := s.store.GetLinkByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return l, l.Title, nil
	default:
		return nil, "", &domain.ValidationError{Field: "targetType", Message: fmt.Sprintf("unknown target type %q", t)}
	}
}

// SubmitComment проводит комментарий через модератора и сохраняет его.
// Отклоненный комментарий не сохраняется, возвращается ErrCommentsClosed.
// Отложенный сохраняется с IsPublic == false.
func (s *Service) SubmitComment(ctx context.Context, in CommentInput) (*domain.Comment, moderation.Decision, error) {
	target, title, err := s.loadTarget(ctx, in.TargetType, in.TargetID)
	if err != nil {
		return nil, moderation.Decision{}, err
	}

	c := &domain.Comment{
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		AuthorURL:   in.AuthorURL,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Body:        in.Body,
		CreatedAt:   s.now().UTC(),
	}
	if err := domain.Validate(c); err != nil {
		return nil, moderation.Decision{}, err
	}

	decision := s.moderator.Decide(ctx, target, moderation.Comment{
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		AuthorURL:   in.AuthorURL,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Referrer:    in.Referrer,
		Body:        in.Body,
		Permalink:   target.AbsoluteURL(),
	})
	log := s.logger.WithField("target", string(in.TargetType)+":"+in.TargetID).
		WithField("action", decision.Action.String())
	if decision.Action == moderation.Reject {
		log.Info("comment rejected")
		return nil, decision, ErrCommentsClosed
	}

	c.IsPublic = decision.Action == moderation.Accept
	created, err := s.store.CreateComment(ctx, c)
	if err != nil {
		return nil, decision, err
	}
	log.WithField("reason", decision.Reason).Info("comment saved")

	if decision.Notify && s.mailer != nil {
		err := s.mailer.NotifyComment(notify.CommentNotice{
			TargetTitle: title,
			TargetURL:   target.AbsoluteURL(),
			AuthorName:  created.AuthorName,
			AuthorEmail: created.AuthorEmail,
			Body:        created.Body,
			Held:        !created.IsPublic,
		})
		if err != nil {
			log.WithError(err).Warn("failed to send comment notification")
		}
	}
	if created.IsPublic && s.broadcaster != nil {
		s.broadcaster.Publish(created)
	}
	return created, decision, nil
}

// Comments возвращает комментарии объекта в порядке создания.
func (s *Service) Comments(ctx context.Context, t domain.TargetType, id string, publicOnly bool) ([]*domain.Comment, error) {
	return s.store.GetCommentsByTarget(ctx, t, id, publicOnly)
}

// CheckCommentTarget проверяет, что объект виден читателям.
// Для черновиков и скрытых записей возвращает storage.ErrNotFound.
func (s *Service) CheckCommentTarget(ctx context.Context, t domain.TargetType, id string) error {
	_, _, err := s.loadTarget(ctx, t, id)
	return err
}

// PublicComments возвращает опубликованные комментарии объекта, видимого читателям.
func (s *Service) PublicComments(ctx context.Context, t domain.TargetType, id string) ([]*domain.Comment, error) {
	if err := s.CheckCommentTarget(ctx, t, id); err != nil {
		return nil, err
	}
	return s.store.GetCommentsByTarget(ctx, t, id, true)
}
