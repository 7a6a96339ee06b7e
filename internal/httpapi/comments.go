package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/moderation"
	"github.com/UkralStul/weblog-service/internal/weblog"
)

type commentRequest struct {
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	AuthorURL   string `json:"authorUrl"`
	Body        string `json:"body"`
}

type commentResponse struct {
	Comment *domain.Comment `json:"comment"`
	Action  string          `json:"action"`
}

func targetFromURL(r *http.Request) (domain.TargetType, string, bool) {
	t := domain.TargetType(chi.URLParam(r, "type"))
	if t != domain.TargetEntry && t != domain.TargetLink {
		return "", "", false
	}
	return t, chi.URLParam(r, "id"), true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	t, id, ok := targetFromURL(r)
	if !ok {
		badRequest(w, "unknown target type")
		return
	}
	comments, err := s.svc.PublicComments(r.Context(), t, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// postComment принимает комментарий читателя. Принятый комментарий
// возвращается с 201, отложенный на модерацию - с 202.
func (s *Server) postComment(w http.ResponseWriter, r *http.Request) {
	t, id, ok := targetFromURL(r)
	if !ok {
		badRequest(w, "unknown target type")
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	c, decision, err := s.svc.SubmitComment(r.Context(), weblog.CommentInput{
		TargetType:  t,
		TargetID:    id,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		AuthorURL:   req.AuthorURL,
		IPAddress:   clientIP(r),
		UserAgent:   r.UserAgent(),
		Referrer:    r.Referer(),
		Body:        req.Body,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if decision.Action == moderation.Hold {
		status = http.StatusAccepted
	}
	writeJSON(w, status, commentResponse{Comment: c, Action: decision.Action.String()})
}

// commentFeed отдает новые опубликованные комментарии объекта по websocket.
func (s *Server) commentFeed(w http.ResponseWriter, r *http.Request) {
	t, id, ok := targetFromURL(r)
	if !ok {
		badRequest(w, "unknown target type")
		return
	}
	// Проверяем, виден ли объект, прежде чем подписываться
	if err := s.svc.CheckCommentTarget(r.Context(), t, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	comments, unsubscribe := s.observer.Subscribe(t, id)
	defer unsubscribe()

	// Горутина для очистки при отключении клиента
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.opts.KeepAlivePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case c, ok := <-comments:
			if !ok {
				return
			}
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
