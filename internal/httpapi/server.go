// Package httpapi - JSON API блога поверх chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/UkralStul/weblog-service/internal/dataloader"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/UkralStul/weblog-service/internal/weblog"
)

// Options - настройки HTTP слоя.
type Options struct {
	// DefaultPostElsewhere - значение PostElsewhere для новых ссылок,
	// если клиент его не передал.
	DefaultPostElsewhere bool
	// KeepAlivePingInterval - период ping для websocket подписчиков.
	KeepAlivePingInterval time.Duration
}

// Server обслуживает публичные и админские запросы.
type Server struct {
	svc      *weblog.Service
	observer *CommentObserver
	logger   logrus.FieldLogger
	opts     Options
	upgrader websocket.Upgrader
}

func NewServer(svc *weblog.Service, observer *CommentObserver, logger logrus.FieldLogger, opts Options) *Server {
	if opts.KeepAlivePingInterval <= 0 {
		opts.KeepAlivePingInterval = 10 * time.Second
	}
	return &Server{
		svc:      svc,
		observer: observer,
		logger:   logger,
		opts:     opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router собирает chi роутер со всеми маршрутами.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(func(next http.Handler) http.Handler {
		return dataloader.Middleware(s.svc.Store(), next)
	})

	router.Get("/categories", s.listCategories)
	router.Get("/categories/{slug}", s.getCategory)
	router.Get("/categories/{slug}/entries", s.categoryEntries)

	router.Get("/entries", s.liveEntries)
	router.Get("/entries/{year}/{month}/{day}/{slug}", s.entryDetail)

	router.Get("/links", s.listLinks)
	router.Get("/links/{year}/{month}/{day}/{slug}", s.linkDetail)

	router.Get("/comments/{type}/{id}", s.listComments)
	router.Post("/comments/{type}/{id}", s.postComment)
	router.Get("/comments/{type}/{id}/ws", s.commentFeed)

	router.Route("/admin", func(r chi.Router) {
		r.Post("/categories", s.createCategory)
		r.Put("/categories/{id}", s.updateCategory)
		r.Delete("/categories/{id}", s.deleteCategory)

		r.Get("/entries", s.adminEntries)
		r.Post("/entries", s.createEntry)
		r.Put("/entries/{id}", s.updateEntry)
		r.Delete("/entries/{id}", s.deleteEntry)

		r.Get("/links", s.listLinks)
		r.Post("/links", s.createLink)
		r.Put("/links/{id}", s.updateLink)
		r.Delete("/links/{id}", s.deleteLink)

		r.Get("/search", s.search)
	})
	return router
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибку сервиса в HTTP статус.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, weblog.ErrCommentsClosed):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, weblog.ErrSearchDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.logger.WithError(err).
			WithField("request_id", middleware.GetReqID(r.Context())).
			Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
