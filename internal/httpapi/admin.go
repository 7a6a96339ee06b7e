package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
)

type categoryRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// entryRequest - тело запроса создания/изменения записи.
// Незаданные указатели при изменении сохраняют текущее значение.
type entryRequest struct {
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	PubDate        *time.Time    `json:"pubDate"`
	AuthorID       string        `json:"authorId"`
	Status         domain.Status `json:"status"`
	Featured       bool          `json:"featured"`
	EnableComments *bool         `json:"enableComments"`
	Excerpt        string        `json:"excerpt"`
	Body           string        `json:"body"`
	Tags           string        `json:"tags"`
	CategoryIDs    []string      `json:"categoryIds"`
}

func (req *entryRequest) apply(e *domain.Entry) {
	e.Title = req.Title
	if req.Slug != "" {
		e.Slug = req.Slug
	}
	if req.PubDate != nil {
		e.PubDate = *req.PubDate
	}
	if req.AuthorID != "" {
		e.AuthorID = req.AuthorID
	}
	if req.Status != 0 {
		e.Status = req.Status
	}
	e.Featured = req.Featured
	if req.EnableComments != nil {
		e.EnableComments = *req.EnableComments
	}
	e.Excerpt = req.Excerpt
	e.Body = req.Body
	e.Tags = req.Tags
	e.CategoryIDs = req.CategoryIDs
}

type linkRequest struct {
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	PubDate        *time.Time `json:"pubDate"`
	PostedByID     string     `json:"postedById"`
	EnableComments *bool      `json:"enableComments"`
	PostElsewhere  *bool      `json:"postElsewhere"`
	URL            string     `json:"url"`
	Description    string     `json:"description"`
	ViaName        string     `json:"viaName"`
	ViaURL         string     `json:"viaUrl"`
	Tags           string     `json:"tags"`
}

func (req *linkRequest) apply(l *domain.Link) {
	l.Title = req.Title
	if req.Slug != "" {
		l.Slug = req.Slug
	}
	if req.PubDate != nil {
		l.PubDate = *req.PubDate
	}
	if req.PostedByID != "" {
		l.PostedByID = req.PostedByID
	}
	if req.EnableComments != nil {
		l.EnableComments = *req.EnableComments
	}
	if req.PostElsewhere != nil {
		l.PostElsewhere = *req.PostElsewhere
	}
	l.URL = req.URL
	l.Description = req.Description
	l.ViaName = req.ViaName
	l.ViaURL = req.ViaURL
	l.Tags = req.Tags
}

type linkResponse struct {
	Link         *domain.Link `json:"link"`
	Publish      string       `json:"publish"`
	PublishError string       `json:"publishError,omitempty"`
}

// === Categories ===

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	c, err := s.svc.CreateCategory(r.Context(), &domain.Category{Title: req.Title, Slug: req.Slug, Description: req.Description})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	c, err := s.svc.Category(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// без slug в запросе адрес рубрики не меняется
	if req.Slug != "" {
		c.Slug = req.Slug
	}
	c.Title = req.Title
	c.Description = req.Description
	c, err = s.svc.UpdateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Entries ===

func parseEntryFilter(r *http.Request) (storage.EntryFilter, error) {
	var f storage.EntryFilter
	ints, err := queryInts(r, "year", "month", "day", "limit", "offset")
	if err != nil {
		return f, err
	}
	f.Year, f.Month, f.Day = ints["year"], time.Month(ints["month"]), ints["day"]
	f.Limit, f.Offset = ints["limit"], ints["offset"]
	f.CategoryID = r.URL.Query().Get("category")
	if name := r.URL.Query().Get("status"); name != "" {
		st, err := domain.ParseStatus(name)
		if err != nil {
			return f, &domain.ValidationError{Field: "status", Message: err.Error()}
		}
		f.Status = st
	}
	return f, nil
}

func (s *Server) adminEntries(w http.ResponseWriter, r *http.Request) {
	f, err := parseEntryFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries, err := s.svc.ListEntries(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	e := &domain.Entry{EnableComments: true}
	req.apply(e)
	created, err := s.svc.CreateEntry(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	e, err := s.svc.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.apply(e)
	updated, err := s.svc.UpdateEntry(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Links ===

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	l := &domain.Link{PostElsewhere: s.opts.DefaultPostElsewhere, EnableComments: true}
	req.apply(l)
	res, err := s.svc.CreateLink(r.Context(), l)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := linkResponse{Link: res.Link, Publish: res.Publish.String()}
	if res.PublishErr != nil {
		resp.PublishError = res.PublishErr.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) updateLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	l, err := s.svc.Link(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.apply(l)
	updated, err := s.svc.UpdateLink(r.Context(), l)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLink(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Search ===

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := search.Kind(q.Get("kind"))
	if kind != "" && kind != search.KindEntry && kind != search.KindLink {
		badRequest(w, "kind must be entry or link")
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	res, err := s.svc.Search(r.Context(), kind, q.Get("q"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
