package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/UkralStul/weblog-service/internal/dataloader"
	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
)

type entryView struct {
	*domain.Entry
	Permalink    string `json:"permalink"`
	CommentCount int    `json:"commentCount"`
}

type entryDetailView struct {
	entryView
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

type linkView struct {
	*domain.Link
	Permalink    string `json:"permalink"`
	CommentCount int    `json:"commentCount"`
}

type categoryView struct {
	*domain.Category
	Permalink string `json:"permalink"`
}

func (s *Server) entryViews(r *http.Request, entries []*domain.Entry) ([]entryView, error) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	counts, err := dataloader.For(r.Context()).CountCommentsMany(r.Context(), domain.TargetEntry, ids, true)
	if err != nil {
		return nil, err
	}
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{Entry: e, Permalink: e.AbsoluteURL(), CommentCount: counts[e.ID]}
	}
	return out, nil
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		out[i] = categoryView{Category: c, Permalink: c.AbsoluteURL()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView{Category: c, Permalink: c.AbsoluteURL()})
}

func (s *Server) categoryEntries(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeLiveEntries(w, r, c.ID)
}

func (s *Server) liveEntries(w http.ResponseWriter, r *http.Request) {
	s.writeLiveEntries(w, r, "")
}

func (s *Server) writeLiveEntries(w http.ResponseWriter, r *http.Request, categoryID string) {
	entries, err := s.svc.LiveEntries(r.Context(), categoryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views, err := s.entryViews(r, entries)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func parseURLDay(r *http.Request) (time.Time, error) {
	return domain.ParseDay(chi.URLParam(r, "year"), chi.URLParam(r, "month"), chi.URLParam(r, "day"))
}

func (s *Server) entryDetail(w http.ResponseWriter, r *http.Request) {
	day, err := parseURLDay(r)
	if err != nil {
		s.writeError(w, r, storage.ErrNotFound)
		return
	}
	ctx := r.Context()
	e, err := s.svc.LiveEntryByDate(ctx, day, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	count, err := dataloader.For(ctx).CountComments(ctx, domain.TargetEntry, e.ID, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view := entryDetailView{entryView: entryView{Entry: e, Permalink: e.AbsoluteURL(), CommentCount: count}}

	next, err := s.svc.Next(ctx, e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if next != nil {
		view.Next = next.AbsoluteURL()
	}
	prev, err := s.svc.Previous(ctx, e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if prev != nil {
		view.Previous = prev.AbsoluteURL()
	}
	writeJSON(w, http.StatusOK, view)
}

// parseLinkFilter читает year/month/day/limit/offset из query.
func parseLinkFilter(r *http.Request) (storage.LinkFilter, error) {
	var f storage.LinkFilter
	ints, err := queryInts(r, "year", "month", "day", "limit", "offset")
	if err != nil {
		return f, err
	}
	f.Year, f.Month, f.Day = ints["year"], time.Month(ints["month"]), ints["day"]
	f.Limit, f.Offset = ints["limit"], ints["offset"]
	return f, nil
}

func queryInts(r *http.Request, keys ...string) (map[string]int, error) {
	out := make(map[string]int, len(keys))
	q := r.URL.Query()
	for _, k := range keys {
		v := q.Get(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &domain.ValidationError{Field: k, Message: "must be a non-negative integer"}
		}
		out[k] = n
	}
	return out, nil
}

func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	f, err := parseLinkFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	links, err := s.svc.ListLinks(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	counts, err := dataloader.For(r.Context()).CountCommentsMany(r.Context(), domain.TargetLink, ids, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]linkView, len(links))
	for i, l := range links {
		out[i] = linkView{Link: l, Permalink: l.AbsoluteURL(), CommentCount: counts[l.ID]}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) linkDetail(w http.ResponseWriter, r *http.Request) {
	day, err := parseURLDay(r)
	if err != nil {
		s.writeError(w, r, storage.ErrNotFound)
		return
	}
	ctx := r.Context()
	l, err := s.svc.LinkByDate(ctx, day, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	count, err := dataloader.For(ctx).CountComments(ctx, domain.TargetLink, l.ID, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linkView{Link: l, Permalink: l.AbsoluteURL(), CommentCount: count})
}
