package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются только копии, чтобы вызывающий код не мог изменить
// состояние хранилища в обход методов записи.
type Store struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category
	entries    map[string]*domain.Entry
	links      map[string]*domain.Link
	comments   map[string]*domain.Comment
	byTarget   map[string][]string // map[targetType:targetID][]commentID
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		categories: make(map[string]*domain.Category),
		entries:    make(map[string]*domain.Entry),
		links:      make(map[string]*domain.Link),
		comments:   make(map[string]*domain.Comment),
		byTarget:   make(map[string][]string),
	}
}

var _ storage.Storage = (*Store)(nil)

func targetKey(t domain.TargetType, id string) string { return string(t) + ":" + id }

func cloneCategory(c *domain.Category) *domain.Category {
	cp := *c
	return &cp
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	cp := *e
	cp.CategoryIDs = append([]string(nil), e.CategoryIDs...)
	return &cp
}

func cloneLink(l *domain.Link) *domain.Link {
	cp := *l
	return &cp
}

func cloneComment(c *domain.Comment) *domain.Comment {
	cp := *c
	return &cp
}

// newestFirst - порядок по умолчанию: pub_date по убыванию.
func newestFirst(entries []*domain.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].PubDate.Equal(entries[j].PubDate) {
			return entries[i].PubDate.After(entries[j].PubDate)
		}
		return entries[i].ID > entries[j].ID
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func inRange(t time.Time, year int, month time.Month, day int) bool {
	from, to, ok := storage.DateRange(year, month, day)
	if !ok {
		return true
	}
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}

// === Category Methods ===

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.checkCategorySlug(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = cloneCategory(c)
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return nil, storage.ErrNotFound
	}
	if err := s.checkCategorySlug(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = cloneCategory(c)
	return c, nil
}

func (s *Store) checkCategorySlug(c *domain.Category) error {
	for _, other := range s.categories {
		if other.ID != c.ID && other.Slug == c.Slug {
			return storage.ErrDuplicateCategorySlug
		}
	}
	return nil
}

// DeleteCategory удаляет рубрику и убирает ее из всех записей.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.categories, id)
	for _, e := range s.entries {
		kept := e.CategoryIDs[:0]
		for _, cid := range e.CategoryIDs {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		e.CategoryIDs = kept
	}
	return nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return cloneCategory(c), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// === Entry Methods ===

func (s *Store) CreateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := s.checkEntry(e); err != nil {
		return nil, err
	}
	e.CategoryIDs = uniqueSorted(e.CategoryIDs)
	e.PubDay = e.Day()
	e.UpdatedAt = time.Now().UTC()
	s.entries[e.ID] = cloneEntry(e)
	return e, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID]; !ok {
		return nil, storage.ErrNotFound
	}
	if err := s.checkEntry(e); err != nil {
		return nil, err
	}
	e.CategoryIDs = uniqueSorted(e.CategoryIDs)
	e.PubDay = e.Day()
	e.UpdatedAt = time.Now().UTC()
	s.entries[e.ID] = cloneEntry(e)
	return e, nil
}

func (s *Store) checkEntry(e *domain.Entry) error {
	day := e.Day()
	for _, other := range s.entries {
		if other.ID != e.ID && other.Slug == e.Slug && other.PubDay == day {
			return storage.ErrDuplicateSlug
		}
	}
	for _, cid := range e.CategoryIDs {
		if _, ok := s.categories[cid]; !ok {
			return storage.ErrUnknownCategory
		}
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) GetEntryByID(ctx context.Context, id string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *Store) GetEntryByDate(ctx context.Context, day time.Time, slug string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := domain.DayKey(day)
	for _, e := range s.entries {
		if e.Slug == slug && e.PubDay == key {
			return cloneEntry(e), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListEntries(ctx context.Context, f storage.EntryFilter) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Entry
	for _, e := range s.entries {
		if f.Status != 0 && e.Status != f.Status {
			continue
		}
		if f.CategoryID != "" && !hasCategory(e, f.CategoryID) {
			continue
		}
		if !inRange(e.PubDate, f.Year, f.Month, f.Day) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	newestFirst(out)
	return paginate(out, f.Limit, f.Offset), nil
}

func hasCategory(e *domain.Entry, categoryID string) bool {
	for _, cid := range e.CategoryIDs {
		if cid == categoryID {
			return true
		}
	}
	return false
}

func (s *Store) LiveEntries(ctx context.Context, categoryID string) ([]*domain.Entry, error) {
	return s.ListEntries(ctx, storage.EntryFilter{Status: domain.StatusLive, CategoryID: categoryID})
}

// AdjacentLiveEntry сравнивает записи по паре (pub_date, id), поэтому
// записи с одинаковой датой тоже упорядочены однозначно.
func (s *Store) AdjacentLiveEntry(ctx context.Context, e *domain.Entry, dir domain.Direction) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Entry
	for _, cand := range s.entries {
		if !cand.IsLive() || cand.ID == e.ID {
			continue
		}
		switch dir {
		case domain.Next:
			if before(e, cand) && (best == nil || before(cand, best)) {
				best = cand
			}
		case domain.Previous:
			if before(cand, e) && (best == nil || before(best, cand)) {
				best = cand
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneEntry(best), nil
}

// uniqueSorted убирает повторы рубрик; порядок тот же, что отдает gorm хранилище.
func uniqueSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func before(a, b *domain.Entry) bool {
	if !a.PubDate.Equal(b.PubDate) {
		return a.PubDate.Before(b.PubDate)
	}
	return a.ID < b.ID
}

// === Link Methods ===

func (s *Store) CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := s.checkLink(l); err != nil {
		return nil, err
	}
	l.PubDay = l.Day()
	l.UpdatedAt = time.Now().UTC()
	s.links[l.ID] = cloneLink(l)
	return l, nil
}

func (s *Store) UpdateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[l.ID]; !ok {
		return nil, storage.ErrNotFound
	}
	if err := s.checkLink(l); err != nil {
		return nil, err
	}
	l.PubDay = l.Day()
	l.UpdatedAt = time.Now().UTC()
	s.links[l.ID] = cloneLink(l)
	return l, nil
}

func (s *Store) checkLink(l *domain.Link) error {
	day := l.Day()
	for _, other := range s.links {
		if other.ID == l.ID {
			continue
		}
		if other.URL == l.URL {
			return storage.ErrDuplicateURL
		}
		if other.Slug == l.Slug && other.PubDay == day {
			return storage.ErrDuplicateSlug
		}
	}
	return nil
}

func (s *Store) DeleteLink(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.links, id)
	return nil
}

func (s *Store) GetLinkByID(ctx context.Context, id string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneLink(l), nil
}

func (s *Store) GetLinkByDate(ctx context.Context, day time.Time, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := domain.DayKey(day)
	for _, l := range s.links {
		if l.Slug == slug && l.PubDay == key {
			return cloneLink(l), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListLinks(ctx context.Context, f storage.LinkFilter) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Link
	for _, l := range s.links {
		if inRange(l.PubDate, f.Year, f.Month, f.Day) {
			out = append(out, cloneLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].PubDate.After(out[j].PubDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.targetExists(c.TargetType, c.TargetID) {
		return nil, storage.ErrNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.comments[c.ID] = cloneComment(c)
	key := targetKey(c.TargetType, c.TargetID)
	s.byTarget[key] = append(s.byTarget[key], c.ID)
	return c, nil
}

func (s *Store) targetExists(t domain.TargetType, id string) bool {
	switch t {
	case domain.TargetEntry:
		_, ok := s.entries[id]
		return ok
	case domain.TargetLink:
		_, ok := s.links[id]
		return ok
	}
	return false
}

func (s *Store) GetCommentsByTarget(ctx context.Context, targetType domain.TargetType, targetID string, publicOnly bool) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTarget[targetKey(targetType, targetID)]
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		c, ok := s.comments[id]
		if !ok || (publicOnly && !c.IsPublic) {
			continue
		}
		out = append(out, cloneComment(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// === Dataloader Methods ===

func (s *Store) CountComments(ctx context.Context, targetType domain.TargetType, targetIDs []string, publicOnly bool) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(targetIDs))
	for _, id := range targetIDs {
		n := 0
		for _, cid := range s.byTarget[targetKey(targetType, id)] {
			if c, ok := s.comments[cid]; ok && (!publicOnly || c.IsPublic) {
				n++
			}
		}
		counts[id] = n
	}
	return counts, nil
}
