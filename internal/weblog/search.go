package weblog

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/search"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// ErrSearchDisabled - индекс не подключен.
var ErrSearchDisabled = errors.New("search is disabled")

// SearchResult - найденные записи и ссылки в порядке релевантности.
type SearchResult struct {
	Entries []*domain.Entry `json:"entries"`
	Links   []*domain.Link  `json:"links"`
}

// Search ищет записи и/или ссылки. Пустой kind означает оба вида.
// Объекты, которых уже нет в хранилище, пропускаются.
func (s *Service) Search(ctx context.Context, kind search.Kind, q string, limit int) (*SearchResult, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	res := &SearchResult{Entries: []*domain.Entry{}, Links: []*domain.Link{}}

	if kind == "" || kind == search.KindEntry {
		ids, err := s.index.Search(search.KindEntry, q, limit)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			e, err := s.store.GetEntryByID(ctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load entry %s: %w", id, err)
			}
			res.Entries = append(res.Entries, e)
		}
	}
	if kind == "" || kind == search.KindLink {
		ids, err := s.index.Search(search.KindLink, q, limit)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			l, err := s.store.GetLinkByID(ctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load link %s: %w", id, err)
			}
			res.Links = append(res.Links, l)
		}
	}
	return res, nil
}
