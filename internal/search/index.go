// Package search - полнотекстовый поиск по записям и ссылкам для админки.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
)

// Kind - тип проиндексированного объекта.
type Kind string

const (
	KindEntry Kind = "entry"
	KindLink  Kind = "link"
)

const (
	defaultLimit    = 20
	rebuildPageSize = 500
)

// Index - индекс Bleve по записям и ссылкам.
type Index struct {
	index bleve.Index
}

// document - то, что попадает в индекс.
type document struct {
	Kind        string
	Title       string
	Excerpt     string
	Body        string
	Description string
}

// Open открывает индекс на диске или создает новый, если его там нет.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

// NewMemOnly создает индекс в памяти.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	kind := bleve.NewKeywordFieldMapping()
	kind.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Kind", kind)
	docMapping.AddFieldMappingsAt("Title", text)
	docMapping.AddFieldMappingsAt("Excerpt", text)
	docMapping.AddFieldMappingsAt("Body", text)
	docMapping.AddFieldMappingsAt("Description", text)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Close закрывает индекс.
func (i *Index) Close() error {
	return i.index.Close()
}

func docID(kind Kind, id string) string { return string(kind) + ":" + id }

func entryDocument(e *domain.Entry) document {
	return document{
		Kind:    string(KindEntry),
		Title:   e.Title,
		Excerpt: e.Excerpt,
		Body:    e.Body,
	}
}

func linkDocument(l *domain.Link) document {
	return document{
		Kind:        string(KindLink),
		Title:       l.Title,
		Description: l.Description,
	}
}

// IndexEntry добавляет или обновляет запись в индексе.
func (i *Index) IndexEntry(e *domain.Entry) error {
	return i.index.Index(docID(KindEntry, e.ID), entryDocument(e))
}

// IndexLink добавляет или обновляет ссылку в индексе.
func (i *Index) IndexLink(l *domain.Link) error {
	return i.index.Index(docID(KindLink, l.ID), linkDocument(l))
}

// Delete убирает объект из индекса.
func (i *Index) Delete(kind Kind, id string) error {
	return i.index.Delete(docID(kind, id))
}

// Search ищет объекты вида kind и возвращает их ID в порядке релевантности.
func (i *Index) Search(kind Kind, q string, limit int) ([]string, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	kindQuery := bleve.NewTermQuery(string(kind))
	kindQuery.SetField("Kind")
	qry := bleve.NewConjunctionQuery(bleve.NewMatchQuery(q), kindQuery)

	results, err := i.index.Search(bleve.NewSearchRequestOptions(qry, limit, 0, false))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, strings.TrimPrefix(hit.ID, string(kind)+":"))
	}
	return ids, nil
}

// Source - хранилище, по которому индекс перестраивается целиком.
type Source interface {
	ListEntries(ctx context.Context, f storage.EntryFilter) ([]*domain.Entry, error)
	ListLinks(ctx context.Context, f storage.LinkFilter) ([]*domain.Link, error)
}

// Rebuild приводит индекс в соответствие с хранилищем: все записи и ссылки
// индексируются одним батчем, документы удаленных объектов убираются.
// Возвращает число проиндексированных объектов.
func (i *Index) Rebuild(ctx context.Context, src Source) (int, error) {
	batch := i.index.NewBatch()
	seen := make(map[string]struct{})

	for offset := 0; ; offset += rebuildPageSize {
		entries, err := src.ListEntries(ctx, storage.EntryFilter{Limit: rebuildPageSize, Offset: offset})
		if err != nil {
			return 0, fmt.Errorf("list entries: %w", err)
		}
		for _, e := range entries {
			id := docID(KindEntry, e.ID)
			if err := batch.Index(id, entryDocument(e)); err != nil {
				return 0, fmt.Errorf("batch index %s: %w", id, err)
			}
			seen[id] = struct{}{}
		}
		if len(entries) < rebuildPageSize {
			break
		}
	}

	for offset := 0; ; offset += rebuildPageSize {
		links, err := src.ListLinks(ctx, storage.LinkFilter{Limit: rebuildPageSize, Offset: offset})
		if err != nil {
			return 0, fmt.Errorf("list links: %w", err)
		}
		for _, l := range links {
			id := docID(KindLink, l.ID)
			if err := batch.Index(id, linkDocument(l)); err != nil {
				return 0, fmt.Errorf("batch index %s: %w", id, err)
			}
			seen[id] = struct{}{}
		}
		if len(links) < rebuildPageSize {
			break
		}
	}

	stale, err := i.staleIDs(seen)
	if err != nil {
		return 0, err
	}
	for _, id := range stale {
		batch.Delete(id)
	}

	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(seen), nil
}

// staleIDs возвращает ID документов индекса, которых нет в seen.
func (i *Index) staleIDs(seen map[string]struct{}) ([]string, error) {
	n, err := i.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var stale []string
	for _, hit := range results.Hits {
		if _, ok := seen[hit.ID]; !ok {
			stale = append(stale, hit.ID)
		}
	}
	return stale, nil
}
