package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/weblog-service/internal/domain"
	"github.com/UkralStul/weblog-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	PublicCommentCount *dataloader.Loader
	CommentCount       *dataloader.Loader
}

// NewLoaders создает лоадеры количества комментариев поверх хранилища.
// Ключ лоадера имеет вид "<тип>:<id>".
func NewLoaders(store storage.Storage) *Loaders {
	return &Loaders{
		PublicCommentCount: dataloader.NewBatchedLoader(countBatch(store, true), dataloader.WithWait(time.Millisecond*1)),
		CommentCount:       dataloader.NewBatchedLoader(countBatch(store, false), dataloader.WithWait(time.Millisecond*1)),
	}
}

func countKey(targetType domain.TargetType, id string) dataloader.Key {
	return dataloader.StringKey(string(targetType) + ":" + id)
}

func countBatch(store storage.Storage, publicOnly bool) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// Группируем ключи по типу объекта: хранилище считает по одному типу за раз
		byType := make(map[domain.TargetType][]string)
		parsed := make([][2]string, len(keys))
		for i, k := range keys {
			t, id, _ := strings.Cut(k.String(), ":")
			parsed[i] = [2]string{t, id}
			byType[domain.TargetType(t)] = append(byType[domain.TargetType(t)], id)
		}

		counts := make(map[domain.TargetType]map[string]int, len(byType))
		for t, ids := range byType {
			m, err := store.CountComments(ctx, t, ids, publicOnly)
			if err != nil {
				// В случае ошибки, возвращаем ее для всех ключей
				results := make([]*dataloader.Result, len(keys))
				for i := range results {
					results[i] = &dataloader.Result{Error: err}
				}
				return results
			}
			counts[t] = m
		}

		// Формируем результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, p := range parsed {
			results[i] = &dataloader.Result{Data: counts[domain.TargetType(p[0])][p[1]]}
		}
		return results
	}
}

// CountComments возвращает количество комментариев объекта, объединяя
// параллельные запросы в один батч.
func (l *Loaders) CountComments(ctx context.Context, targetType domain.TargetType, id string, publicOnly bool) (int, error) {
	loader := l.CommentCount
	if publicOnly {
		loader = l.PublicCommentCount
	}
	v, err := loader.Load(ctx, countKey(targetType, id))()
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("unexpected comment count type %T", v)
	}
	return n, nil
}

// CountCommentsMany считает комментарии сразу для нескольких объектов одного типа.
func (l *Loaders) CountCommentsMany(ctx context.Context, targetType domain.TargetType, ids []string, publicOnly bool) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}
	loader := l.CommentCount
	if publicOnly {
		loader = l.PublicCommentCount
	}
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = countKey(targetType, id)
	}
	values, errs := loader.LoadMany(ctx, keys)()
	counts := make(map[string]int, len(ids))
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		n, _ := values[i].(int)
		counts[id] = n
	}
	return counts, nil
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Возвращает nil, если Middleware не подключен.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}
