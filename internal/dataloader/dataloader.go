package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
// Кэш лоадеров живёт столько же, сколько сам Loaders, поэтому их создают на запрос.
type Loaders struct {
	UserByID    *dataloader.Loader
	VideoByID   *dataloader.Loader
	CommentByID *dataloader.Loader
}

// NewLoaders создаёт лоадеры, которые собирают ID в один запрос к хранилищу.
func NewLoaders(store storage.Storage) *Loaders {
	users := batch(func(ctx context.Context, ids []string) (map[string]any, error) {
		found, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(found))
		for id, u := range found {
			out[id] = u.Summary()
		}
		return out, nil
	})
	videos := batch(func(ctx context.Context, ids []string) (map[string]any, error) {
		found, err := store.GetVideosByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(found))
		for id, v := range found {
			out[id] = v.Summary()
		}
		return out, nil
	})
	comments := batch(func(ctx context.Context, ids []string) (map[string]any, error) {
		found, err := store.GetCommentsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(found))
		for id, c := range found {
			out[id] = c.Summary()
		}
		return out, nil
	})

	return &Loaders{
		UserByID:    dataloader.NewBatchedLoader(users, dataloader.WithWait(time.Millisecond*1)),
		VideoByID:   dataloader.NewBatchedLoader(videos, dataloader.WithWait(time.Millisecond*1)),
		CommentByID: dataloader.NewBatchedLoader(comments, dataloader.WithWait(time.Millisecond*1)),
	}
}

// batch превращает выборку map[id]значение в BatchFunc. Отсутствующий ID даёт nil без ошибки.
func batch(fetch func(ctx context.Context, ids []string) (map[string]any, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		found, err := fetch(ctx, keys.Keys())
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Формируем результат в том же порядке, что и ключи
		for i, k := range keys {
			results[i] = &dataloader.Result{Data: found[k.String()]}
		}
		return results
	}
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

// For извлекает лоадеры из контекста; nil, если Middleware не подключён.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

func (l *Loaders) UserSummaries(ctx context.Context, ids []string) (map[string]*domain.UserSummary, error) {
	return loadMany[*domain.UserSummary](ctx, l.UserByID, ids)
}

func (l *Loaders) VideoSummaries(ctx context.Context, ids []string) (map[string]*domain.VideoSummary, error) {
	return loadMany[*domain.VideoSummary](ctx, l.VideoByID, ids)
}

func (l *Loaders) CommentSummaries(ctx context.Context, ids []string) (map[string]*domain.CommentSummary, error) {
	return loadMany[*domain.CommentSummary](ctx, l.CommentByID, ids)
}

func loadMany[T any](ctx context.Context, loader *dataloader.Loader, ids []string) (map[string]T, error) {
	result := make(map[string]T, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	data, errs := loader.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for i, d := range data {
		if v, ok := d.(T); ok {
			result[ids[i]] = v
		}
	}
	return result, nil
}
