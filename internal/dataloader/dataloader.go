package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders хранит даталоадеры запроса.
type Loaders struct {
	UsersByID *dataloader.Loader
}

// NewLoaders создает новые даталоадеры поверх store.
func NewLoaders(store storage.Storage) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uint, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseUint(k.String(), 10, 64)
			if err != nil {
				return errorResults(len(keys), fmt.Errorf("bad user key %q: %w", k.String(), err))
			}
			ids[i] = uint(id)
		}

		// Один запрос на весь батч
		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return errorResults(len(keys), err)
		}

		// Результаты должны идти в порядке ключей
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if u, ok := users[id]; ok {
				results[i] = &dataloader.Result{Data: u}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("user %d: %w", id, domain.ErrNotFound)}
			}
		}
		return results
	}

	return &Loaders{
		UsersByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

func errorResults(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

// Middleware кладет новые даталоадеры в контекст каждого запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), key, NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For достает даталоадеры из контекста.
func For(ctx context.Context) *Loaders {
	return ctx.Value(key).(*Loaders)
}

// UserKey - ключ даталоадера для ID пользователя.
func UserKey(id uint) dataloader.Key {
	return dataloader.StringKey(strconv.FormatUint(uint64(id), 10))
}

// AttachAuthors заполняет Comment.Author у всех комментариев одним батчем.
// Если автора загрузить не удалось, комментарий остается без него.
func AttachAuthors(ctx context.Context, comments []*domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	seen := make(map[uint]bool, len(comments))
	var keys dataloader.Keys
	for _, c := range comments {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			keys = append(keys, UserKey(c.AuthorID))
		}
	}

	values, errs := For(ctx).UsersByID.LoadMany(ctx, keys)()
	byID := make(map[uint]*domain.User, len(values))
	for i, v := range values {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if u, ok := v.(*domain.User); ok {
			byID[u.ID] = u
		}
	}
	if len(byID) == 0 && len(errs) > 0 {
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}

	for _, c := range comments {
		c.Author = byID[c.AuthorID]
	}
	return nil
}
