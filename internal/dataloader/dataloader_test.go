package dataloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/UkralStul/blog-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore считает, сколько батчей дошло до хранилища.
type countingStore struct {
	storage.Storage
	batches int32
}

func (c *countingStore) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	atomic.AddInt32(&c.batches, 1)
	return c.Storage.GetUsersByIDs(ctx, ids)
}

func TestAttachAuthors_SingleBatch(t *testing.T) {
	mem := inmemory.New()
	ctx := context.Background()
	alice, err := mem.CreateUser(ctx, &domain.User{Email: "alice@example.com", Password: "h", Name: "Alice"})
	require.NoError(t, err)
	bob, err := mem.CreateUser(ctx, &domain.User{Email: "bob@example.com", Password: "h", Name: "Bob"})
	require.NoError(t, err)

	store := &countingStore{Storage: mem}
	comments := []*domain.Comment{
		{ID: 1, AuthorID: alice.ID},
		{ID: 2, AuthorID: bob.ID},
		{ID: 3, AuthorID: alice.ID},
	}

	var handlerErr error
	h := Middleware(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerErr = AttachAuthors(r.Context(), comments)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, handlerErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.batches))
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "Alice", comments[0].Author.Name)
	assert.Equal(t, "Bob", comments[1].Author.Name)
	assert.Equal(t, "Alice", comments[2].Author.Name)
}

func TestAttachAuthors_MissingAuthor(t *testing.T) {
	mem := inmemory.New()
	ctx := context.Background()
	alice, err := mem.CreateUser(ctx, &domain.User{Email: "alice@example.com", Password: "h", Name: "Alice"})
	require.NoError(t, err)

	comments := []*domain.Comment{{ID: 1, AuthorID: alice.ID}, {ID: 2, AuthorID: 77}}
	ctx = context.WithValue(ctx, key, NewLoaders(mem))

	require.NoError(t, AttachAuthors(ctx, comments))
	assert.Equal(t, "Alice", comments[0].Author.Name)
	assert.Nil(t, comments[1].Author)
}
