package gormstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore открывает новый файл SQLite с админом и одним постом
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Post) {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "blog.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	admin, err := store.CreateUser(ctx, &domain.User{Email: "admin@example.com", Password: "hash", Name: "Admin"})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{
		Title:    "Test Post",
		Subtitle: "Subtitle",
		Date:     "May 01, 2024",
		Body:     "Content",
		ImgURL:   "https://example.com/a.png",
		AuthorID: admin.ID,
	})
	require.NoError(t, err)
	return store, admin, post
}

func TestStore_CreateUser(t *testing.T) {
	store, admin, _ := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, domain.RoleAdmin, admin.Role)

	reader, err := store.CreateUser(ctx, &domain.User{Email: "reader@example.com", Password: "hash", Name: "Reader"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReader, reader.Role)

	_, err = store.CreateUser(ctx, &domain.User{Email: "reader@example.com", Password: "hash", Name: "Twice"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	byEmail, err := store.GetUserByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, reader.ID, byEmail.ID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := store.GetUsersByIDs(ctx, []uint{admin.ID, reader.ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestStore_CreateUser_ConcurrentFirstAccounts(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "blog.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateUser(ctx, &domain.User{
				Email:    fmt.Sprintf("user%d@example.com", i),
				Password: "hash",
				Name:     "User",
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var admins int64
	require.NoError(t, store.db.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&admins).Error)
	assert.EqualValues(t, 1, admins)
}

func TestStore_SingleAdminIndex(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	// Вставка в обход CreateUser: второй админ должен упереться в индекс.
	err := store.db.WithContext(ctx).Create(&domain.User{
		Email: "rival@example.com", Password: "hash", Name: "Rival", Role: domain.RoleAdmin,
	}).Error
	require.Error(t, err)

	var admins int64
	require.NoError(t, store.db.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&admins).Error)
	assert.EqualValues(t, 1, admins)

	reader, err := store.CreateUser(ctx, &domain.User{Email: "rival@example.com", Password: "hash", Name: "Rival"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReader, reader.Role)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "blog.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("blog.db"))
	assert.Equal(t, "file:blog.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:blog.db?cache=shared"))
}

func TestOpenSQLite_PathWithQuery(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "blog.db") + "?cache=private"
	store, err := OpenSQLite(path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.CreateUser(context.Background(), &domain.User{Email: "a@example.com", Password: "hash", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestStore_Posts(t *testing.T) {
	store, admin, post := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Post", got.Title)
	require.NotNil(t, got.Author)
	assert.Equal(t, admin.Email, got.Author.Email)

	_, err = store.CreatePost(ctx, &domain.Post{Title: "Test Post", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: admin.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateTitle)

	second, err := store.CreatePost(ctx, &domain.Post{Title: "Second", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: admin.ID})
	require.NoError(t, err)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, post.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)
	assert.NotNil(t, posts[1].Author)
}

func TestStore_UpdatePost(t *testing.T) {
	store, admin, post := newTestStore(t)
	ctx := context.Background()

	title, img := "Renamed", "https://example.com/b.png"
	updated, err := store.UpdatePost(ctx, post.ID, domain.PostPatch{Title: &title, ImgURL: &img})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, img, updated.ImgURL)
	assert.Equal(t, "Content", updated.Body)
	assert.Equal(t, "May 01, 2024", updated.Date)
	assert.Equal(t, admin.ID, updated.AuthorID)

	_, err = store.UpdatePost(ctx, 999, domain.PostPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other, err := store.CreatePost(ctx, &domain.Post{Title: "Other", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: admin.ID})
	require.NoError(t, err)
	_, err = store.UpdatePost(ctx, other.ID, domain.PostPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrDuplicateTitle)
}

func TestStore_DeletePost_CascadesComments(t *testing.T) {
	store, admin, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: admin.ID, Text: "hello"})
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, post.ID))

	_, err = store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	comments, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, store.DeletePost(ctx, post.ID), domain.ErrNotFound)
}

func TestStore_Comments(t *testing.T) {
	store, admin, post := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: admin.ID, Text: "first"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: admin.ID, Text: "second"})
	require.NoError(t, err)

	comments, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: 999, AuthorID: admin.ID, Text: "orphan"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Sessions(t *testing.T) {
	store, admin, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.CreateSession(ctx, &domain.Session{ID: "11111111-1111-1111-1111-111111111111", UserID: admin.ID, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, &domain.Session{ID: "22222222-2222-2222-2222-222222222222", UserID: admin.ID, ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	n, err := store.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetSession(ctx, "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.UserID)

	require.NoError(t, store.DeleteSession(ctx, got.ID))
	_, err = store.GetSession(ctx, got.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
