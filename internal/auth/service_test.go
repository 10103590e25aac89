package auth

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage/inmemory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testKey = []byte("test-sign-key")

func newTestService(t *testing.T) (*Service, *inmemory.Store) {
	t.Helper()
	store := inmemory.New()
	return NewService(store, Config{SignKey: testKey, SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}), store
}

func TestService_RegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, session, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw", user.Password)
	assert.Equal(t, user.ID, session.UserID)

	loggedIn, _, err := svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrWrongPassword)

	_, _, err = svc.Login(ctx, "b@x.com", "pw")
	assert.ErrorIs(t, err, domain.ErrUnknownEmail)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "a@x.com", "other", "Other")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// Регистр и пробелы не дают нового адреса
	_, _, err = svc.Register(ctx, "  A@X.com ", "other", "Other")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestService_FirstAccountIsAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	admin, _, err := svc.Register(ctx, "admin@x.com", "pw", "Admin")
	require.NoError(t, err)
	reader, _, err := svc.Register(ctx, "reader@x.com", "pw", "Reader")
	require.NoError(t, err)

	assert.True(t, svc.AuthorizeAdmin(admin))
	assert.False(t, svc.AuthorizeAdmin(reader))
	assert.False(t, svc.AuthorizeAdmin(nil))
}

func TestService_ResolveAndLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, session, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	require.NoError(t, svc.Logout(ctx, session.ID))
	_, err = svc.Resolve(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestService_Resolve_Expired(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, session, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	_, err = svc.Resolve(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = store.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// brokenSessions ломает каждое удаление сессии.
type brokenSessions struct {
	*inmemory.Store
}

func (brokenSessions) DeleteSession(context.Context, string) error {
	return errors.New("disk is gone")
}

func TestService_Resolve_LogsFailedDelete(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	store := brokenSessions{inmemory.New()}
	svc := NewService(store, Config{SignKey: testKey, SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	ctx := context.Background()

	_, session, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	_, err = svc.Resolve(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Contains(t, buf.String(), "failed to delete session "+session.ID)
	assert.Contains(t, buf.String(), "disk is gone")
}

func TestService_PurgeExpiredSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, session, err := svc.Register(ctx, "a@x.com", "pw", "A")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Minute) }
	n, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestService_IssueToken(t *testing.T) {
	svc, _ := newTestService(t)

	session := &domain.Session{ID: "sid-1", UserID: 4, ExpiresAt: time.Now().Add(time.Hour)}
	signed, err := svc.IssueToken(session)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return testKey, nil })
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "sid-1", claims[ClaimSessionID])
	assert.Equal(t, "4", claims["sub"])
}

func TestIdentityContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, ok := svc.CurrentIdentity(ctx)
	assert.False(t, ok)

	ctx = WithIdentity(ctx, Identity{User: &domain.User{ID: 9, Name: "N"}, SessionID: "s"})
	user, ok := svc.CurrentIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(9), user.ID)

	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "s", id.SessionID)
}
