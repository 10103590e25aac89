package auth

import (
	"context"

	"github.com/UkralStul/blog-service/internal/domain"
)

// ClaimSessionID - claim токена с ID сессии.
const ClaimSessionID = "sid"

type contextKey string

const identityKey = contextKey("identity")

// Identity - аутентифицированный автор одного запроса.
type Identity struct {
	User      *domain.User
	SessionID string
}

// WithIdentity кладет автора запроса в ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom достает автора запроса, положенного WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.User == nil {
		return Identity{}, false
	}
	return id, true
}
