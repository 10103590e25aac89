// Package auth регистрирует аккаунты, проверяет пароли и ведет сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL используется, если Config.SessionTTL равен нулю.
const DefaultSessionTTL = 24 * time.Hour

// Config - настройки сервиса аутентификации.
type Config struct {
	// SignKey подписывает токены сессий (HS256).
	SignKey    []byte
	SessionTTL time.Duration
	// По умолчанию bcrypt.DefaultCost.
	BcryptCost int
}

// Service отвечает за регистрацию, вход и поиск сессий.
type Service struct {
	store   storage.Storage
	signKey []byte
	ttl     time.Duration
	cost    int
	now     func() time.Time
}

// NewService создает сервис аутентификации.
func NewService(store storage.Storage, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:   store,
		signKey: cfg.SignKey,
		ttl:     cfg.SessionTTL,
		cost:    cfg.BcryptCost,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится и ищется.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает аккаунт и сразу открывает для него сессию.
func (s *Service) Register(ctx context.Context, email, password, name string) (*domain.User, *domain.Session, error) {
	email = NormalizeEmail(email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Email:    email,
		Password: string(hash),
		Name:     strings.TrimSpace(name),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login проверяет email и пароль и открывает новую сессию.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrUnknownEmail
	}
	if err != nil {
		return nil, nil, fmt.Errorf("look up email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, domain.ErrWrongPassword
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *Service) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	session, err := s.store.CreateSession(ctx, &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Logout завершает сессию. Неизвестные ID игнорируются.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve возвращает владельца живой сессии. Просроченные сессии
// удаляются сразу.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Expired(s.now()) {
		s.dropSession(ctx, sessionID)
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		s.dropSession(ctx, sessionID)
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}

func (s *Service) dropSession(ctx context.Context, sessionID string) {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Printf("failed to delete session %s: %v", sessionID, err)
	}
}

// PurgeExpiredSessions удаляет все просроченные сессии.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

// IssueToken подписывает значение cookie для сессии.
func (s *Service) IssueToken(session *domain.Session) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimSessionID: session.ID,
		"sub":          fmt.Sprint(session.UserID),
		"exp":          session.ExpiresAt.Unix(),
	})
	signed, err := t.SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// CurrentIdentity возвращает пользователя текущего запроса, если он есть.
func (s *Service) CurrentIdentity(ctx context.Context) (*domain.User, bool) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil, false
	}
	return id.User, true
}

// AuthorizeAdmin сообщает, может ли user управлять постами.
func (s *Service) AuthorizeAdmin(user *domain.User) bool {
	return user.IsAdmin()
}
