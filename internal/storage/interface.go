package storage

import (
	"context"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
)

// Storage - контракт, который реализуют оба хранилища.
//
// Поиск отсутствующей записи возвращает ошибку, оборачивающую domain.ErrNotFound.
type Storage interface {
	// CreateUser сохраняет новый аккаунт. Самый первый аккаунт получает
	// domain.RoleAdmin, все следующие domain.RoleReader.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetUsersByIDs загружает пользователей одним запросом. Отсутствующих ID нет в map.
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error)

	CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	GetPosts(ctx context.Context) ([]*domain.Post, error)
	GetPostByID(ctx context.Context, id uint) (*domain.Post, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	UpdatePost(ctx context.Context, id uint, patch domain.PostPatch) (*domain.Post, error)
	// DeletePost удаляет пост вместе с его комментариями.
	DeletePost(ctx context.Context, id uint) error

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID uint) ([]*domain.Comment, error)
}
