// Package content управляет постами и комментариями.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
)

// DateLayout - формат, в котором хранится и показывается дата поста.
const DateLayout = "January 02, 2006"

// Service реализует операции над постами и комментариями.
type Service struct {
	store    storage.Storage
	observer *Observer
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет часы, которыми датируются новые посты.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает сервис контента. observer может быть nil.
func NewService(store storage.Storage, observer *Observer, opts ...Option) *Service {
	if observer == nil {
		observer = NewObserver()
	}
	s := &Service{
		store:    store,
		observer: observer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observer возвращает live-ленту комментариев.
func (s *Service) Observer() *Observer {
	return s.observer
}

func (s *Service) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	return s.store.GetPosts(ctx)
}

func (s *Service) GetPost(ctx context.Context, id uint) (*domain.Post, error) {
	return s.store.GetPostByID(ctx, id)
}

// Comments возвращает комментарии поста, старые первыми. Авторы не загружаются.
func (s *Service) Comments(ctx context.Context, postID uint) ([]*domain.Comment, error) {
	return s.store.GetCommentsByPostID(ctx, postID)
}

// CreatePost публикует новый пост с сегодняшней датой от имени author.
func (s *Service) CreatePost(ctx context.Context, fields domain.PostFields, author *domain.User) (*domain.Post, error) {
	if !author.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	post, err := s.store.CreatePost(ctx, &domain.Post{
		Title:    fields.Title,
		Subtitle: fields.Subtitle,
		Body:     fields.Body,
		ImgURL:   fields.ImgURL,
		Date:     s.now().Format(DateLayout),
		AuthorID: author.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdatePost перезаписывает заголовок, подзаголовок, текст и картинку, заданные в patch.
func (s *Service) UpdatePost(ctx context.Context, id uint, patch domain.PostPatch, editor *domain.User) (*domain.Post, error) {
	if !editor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	post, err := s.store.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return post, nil
}

// DeletePost удаляет пост вместе с комментариями.
func (s *Service) DeletePost(ctx context.Context, id uint, editor *domain.User) error {
	if !editor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// AddComment сохраняет комментарий author к посту и уведомляет live-читателей.
func (s *Service) AddComment(ctx context.Context, postID uint, text string, author *domain.User) (*domain.Comment, error) {
	if author == nil {
		return nil, domain.ErrUnauthenticated
	}
	comment, err := s.store.CreateComment(ctx, &domain.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Text:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment to post %d: %w", postID, err)
	}
	comment.Author = author
	s.observer.Publish(comment)
	return comment, nil
}
