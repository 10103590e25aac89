package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu             sync.RWMutex
	users          map[uint]*domain.User
	usersByEmail   map[string]uint
	sessions       map[string]*domain.Session
	posts          map[uint]*domain.Post
	comments       map[uint]*domain.Comment
	commentsByPost map[uint][]uint

	lastUserID    uint
	lastPostID    uint
	lastCommentID uint
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:          make(map[uint]*domain.User),
		usersByEmail:   make(map[string]uint),
		sessions:       make(map[string]*domain.Session),
		posts:          make(map[uint]*domain.Post),
		comments:       make(map[uint]*domain.Comment),
		commentsByPost: make(map[uint][]uint),
	}
}

// Записи копируются на входе и выходе, чтобы вызывающий код не делил память с хранилищем.

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Posts, c.Comments = nil, nil
	return &c
}

func (s *Store) copyPost(p *domain.Post) *domain.Post {
	c := *p
	c.Comments = nil
	if author, ok := s.users[p.AuthorID]; ok {
		c.Author = copyUser(author)
	}
	return &c
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByEmail[user.Email]; ok {
		return nil, domain.ErrDuplicateEmail
	}

	user.Role = domain.RoleReader
	if len(s.users) == 0 {
		user.Role = domain.RoleAdmin
	}
	s.lastUserID++
	user.ID = s.lastUserID
	user.CreatedAt = time.Now().UTC()

	s.users[user.ID] = copyUser(user)
	s.usersByEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return copyUser(user), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = copyUser(u)
		}
	}
	return result, nil
}

// === Session Methods ===

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return nil, fmt.Errorf("user %d: %w", session.UserID, domain.ErrNotFound)
	}
	session.CreatedAt = time.Now().UTC()
	c := *session
	s.sessions[session.ID] = &c
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	c := *session
	return &c, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// === Post Methods ===

func (s *Store) titleTaken(title string, except uint) bool {
	for id, p := range s.posts {
		if id != except && p.Title == title {
			return true
		}
	}
	return false
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return nil, fmt.Errorf("author %d: %w", post.AuthorID, domain.ErrNotFound)
	}
	if s.titleTaken(post.Title, 0) {
		return nil, domain.ErrDuplicateTitle
	}

	s.lastPostID++
	post.ID = s.lastPostID
	stored := *post
	stored.Author, stored.Comments = nil, nil
	s.posts[post.ID] = &stored
	return s.copyPost(&stored), nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	return s.copyPost(post), nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allPosts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		allPosts = append(allPosts, s.copyPost(p))
	}
	sort.Slice(allPosts, func(i, j int) bool {
		return allPosts[i].ID < allPosts[j].ID
	})
	return allPosts, nil
}

func (s *Store) UpdatePost(ctx context.Context, id uint, patch domain.PostPatch) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	if patch.Title != nil && s.titleTaken(*patch.Title, id) {
		return nil, domain.ErrDuplicateTitle
	}
	patch.Apply(post)
	return s.copyPost(post), nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	for _, cID := range s.commentsByPost[id] {
		delete(s.comments, cID)
	}
	delete(s.commentsByPost, id)
	delete(s.posts, id)
	return nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post %d: %w", comment.PostID, domain.ErrNotFound)
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return nil, fmt.Errorf("author %d: %w", comment.AuthorID, domain.ErrNotFound)
	}

	s.lastCommentID++
	comment.ID = s.lastCommentID
	comment.CreatedAt = time.Now().UTC()
	stored := *comment
	stored.Author, stored.Post = nil, nil
	s.comments[comment.ID] = &stored
	s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)

	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID uint) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	comments := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			cc := *c
			comments = append(comments, &cc)
		}
	}
	return comments, nil
}
