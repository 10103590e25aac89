package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием GORM.
type Store struct {
	db *gorm.DB
}

// Options настраивают открытие соединения.
type Options struct {
	// Verbose логирует каждый запрос.
	Verbose bool
}

// OpenSQLite открывает (при необходимости создает) файл SQLite по пути path.
func OpenSQLite(path string, opts Options) (*Store, error) {
	s, err := open(sqlite.Open(sqliteDSN(path)), opts)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite пишет по одному, с одним соединением транзакции не дерутся за блокировку
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// OpenPostgres подключается к PostgreSQL по dsn.
func OpenPostgres(dsn string, opts Options) (*Store, error) {
	return open(postgres.Open(dsn), opts)
}

func open(dialector gorm.Dialector, opts Options) (*Store, error) {
	level := logger.Warn
	if opts.Verbose {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.Comment{}, &domain.Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := db.Exec(singleAdminIndex).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

// === User Methods ===

// singleAdminIndex допускает не больше одного админа при любом уровне изоляции.
const singleAdminIndex = `CREATE UNIQUE INDEX IF NOT EXISTS users_single_admin ON users (role) WHERE role = 'admin'`

// errAdminTaken: параллельная регистрация стала админом между подсчетом и вставкой.
var errAdminTaken = errors.New("admin already exists")

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := s.insertUser(ctx, user, false)
	if errors.Is(err, errAdminTaken) {
		// Админ уже появился, повторяем вставку как читатель
		user.ID = 0
		err = s.insertUser(ctx, user, true)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) insertUser(ctx context.Context, user *domain.User, asReader bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&domain.User{}).Where("email = ?", user.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domain.ErrDuplicateEmail
		}

		user.Role = domain.RoleReader
		if !asReader {
			var total int64
			if err := tx.Model(&domain.User{}).Count(&total).Error; err != nil {
				return err
			}
			if total == 0 {
				user.Role = domain.RoleAdmin
			}
		}

		if err := tx.Omit("Posts", "Comments").Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if user.Role == domain.RoleAdmin {
					return errAdminTaken
				}
				return domain.ErrDuplicateEmail
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %q", email))
	}
	return &user, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]*domain.User, error) {
	result := make(map[uint]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// === Session Methods ===

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := s.db.WithContext(ctx).Omit("User").Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}

// === Post Methods ===

// titleFree возвращает domain.ErrDuplicateTitle, если title занят другим постом.
func titleFree(tx *gorm.DB, title string, except uint) error {
	var taken int64
	if err := tx.Model(&domain.Post{}).Where("title = ? AND id <> ?", title, except).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return domain.ErrDuplicateTitle
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author domain.User
		if err := tx.First(&author, post.AuthorID).Error; err != nil {
			return notFound(err, fmt.Sprintf("author %d", post.AuthorID))
		}
		if err := titleFree(tx, post.Title, 0); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Comments").Create(post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateTitle
			}
			return err
		}
		post.Author = &author
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", id))
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Preload("Author").Order("id ASC").Find(&posts).Error
	return posts, err
}

func (s *Store) UpdatePost(ctx context.Context, id uint, patch domain.PostPatch) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, fmt.Sprintf("post %d", id))
		}
		if patch.Title != nil {
			if err := titleFree(tx, *patch.Title, id); err != nil {
				return err
			}
		}
		patch.Apply(&post)
		err := tx.Model(&post).
			Select("Title", "Subtitle", "Body", "ImgURL").
			Updates(&post).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateTitle
		}
		if err != nil {
			return err
		}
		return tx.Preload("Author").First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Проверяем существование поста в той же транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("post %d: %w", comment.PostID, domain.ErrNotFound)
		}
		return tx.Omit("Author", "Post").Create(comment).Error
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID uint) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}
