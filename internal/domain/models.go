package domain

import "time"

// Role определяет, что может делать аккаунт.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// User - зарегистрированный аккаунт.
type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"size:100;uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"size:100;not null"`
	Name      string     `json:"name" gorm:"size:1000;not null"`
	Role      Role       `json:"role" gorm:"size:16;not null"`
	CreatedAt time.Time  `json:"createdAt"`
	Posts     []*Post    `json:"-" gorm:"foreignKey:AuthorID"` // только для GORM
	Comments  []*Comment `json:"-" gorm:"foreignKey:AuthorID"` // только для GORM
}

func (User) TableName() string { return "users" }

// IsAdmin сообщает, может ли пользователь управлять постами.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Post - пост блога. Date хранится уже отформатированной, как показывается.
type Post struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	Title    string     `json:"title" gorm:"size:250;uniqueIndex;not null"`
	Subtitle string     `json:"subtitle" gorm:"size:250;not null"`
	Date     string     `json:"date" gorm:"size:250;not null"`
	Body     string     `json:"body" gorm:"type:text;not null"`
	ImgURL   string     `json:"imgUrl" gorm:"size:250;not null"`
	AuthorID uint       `json:"authorId" gorm:"not null;index"`
	Author   *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Comments []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // только для GORM
}

func (Post) TableName() string { return "blog_posts" }

// Comment - комментарий читателя к посту.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	AuthorID  uint      `json:"authorId" gorm:"not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	PostID    uint      `json:"postId" gorm:"not null;index"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

// Session привязывает браузер к пользователю до ExpiresAt.
type Session struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    uint      `json:"userId" gorm:"not null;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string { return "sessions" }

// Expired сообщает, истекла ли сессия к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// PostFields - редактируемые поля поста.
type PostFields struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// PostPatch меняет только не-nil поля.
type PostPatch struct {
	Title    *string
	Subtitle *string
	Body     *string
	ImgURL   *string
}

// Apply переносит заданные поля в p.
func (pp PostPatch) Apply(p *Post) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Subtitle != nil {
		p.Subtitle = *pp.Subtitle
	}
	if pp.Body != nil {
		p.Body = *pp.Body
	}
	if pp.ImgURL != nil {
		p.ImgURL = *pp.ImgURL
	}
}
