package web

import (
	"bytes"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Templates возвращает шаблоны, вшитые в бинарник.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer выполняет шаблоны страниц внутри общего layout.
type Renderer struct {
	fsys   fs.FS
	reload bool

	mu    sync.Mutex
	pages map[string]*template.Template
}

// NewRenderer загружает шаблоны из fsys. С reload каждый рендер заново
// парсит файлы, и правки видны без перезапуска.
func NewRenderer(fsys fs.FS, reload bool) (*Renderer, error) {
	rd := &Renderer{fsys: fsys, reload: reload, pages: map[string]*template.Template{}}
	if !reload {
		names, err := fs.Glob(fsys, "*.html")
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if name == "layout.html" {
				continue
			}
			if _, err := rd.page(name); err != nil {
				return nil, err
			}
		}
	}
	return rd, nil
}

var templateFuncs = template.FuncMap{
	"gravatar": gravatarURL,
}

// gravatarURL строит адрес аватара по email.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=100&d=retro&r=g"
}

func (rd *Renderer) page(name string) (*template.Template, error) {
	rd.mu.Lock()
	defer rd.mu.Unlock()

	if t, ok := rd.pages[name]; ok && !rd.reload {
		return t, nil
	}
	t, err := template.New(name).Funcs(templateFuncs).ParseFS(rd.fsys, "layout.html", name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	rd.pages[name] = t
	return t, nil
}

// Render пишет страницу со статусом. Вывод буферизуется, чтобы ошибка
// шаблона не оставила недописанную страницу.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, err := rd.page(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// viewData получает каждый шаблон страницы.
type viewData struct {
	CurrentUser *domain.User
	LoggedIn    bool
	IsAdmin     bool
	Flash       *Notice
	Year        int

	Posts    []*domain.Post
	Post     *domain.Post
	Body     template.HTML
	Comments []*domain.Comment
	Form     *Form
	Heading  string
	Action   string

	Status     int
	StatusText string
}

// render заполняет поля data из запроса и пишет страницу.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data *viewData) {
	if data == nil {
		data = &viewData{}
	}
	if user, ok := s.auth.CurrentIdentity(r.Context()); ok {
		data.CurrentUser = user
		data.LoggedIn = true
		data.IsAdmin = s.auth.AuthorizeAdmin(user)
	}
	data.Flash = s.popFlash(w, r)
	data.Year = time.Now().Year()

	if err := s.views.Render(w, status, page, data); err != nil {
		log.Printf("render %s: %v", page, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, "error.html", &viewData{
		Status:     status,
		StatusText: http.StatusText(status),
	})
}
