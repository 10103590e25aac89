// Package web отдает HTML-страницы блога.
package web

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/UkralStul/blog-service/internal/auth"
	"github.com/UkralStul/blog-service/internal/content"
	"github.com/UkralStul/blog-service/internal/dataloader"
	"github.com/UkralStul/blog-service/internal/storage"

	"github.com/aarol/reload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/gorilla/websocket"
)

// Options настраивают HTTP-слой.
type Options struct {
	// SignKey проверяет токены сессий. Должен совпадать с ключом auth.
	SignKey []byte
	// SecureCookies делает cookie только для HTTPS.
	SecureCookies bool
	// По умолчанию вшитые шаблоны.
	Templates fs.FS
	// Dev перечитывает шаблоны на каждый запрос и перезагружает браузер,
	// когда меняются файлы в WatchDirs.
	Dev       bool
	WatchDirs []string
}

// Server хранит зависимости обработчиков.
type Server struct {
	store         storage.Storage
	auth          *auth.Service
	content       *content.Service
	tokens        *jwtauth.JWTAuth
	views         *Renderer
	secureCookies bool
	dev           bool
	watchDirs     []string
	upgrader      websocket.Upgrader
	pingInterval  time.Duration
}

// New создает веб-сервер.
func New(store storage.Storage, authSvc *auth.Service, contentSvc *content.Service, opts Options) (*Server, error) {
	templates := opts.Templates
	if templates == nil {
		templates = Templates()
	}
	views, err := NewRenderer(templates, opts.Dev)
	if err != nil {
		return nil, err
	}
	return &Server{
		store:         store,
		auth:          authSvc,
		content:       contentSvc,
		tokens:        jwtauth.New("HS256", opts.SignKey, nil),
		views:         views,
		secureCookies: opts.SecureCookies,
		dev:           opts.Dev,
		watchDirs:     opts.WatchDirs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: 10 * time.Second,
	}, nil
}

// Routes собирает роутер.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID) // уникальный ID в контекст каждого запроса
	r.Use(middleware.RealIP)    // RemoteAddr запроса из X-Real-IP
	r.Use(middleware.Logger)    // логируем начало и конец каждого запроса
	r.Use(middleware.Recoverer) // ловим панику, логируем, отдаем 500
	r.Use(jwtauth.Verifier(s.tokens))
	r.Use(s.loadIdentity)

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	// публичные маршруты
	r.Group(func(r chi.Router) {
		r.Get("/", s.home)
		r.Get("/about", s.about)
		r.Get("/contact", s.contact)
		r.Get("/register", s.registerPage)
		r.Post("/register", s.register)
		r.Get("/login", s.loginPage)
		r.Post("/login", s.login)
		r.Get("/logout", s.logout)

		r.Route("/post/{postID}", func(r chi.Router) {
			r.Use(s.postCtx)
			r.Get("/", s.showPost)
			r.Post("/", s.addComment)
			r.Get("/live", s.liveComments)
		})
	})

	// маршруты админа
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)

		r.Get("/new-post", s.newPostPage)
		r.Post("/new-post", s.createPost)
		r.With(s.postCtx).Get("/edit-post/{postID}", s.editPostPage)
		r.With(s.postCtx).Post("/edit-post/{postID}", s.editPost)
		r.Get("/delete/{postID}", s.deletePost)
	})

	var handler http.Handler = dataloader.Middleware(s.store, r)
	if s.dev && len(s.watchDirs) > 0 {
		reloader := reload.New(s.watchDirs...)
		handler = reloader.Handle(handler)
	}
	return handler
}
