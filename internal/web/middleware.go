package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/UkralStul/blog-service/internal/auth"
	"github.com/UkralStul/blog-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey int

const postKey ctxKey = iota

// sessionCookie - имя, которое ищет jwtauth.TokenFromCookie.
const sessionCookie = "jwt"

func (s *Server) setSessionCookie(w http.ResponseWriter, session *domain.Session) error {
	token, err := s.auth.IssueToken(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// loadIdentity превращает проверенный токен сессии в автора запроса.
// Запросы без рабочей сессии идут дальше анонимно.
func (s *Server) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if token == nil || err != nil {
			if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
				s.clearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		sid, _ := claims[auth.ClaimSessionID].(string)
		if sid == "" {
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.auth.Resolve(r.Context(), sid)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				log.Printf("resolve session: %v", err)
			}
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithIdentity(r.Context(), auth.Identity{User: user, SessionID: sid})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin отвечает 403 всем, кроме администратора.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Админские страницы не кэшируем
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

		user, _ := s.auth.CurrentIdentity(r.Context())
		if !s.auth.AuthorizeAdmin(user) {
			s.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parsePostID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// postCtx загружает пост из URL и отвечает 404, если его нет.
func (s *Server) postCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parsePostID(r)
		if !ok {
			s.notFound(w, r)
			return
		}
		post, err := s.content.GetPost(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), postKey, post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func postFrom(ctx context.Context) *domain.Post {
	post, _ := ctx.Value(postKey).(*domain.Post)
	return post
}
