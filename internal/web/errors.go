package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/UkralStul/blog-service/internal/domain"
)

// StatusError несет HTTP-статус, с которым нужно ответить на ошибку.
type StatusError struct {
	Err    error
	Status int
}

func (e StatusError) Error() string {
	return e.Err.Error()
}

func (e StatusError) Unwrap() error {
	return e.Err
}

func (e StatusError) HTTPStatus() int {
	return e.Status
}

func NewStatusError(err error, status int) StatusError {
	return StatusError{
		Err:    err,
		Status: status,
	}
}

// statusOf сопоставляет ошибке статус ответа.
func statusOf(err error) int {
	var se StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail сообщает err клиенту. Серверные ошибки логируются.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	s.renderError(w, r, status)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound)
}

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusForbidden)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusMethodNotAllowed)
}
