package web

import (
	"errors"
	"net/http"

	"github.com/UkralStul/blog-service/internal/auth"
	"github.com/UkralStul/blog-service/internal/domain"
)

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", &viewData{Form: newForm(nil)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, NewStatusError(err, http.StatusBadRequest))
		return
	}
	form := newForm(r.PostForm)
	validateRegister(form)
	if !form.Valid() {
		s.render(w, r, http.StatusBadRequest, "register.html", &viewData{Form: form})
		return
	}

	_, session, err := s.auth.Register(r.Context(), form.Get("email"), form.Raw("password"), form.Get("name"))
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		s.redirectWithFlash(w, r, "/login", "error", "You already have an account, please login!")
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}

	if err := s.setSessionCookie(w, session); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", &viewData{Form: newForm(nil)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, NewStatusError(err, http.StatusBadRequest))
		return
	}
	form := newForm(r.PostForm)
	validateLogin(form)
	if !form.Valid() {
		s.render(w, r, http.StatusBadRequest, "login.html", &viewData{Form: form})
		return
	}

	_, session, err := s.auth.Login(r.Context(), form.Get("email"), form.Raw("password"))
	switch {
	case errors.Is(err, domain.ErrUnknownEmail):
		s.redirectWithFlash(w, r, "/login", "error", "That email does not exist, please try again.")
		return
	case errors.Is(err, domain.ErrWrongPassword):
		s.redirectWithFlash(w, r, "/login", "error", "Please check your password.")
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}

	if err := s.setSessionCookie(w, session); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		if err := s.auth.Logout(r.Context(), id.SessionID); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
