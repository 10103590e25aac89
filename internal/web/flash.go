package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "flash"

// Notice - одноразовое сообщение для следующей страницы.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) flash(w http.ResponseWriter, kind, message string) {
	payload, err := json.Marshal(Notice{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash читает и стирает отложенное сообщение.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *Notice {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var n Notice
	if err := json.Unmarshal(raw, &n); err != nil || n.Message == "" {
		return nil
	}
	return &n
}

// redirectWithFlash перенаправляет браузер на url вместе с сообщением.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	s.flash(w, kind, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
