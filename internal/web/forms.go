package web

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Form хранит отправленные значения и найденные в них ошибки валидации.
type Form struct {
	Values url.Values
	Errors map[string]string
}

func newForm(values url.Values) *Form {
	if values == nil {
		values = url.Values{}
	}
	return &Form{Values: values, Errors: map[string]string{}}
}

// Get возвращает значение поля без пробелов по краям.
func (f *Form) Get(field string) string {
	return strings.TrimSpace(f.Values.Get(field))
}

// Raw возвращает значение поля как есть. Нужно для паролей.
func (f *Form) Raw(field string) string {
	return f.Values.Get(field)
}

func (f *Form) addError(field, msg string) {
	if _, ok := f.Errors[field]; !ok {
		f.Errors[field] = msg
	}
}

func (f *Form) Required(fields ...string) {
	for _, field := range fields {
		if f.Get(field) == "" {
			f.addError(field, "This field is required.")
		}
	}
}

func (f *Form) MaxLength(field string, n int) {
	if utf8.RuneCountInString(f.Get(field)) > n {
		f.addError(field, fmt.Sprintf("Must be at most %d characters.", n))
	}
}

func (f *Form) Email(field string) {
	v := f.Get(field)
	if v == "" {
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		f.addError(field, "Enter a valid email address.")
	}
}

func (f *Form) URL(field string) {
	v := f.Get(field)
	if v == "" {
		return
	}
	u, err := url.ParseRequestURI(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f.addError(field, "Enter a valid URL.")
	}
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// Лимиты совпадают с размерами колонок.
const (
	maxEmail    = 100
	maxName     = 1000
	maxTitle    = 250
	maxComment  = 2000
	maxPassword = 72 // bcrypt игнорирует все, что длиннее
)

func validateRegister(f *Form) {
	f.Required("email", "password", "name")
	f.Email("email")
	f.MaxLength("email", maxEmail)
	f.MaxLength("name", maxName)
	if len(f.Raw("password")) > maxPassword {
		f.addError("password", fmt.Sprintf("Must be at most %d bytes.", maxPassword))
	}
}

func validateLogin(f *Form) {
	f.Required("email", "password")
	f.Email("email")
}

func validatePost(f *Form) {
	f.Required("title", "subtitle", "img_url", "body")
	f.MaxLength("title", maxTitle)
	f.MaxLength("subtitle", maxTitle)
	f.MaxLength("img_url", maxTitle)
	f.URL("img_url")
}

func validateComment(f *Form) {
	f.Required("comment_text")
	f.MaxLength("comment_text", maxComment)
}
