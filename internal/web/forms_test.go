package web

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegister(t *testing.T) {
	f := newForm(url.Values{"email": {" a@x.com "}, "password": {"pw"}, "name": {"A"}})
	validateRegister(f)
	assert.True(t, f.Valid())
	assert.Equal(t, "a@x.com", f.Get("email"))

	f = newForm(url.Values{"email": {"Alice <a@x.com>"}, "password": {strings.Repeat("p", 73)}})
	validateRegister(f)
	assert.Equal(t, "Enter a valid email address.", f.Errors["email"])
	assert.Equal(t, "Must be at most 72 bytes.", f.Errors["password"])
	assert.Equal(t, "This field is required.", f.Errors["name"])
}

func TestValidateLogin(t *testing.T) {
	f := newForm(url.Values{"email": {""}, "password": {""}})
	validateLogin(f)
	assert.Len(t, f.Errors, 2)
}

func TestValidatePost(t *testing.T) {
	valid := url.Values{
		"title":    {"T"},
		"subtitle": {"S"},
		"img_url":  {"https://example.com/a.png"},
		"body":     {"B"},
	}
	f := newForm(valid)
	validatePost(f)
	assert.True(t, f.Valid())

	for _, bad := range []string{"example.com/a.png", "ftp://example.com/a.png", "https://"} {
		v := url.Values{"title": {"T"}, "subtitle": {"S"}, "img_url": {bad}, "body": {"B"}}
		f := newForm(v)
		validatePost(f)
		assert.Equal(t, "Enter a valid URL.", f.Errors["img_url"], bad)
	}

	long := newForm(url.Values{"title": {strings.Repeat("t", 251)}, "subtitle": {"S"}, "img_url": {"https://e.com"}, "body": {"B"}})
	validatePost(long)
	assert.Equal(t, "Must be at most 250 characters.", long.Errors["title"])
}

func TestValidateComment(t *testing.T) {
	f := newForm(url.Values{"comment_text": {strings.Repeat("c", 2001)}})
	validateComment(f)
	assert.Equal(t, "Must be at most 2000 characters.", f.Errors["comment_text"])

	f = newForm(url.Values{"comment_text": {"ok"}})
	validateComment(f)
	assert.True(t, f.Valid())
}

func TestFormKeepsFirstError(t *testing.T) {
	f := newForm(url.Values{"email": {""}})
	f.Required("email")
	f.addError("email", "second")
	assert.Equal(t, "This field is required.", f.Errors["email"])
}
