package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("an account with this email already exists")
	ErrDuplicateTitle  = errors.New("a post with this title already exists")
	ErrUnknownEmail    = errors.New("that email does not exist")
	ErrWrongPassword   = errors.New("wrong password")
	ErrUnauthenticated = errors.New("login required")
	ErrForbidden       = errors.New("forbidden")
)
