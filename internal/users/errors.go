package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("validation error")
)
