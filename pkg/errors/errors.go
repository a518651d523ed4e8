package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogSchema      = errors.New("unexpected catalog response")
	ErrFavoritesBusy      = errors.New("favorites list is busy")
	ErrInternal           = errors.New("internal error")
)
