package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrSelfReference      = errors.New("cannot target self")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect credentials")
	ErrInvalidStatus      = errors.New("invalid connection status")
)
