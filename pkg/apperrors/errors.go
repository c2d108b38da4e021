package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidInput = errors.New("invalid input")
)
