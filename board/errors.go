package board

import "errors"

// Local validation failures, checked before any remote call is attempted.
var (
	ErrEmptyTitle     = errors.New("title must not be empty")
	ErrColumnNotFound = errors.New("column not found")
	ErrCardNotFound   = errors.New("card not found")
	ErrCardCompleted  = errors.New("completed cards cannot be moved")
	ErrBadIndex       = errors.New("index out of range")
)
