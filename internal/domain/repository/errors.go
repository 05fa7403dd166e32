package repository

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrStaleSpent       = errors.New("points spent changed concurrently")
	ErrAlreadyCompleted = errors.New("task already completed")
)
