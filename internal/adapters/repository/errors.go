package repository

import "errors"

// Sentinel kinds for ranking store errors.
var (
	ErrNotFound     = errors.New("account not ranked")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
