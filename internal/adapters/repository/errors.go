package repository

import "errors"

// Sentinel kinds for profile store errors.
var (
	ErrNotFound     = errors.New("pilot not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
