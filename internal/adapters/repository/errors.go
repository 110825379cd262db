package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("session not found")
	ErrExists      = errors.New("session already exists")
	ErrInvalidDSN  = errors.New("invalid decision log dsn")
	ErrMissingData = errors.New("decision event is missing its session id")
)
