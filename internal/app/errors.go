package app

import "errors"

var (
	// ErrNotFound indicates the target entity does not exist. It is distinct
	// from storage faults so handlers can answer 404 instead of 500.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicateUser indicates a sign-up collided with an existing login name.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials indicates a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
