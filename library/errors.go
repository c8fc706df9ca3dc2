package library

import "errors"

var (
	// ErrDuplicateUser is returned when registering a nickname that is taken.
	ErrDuplicateUser = errors.New("username taken")
	// ErrAuthenticationFailed is returned when no user matches a nickname/password pair.
	ErrAuthenticationFailed = errors.New("wrong username or password")
	// ErrNotFound is returned when a row is absent or owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrMissingFile is returned by VerifyPath when the path does not exist.
	ErrMissingFile = errors.New("no such file")
	// ErrUnknownOwner is returned when inserting a book for a user that does not exist.
	ErrUnknownOwner = errors.New("unknown owner")
	// ErrInvalidInput wraps validation failures on user-supplied fields.
	ErrInvalidInput = errors.New("invalid input")
)
