package domain

import "errors"

var (
	// ErrNotFound covers missing users and failed logins. Login returns the
	// same error for an unknown email and a wrong password so responses do
	// not leak which one failed.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken signals a registration conflict on the unique email.
	ErrEmailTaken = errors.New("email already exists")

	// ErrTooManyAttempts is returned while a login lockout window is open.
	ErrTooManyAttempts = errors.New("too many login attempts")
)
