package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a password
	// mismatch at login; the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")

	// ErrInvalidToken marks a refresh token that failed structural,
	// signature or expiry validation.
	ErrInvalidToken = errors.New("auth: invalid or expired refresh token")

	ErrNotFound     = errors.New("auth: user not found")
	ErrDuplicate    = errors.New("auth: resource already exists")
	ErrSelfDeletion = errors.New("auth: cannot delete your own account")
	ErrForbidden    = errors.New("auth: access denied")
	ErrInvalidInput = errors.New("auth: invalid input")
)
