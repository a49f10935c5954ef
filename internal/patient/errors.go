package patient

import "errors"

var (
	ErrNotFound       = errors.New("patient: record not found")
	ErrDuplicateEmail = errors.New("patient: email already registered")
	ErrInvalidInput   = errors.New("patient: invalid input")
)
