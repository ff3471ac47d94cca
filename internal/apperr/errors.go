package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPathEscape         = errors.New("path escapes permitted roots")
	ErrMissingCredentials = errors.New("missing bot credentials")
)
