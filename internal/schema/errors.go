package schema

import "errors"

var (
	// Declaration errors
	ErrInvalidDeclaration = errors.New("invalid schema declaration")
	ErrDuplicateService   = errors.New("service declared more than once")
)
