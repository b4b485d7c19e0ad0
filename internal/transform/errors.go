package transform

import "errors"

var (
	// Construction errors
	ErrNoPayload        = errors.New("field transformation needs a field mapping or a hydration")
	ErrBothPayloads     = errors.New("field transformation cannot be both a field mapping and a hydration")
	ErrInvalidMapping   = errors.New("invalid field mapping")
	ErrInvalidHydration = errors.New("invalid hydration")

	// Source parsing errors
	ErrInvalidArgumentSource = errors.New("invalid remote argument source")
)
