package documents

import "errors"

var (
	// ErrInvalidInput marks a document missing its owner or filename.
	ErrInvalidInput = errors.New("invalid document")
	// ErrUnknownUser is returned when the owning user row does not exist.
	ErrUnknownUser = errors.New("document owner does not exist")
)
