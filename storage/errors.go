package storage

import "errors"

// Sentinel errors for store operations.
var (
	ErrNotOpened     = errors.New("store has not been opened")
	ErrFileNotFound  = errors.New("file not found")
	ErrInvalidFormat = errors.New("invalid document format")
	ErrIO            = errors.New("storage i/o failed")
	ErrUnknownKind   = errors.New("unknown store kind")
)
