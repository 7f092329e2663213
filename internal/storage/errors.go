package storage

import "errors"

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
)
