package ingest

import "errors"

var (
	// ErrKeyNotFound and ErrKeyInactive are distinguished internally but
	// must surface as one opaque client message so the endpoint cannot be
	// used to enumerate valid secrets.
	ErrKeyNotFound = errors.New("api key not found")
	ErrKeyInactive = errors.New("api key is inactive")

	ErrEmptySubmission = errors.New("no form data provided")
	ErrMalformedForm   = errors.New("malformed multipart body")
)

// FileRejectedError carries the client-supplied filename so the rejection
// message can name the offending file. It unwraps to the stager's policy
// error.
type FileRejectedError struct {
	Filename string
	Err      error
}

func (e *FileRejectedError) Error() string {
	return e.Err.Error() + ": " + e.Filename
}

func (e *FileRejectedError) Unwrap() error { return e.Err }

