package app

import "errors"

var (
	// ErrInvalidRequest indicates missing or malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrExtractionFailed indicates the PDF yielded no usable text. The
	// failed attempt is still persisted before this is returned.
	ErrExtractionFailed = errors.New("could not extract text from PDF")
	// ErrModelInvocationFailed indicates the model call errored or returned
	// unusable output.
	ErrModelInvocationFailed = errors.New("model invocation failed")
	// ErrDocumentNotFound indicates an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")
)
