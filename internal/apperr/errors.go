// Package apperr defines the error kinds surfaced to users of docqa.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrIO indicates a file could not be read or written.
	ErrIO = errors.New("i/o error")

	// ErrDecode indicates a file's bytes could not be decoded as text.
	ErrDecode = errors.New("decode error")

	// ErrInvalidConfig indicates invalid splitter or application settings.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbedding indicates the embedding backend failed or is unreachable.
	ErrEmbedding = errors.New("embedding error")

	// ErrCorruption indicates a stored index could not be deserialized.
	ErrCorruption = errors.New("corrupt index")

	// ErrInvalidInput indicates malformed user input, such as a non-numeric document selector.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyStore indicates there are no uploaded documents to query.
	ErrEmptyStore = errors.New("no documents uploaded")

	// ErrUpstream indicates the hosted language model call failed.
	ErrUpstream = errors.New("upstream model error")

	// ErrNoMatch indicates a document selection matched no stored record.
	ErrNoMatch = errors.New("no documents match the selection")

	// ErrDuplicate indicates a document with the same name is already uploaded.
	ErrDuplicate = errors.New("document already uploaded")

	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// HTTPStatus maps an error to the status code returned by the HTTP API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDecode), errors.Is(err, ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoMatch), errors.Is(err, ErrEmptyStore):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message renders err as the one-line message shown in the UIs.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEmptyStore):
		return "Upload at least one document first."
	case errors.Is(err, ErrDuplicate):
		return "A document with this name is already uploaded: " + detail(err)
	case errors.Is(err, ErrNoMatch):
		return "No documents found with these numbers."
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input: " + detail(err)
	}
	return strings.TrimSpace(err.Error())
}

// detail strips the sentinel text from a wrapped error message.
func detail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrDuplicate, ErrInvalidInput} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
