package bufsync

import (
	"errors"
	"fmt"
)

// Standard errors returned by the synchronization core.
var (
	// ErrClosed indicates the manager has been shut down.
	ErrClosed = errors.New("buffer sync manager closed")

	// ErrNoBuffer indicates no backend buffer is mapped for a document.
	ErrNoBuffer = errors.New("no buffer mapped for document")

	// ErrNoWindow indicates no backend window is mapped for an editor.
	ErrNoWindow = errors.New("no window mapped for editor")

	// ErrNoActiveEditor indicates the host has no focused editor.
	ErrNoActiveEditor = errors.New("no active editor")

	// ErrBadRequest indicates a backend-originated request carried
	// malformed arguments.
	ErrBadRequest = errors.New("malformed backend request")
)

// EditorError wraps a failure while processing a single editor during a
// reconciliation pass. The pass continues with the remaining editors.
type EditorError struct {
	URI string
	Err error
}

// Error implements the error interface.
func (e *EditorError) Error() string {
	return fmt.Sprintf("editor %s: %v", e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *EditorError) Unwrap() error {
	return e.Err
}
