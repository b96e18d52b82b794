package nvim

import (
	"errors"
	"fmt"
)

// Standard errors returned by the backend client surface.
var (
	// ErrBatchFailed indicates an atomic batch stopped partway through.
	ErrBatchFailed = errors.New("atomic batch failed")

	// ErrClientClosed indicates the RPC channel has been shut down.
	ErrClientClosed = errors.New("rpc client closed")

	// ErrInvalidResponse indicates the backend returned a malformed result.
	ErrInvalidResponse = errors.New("invalid response from backend")
)

// RPCError represents an error returned by the backend for a single call.
type RPCError struct {
	Code    int64
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// BatchError reports the failing call of an atomic batch: all calls before
// Index were applied, the call at Index failed with Message, and no later
// call was attempted. The backend does not roll back the applied prefix.
type BatchError struct {
	Index   int
	Method  string
	Type    int64
	Message string
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("batch call %d (%s) failed: %s", e.Index, e.Method, e.Message)
}

// Unwrap returns ErrBatchFailed so callers can match with errors.Is.
func (e *BatchError) Unwrap() error {
	return ErrBatchFailed
}
