// Package nvim defines the surface of the headless modal-editing backend:
// typed buffer/window/grid identifiers, the RPC client interface the
// synchronization core issues requests through, and the atomic batch helper.
//
// The wire transport itself is provided by the embedding environment; this
// package only fixes the contract the core depends on.
package nvim

import "context"

// BufferID identifies a backend text buffer.
type BufferID int64

// WindowID identifies a backend window.
type WindowID int64

// GridID identifies a backend rendering surface. Grids are pushed by the
// backend and mapped 1:1 to windows.
type GridID int64

// Handler processes a named notification pushed by the backend. Arguments
// arrive already decoded.
type Handler func(args []any)

// Client is the RPC channel to the backend.
//
// Call issues a single request and decodes the response into result (which
// may be nil when the caller discards it). RegisterHandler subscribes to a
// named backend-pushed notification; handlers for the same name replace each
// other.
type Client interface {
	Call(ctx context.Context, method string, result any, args ...any) error
	RegisterHandler(method string, h Handler)
}

// Backend request method names used by the core.
const (
	MethodCallAtomic    = "nvim_call_atomic"
	MethodCreateBuf     = "nvim_create_buf"
	MethodOpenWin       = "nvim_open_win"
	MethodWinSetBuf     = "nvim_win_set_buf"
	MethodWinSetCursor  = "nvim_win_set_cursor"
	MethodWinSetVar     = "nvim_win_set_var"
	MethodWinClose      = "nvim_win_close"
	MethodBufSetOption  = "nvim_buf_set_option"
	MethodBufGetOption  = "nvim_buf_get_option"
	MethodBufSetLines   = "nvim_buf_set_lines"
	MethodBufGetLines   = "nvim_buf_get_lines"
	MethodBufSetName    = "nvim_buf_set_name"
	MethodBufGetName    = "nvim_buf_get_name"
	MethodBufSetVar     = "nvim_buf_set_var"
	MethodCallFunction  = "nvim_call_function"
	MethodListBufs      = "nvim_list_bufs"
	MethodListWins      = "nvim_list_wins"
	MethodSetCurrentWin = "nvim_set_current_win"
)

// Backend-pushed notification and request names consumed by the core.
const (
	EventWinPos   = "win_pos"
	EventWinClose = "win_close"

	RequestOpenFile       = "open-file"
	RequestExternalBuffer = "external-buffer"
)
