package nvim

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/log"
)

// BatchCall is a single (method, arguments) pair inside an atomic batch.
type BatchCall struct {
	Method string
	Args   []any
}

// AtomicResult is the decoded response of an atomic batch request: the
// per-call results plus, when a call failed, the (index, type, message)
// error triple for the first failing call.
type AtomicResult struct {
	Results []any
	Error   *AtomicCallError
}

// AtomicCallError is the error triple the backend reports for a failed
// batch call. Calls before Index were applied; no later call ran.
type AtomicCallError struct {
	Index   int64
	Type    int64
	Message string
}

// Batch collects backend calls and submits them as one indivisible
// nvim_call_atomic request. It is not safe for concurrent use; build and
// commit a batch from a single goroutine.
//
// On a partial failure the applied prefix is not rolled back — the helper
// only surfaces which call failed and why.
type Batch struct {
	client Client
	logger *log.Logger
	calls  []BatchCall
}

// NewBatch creates an empty batch against the given client.
func NewBatch(client Client, logger *log.Logger) *Batch {
	if logger == nil {
		logger = log.Null
	}
	return &Batch{
		client: client,
		logger: logger,
	}
}

// Add appends a call to the batch.
func (b *Batch) Add(method string, args ...any) {
	if args == nil {
		args = []any{}
	}
	b.calls = append(b.calls, BatchCall{Method: method, Args: args})
}

// Len returns the number of queued calls.
func (b *Batch) Len() int {
	return len(b.calls)
}

// Commit submits the queued calls as one atomic request. An empty batch is a
// no-op. On partial failure the failing call, its position, and the count of
// already-applied calls are logged and a *BatchError is returned.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.calls) == 0 {
		return nil
	}

	id := uuid.NewString()
	logger := b.logger.WithField("batch", id[:8])

	payload := make([]any, len(b.calls))
	for i, c := range b.calls {
		payload[i] = []any{c.Method, c.Args}
	}

	var res AtomicResult
	if err := b.client.Call(ctx, MethodCallAtomic, &res, payload); err != nil {
		logger.Error("atomic batch of %d calls failed: %v", len(b.calls), err)
		return fmt.Errorf("atomic batch: %w", err)
	}

	if res.Error != nil {
		idx := int(res.Error.Index)
		method := "unknown"
		if idx >= 0 && idx < len(b.calls) {
			method = b.calls[idx].Method
		}
		logger.Error("atomic batch stopped at call %d/%d (%s): %s (%d calls already applied)",
			idx, len(b.calls), method, res.Error.Message, idx)
		return &BatchError{
			Index:   idx,
			Method:  method,
			Type:    res.Error.Type,
			Message: res.Error.Message,
		}
	}

	logger.Debug("atomic batch of %d calls applied", len(b.calls))
	return nil
}
