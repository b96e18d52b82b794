package bufsync

import (
	"context"
	"fmt"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// createAndInitBuffer creates a backend buffer for doc and initializes it.
// The buffer is created unlisted and scratch-flagged so backend autocommands
// do not fire before content and name are set.
func (m *Manager) createAndInitBuffer(ctx context.Context, doc host.Document, opts host.EditorOptions) (nvim.BufferID, error) {
	var raw int64
	if err := m.client.Call(ctx, nvim.MethodCreateBuf, &raw, false, true); err != nil {
		return 0, fmt.Errorf("creating buffer: %w", err)
	}
	buf := nvim.BufferID(raw)

	if err := m.initBuffer(ctx, buf, doc, opts); err != nil {
		return 0, err
	}
	return buf, nil
}

// initBuffer applies a document's options, content, and name to a backend
// buffer in one atomic batch, then arms the content-change listener.
func (m *Manager) initBuffer(ctx context.Context, buf nvim.BufferID, doc host.Document, opts host.EditorOptions) error {
	tabStop := opts.TabSize
	if tabStop <= 0 {
		tabStop = 4
	}
	if !opts.InsertSpaces {
		// A literal tab must render as exactly one column.
		tabStop = 1
	}

	lines := host.SplitLines(doc.Text(), doc.EOL())

	batch := nvim.NewBatch(m.client, m.logger)
	batch.Add(nvim.MethodBufSetOption, int64(buf), "expandtab", opts.InsertSpaces)
	batch.Add(nvim.MethodBufSetOption, int64(buf), "tabstop", int64(tabStop))
	batch.Add(nvim.MethodBufSetOption, int64(buf), "shiftwidth", int64(tabStop))
	batch.Add(nvim.MethodBufSetLines, int64(buf), int64(0), int64(-1), false, lines)
	batch.Add(nvim.MethodBufSetVar, int64(buf), m.cfg.controlledVar, true)
	batch.Add(nvim.MethodBufSetName, int64(buf), doc.URI())
	batch.Add(nvim.MethodCallFunction, m.cfg.clearUndoFunc, []any{int64(buf)})
	// Listing is deferred to the end so autocommands observe a populated,
	// named buffer.
	batch.Add(nvim.MethodBufSetOption, int64(buf), "buflisted", true)

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("initializing buffer %d for %s: %w", buf, doc.URI(), err)
	}

	m.changes.track(doc, buf)
	if m.cfg.onBufferInit != nil {
		m.cfg.onBufferInit(buf, doc)
	}
	return nil
}

// resyncTabOptions re-applies tab display settings to a buffer.
func (m *Manager) resyncTabOptions(ctx context.Context, buf nvim.BufferID, opts host.EditorOptions) error {
	tabStop := opts.TabSize
	if tabStop <= 0 {
		tabStop = 4
	}
	if !opts.InsertSpaces {
		tabStop = 1
	}

	batch := nvim.NewBatch(m.client, m.logger)
	batch.Add(nvim.MethodBufSetOption, int64(buf), "expandtab", opts.InsertSpaces)
	batch.Add(nvim.MethodBufSetOption, int64(buf), "tabstop", int64(tabStop))
	batch.Add(nvim.MethodBufSetOption, int64(buf), "shiftwidth", int64(tabStop))
	return batch.Commit(ctx)
}

// createWindow creates a backend window against a fresh scratch buffer,
// sized to the configured viewport. Construction failures are fatal to the
// caller's current editor; the marking batch is tolerated failing since the
// window itself is usable.
func (m *Manager) createWindow(ctx context.Context) (nvim.WindowID, error) {
	var rawBuf int64
	if err := m.client.Call(ctx, nvim.MethodCreateBuf, &rawBuf, false, true); err != nil {
		return 0, fmt.Errorf("creating scratch buffer: %w", err)
	}

	m.mu.Lock()
	width, height := m.cfg.viewportWidth, m.cfg.viewportHeight
	m.mu.Unlock()
	winConfig := map[string]any{
		"external": true,
		"width":    int64(width),
		"height":   int64(height),
	}
	var rawWin int64
	if err := m.client.Call(ctx, nvim.MethodOpenWin, &rawWin, rawBuf, false, winConfig); err != nil {
		return 0, fmt.Errorf("opening window: %w", err)
	}
	win := nvim.WindowID(rawWin)

	batch := nvim.NewBatch(m.client, m.logger)
	batch.Add(nvim.MethodWinSetVar, rawWin, m.cfg.clearJumpsVar, true)
	batch.Add(nvim.MethodBufSetOption, rawBuf, "buftype", "nofile")
	batch.Add(nvim.MethodBufSetOption, rawBuf, "bufhidden", "wipe")
	batch.Add(nvim.MethodBufSetOption, rawBuf, "buflisted", false)
	if err := batch.Commit(ctx); err != nil {
		m.logger.Warn("marking window %d scratch state: %v", win, err)
	}

	return win, nil
}
