package bufsync

import (
	"context"
	"fmt"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// Close modes for backend open-file requests.
const (
	closeModeNone    = "none"
	closeModeCurrent = "current"
	closeModeAll     = "all"
)

func (m *Manager) onOpenFileRequest(args []any) {
	if err := m.handleOpenFile(context.Background(), args); err != nil {
		m.logger.Error("open-file request: %v", err)
	}
}

// handleOpenFile opens a document in the host editor on behalf of the
// backend. The sentinel UntitledName creates a new untitled document. The
// document is opened before any editor is closed so the host never shows
// zero editors mid-sequence.
func (m *Manager) handleOpenFile(ctx context.Context, args []any) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: open-file needs a name", ErrBadRequest)
	}
	name, ok := nvim.AsString(args[0])
	if !ok {
		return fmt.Errorf("%w: open-file name is %T", ErrBadRequest, args[0])
	}

	closeMode := closeModeNone
	if len(args) > 1 {
		if s, isStr := nvim.AsString(args[1]); isStr {
			closeMode = s
		} else if b, isBool := nvim.AsBool(args[1]); isBool && b {
			closeMode = closeModeCurrent
		}
	}

	openName := name
	if name == UntitledName {
		openName = ""
	}
	doc, err := m.hostAPI.OpenDocument(ctx, openName)
	if err != nil {
		return fmt.Errorf("opening %q: %w", name, err)
	}

	switch closeMode {
	case closeModeCurrent:
		// Preserve the closing editor's column for the new document.
		var col host.ColumnID
		if ed, active := m.hostAPI.ActiveEditor(); active {
			if c, hasCol := ed.Column(); hasCol {
				col = c
			}
		}
		if err := m.hostAPI.CloseActiveEditor(ctx); err != nil {
			return fmt.Errorf("closing active editor: %w", err)
		}
		if _, err := m.hostAPI.ShowDocument(ctx, doc, host.ShowOptions{Column: col}); err != nil {
			return fmt.Errorf("showing %q: %w", name, err)
		}
	case closeModeAll:
		// Open first, close the rest after: the ordering never leaves
		// zero editors visible.
		if _, err := m.hostAPI.ShowDocument(ctx, doc, host.ShowOptions{}); err != nil {
			return fmt.Errorf("showing %q: %w", name, err)
		}
		if err := m.hostAPI.CloseOtherEditors(ctx); err != nil {
			return fmt.Errorf("closing other editors: %w", err)
		}
	default:
		if _, err := m.hostAPI.ShowDocument(ctx, doc, host.ShowOptions{}); err != nil {
			return fmt.Errorf("showing %q: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) onExternalBufferRequest(args []any) {
	if err := m.handleExternalBuffer(context.Background(), args); err != nil {
		m.logger.Error("external-buffer request: %v", err)
	}
}

// handleExternalBuffer processes a backend notification that a buffer
// appeared outside host control: (name, buffer id, expandtab, tabstop,
// jump). URI-shaped names are only acted on when the jump flag is set, so
// arbitrary backend-side buffer activity cannot destabilize host layout.
func (m *Manager) handleExternalBuffer(ctx context.Context, args []any) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: external-buffer needs a name and id", ErrBadRequest)
	}
	name, ok := nvim.AsString(args[0])
	if !ok {
		return fmt.Errorf("%w: external-buffer name is %T", ErrBadRequest, args[0])
	}
	rawBuf, ok := nvim.AsInt(args[1])
	if !ok {
		return fmt.Errorf("%w: external-buffer id is %T", ErrBadRequest, args[1])
	}
	buf := nvim.BufferID(rawBuf)

	opts := host.EditorOptions{InsertSpaces: true, TabSize: 4}
	if len(args) > 2 {
		if b, isBool := nvim.AsBool(args[2]); isBool {
			opts.InsertSpaces = b
		}
	}
	if len(args) > 3 {
		if n, isInt := nvim.AsInt(args[3]); isInt && n > 0 {
			opts.TabSize = int(n)
		}
	}
	jump := false
	if len(args) > 4 {
		if b, isBool := nvim.AsBool(args[4]); isBool {
			jump = b
		}
	}

	if !host.IsURIName(name) {
		return m.attachBackendBuffer(ctx, name, buf, opts)
	}

	if !jump {
		m.logger.Debug("external buffer %s: jump not requested, ignoring", name)
		return nil
	}

	doc, err := m.hostAPI.OpenDocument(ctx, name)
	if err != nil {
		// A failed jump must not poison request handling; log and move on.
		m.logger.Warn("jump to %s failed: %v", name, err)
		return nil
	}

	if _, mapped := m.BufferForDocument(doc); !mapped {
		var bufName string
		if err := m.client.Call(ctx, nvim.MethodBufGetName, &bufName, rawBuf); err != nil {
			m.logger.Warn("fetching name of buffer %d: %v", buf, err)
		}

		if err := m.initBuffer(ctx, buf, doc, opts); err != nil {
			m.logger.Warn("initializing external buffer %d (%s): %v", buf, bufName, err)
			return nil
		}
		m.mu.Lock()
		m.maps.setBuffer(doc, buf)
		m.mu.Unlock()

		// The backend's own tab settings may disagree with what the host
		// displays; the host wins.
		if ed, active := m.hostAPI.ActiveEditor(); active {
			if err := m.resyncTabOptions(ctx, buf, ed.Options()); err != nil {
				m.logger.Warn("resyncing tab options for buffer %d: %v", buf, err)
			}
		}
	}

	if _, err := m.hostAPI.ShowDocument(ctx, doc, host.ShowOptions{}); err != nil {
		m.logger.Warn("showing %s after jump: %v", name, err)
	}
	return nil
}

// attachBackendBuffer maps a backend-originated, non-URI buffer to a fresh
// untitled host document and shows it. The buffer's current content becomes
// the change forwarder's baseline; ongoing content flow is the content
// syncer's concern.
func (m *Manager) attachBackendBuffer(ctx context.Context, name string, buf nvim.BufferID, opts host.EditorOptions) error {
	var lines []string
	if err := m.client.Call(ctx, nvim.MethodBufGetLines, &lines, int64(buf), int64(0), int64(-1), false); err != nil {
		return fmt.Errorf("reading backend buffer %d: %w", buf, err)
	}

	doc, err := m.hostAPI.OpenDocument(ctx, "")
	if err != nil {
		return fmt.Errorf("opening untitled document for %q: %w", name, err)
	}

	m.mu.Lock()
	m.maps.setBuffer(doc, buf)
	m.mu.Unlock()
	m.changes.trackWithBaseline(doc, buf, joinLines(lines))

	if err := m.resyncTabOptions(ctx, buf, opts); err != nil {
		m.logger.Warn("setting tab options for attached buffer %d: %v", buf, err)
	}

	if _, err := m.hostAPI.ShowDocument(ctx, doc, host.ShowOptions{}); err != nil {
		return fmt.Errorf("showing attached buffer %q: %w", name, err)
	}

	m.logger.Info("attached backend buffer %d (%s) as %s", buf, name, doc.URI())
	return nil
}
