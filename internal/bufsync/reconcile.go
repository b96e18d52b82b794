package bufsync

import (
	"context"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// syncLayout is one debounced reconciliation pass: it diffs the previous
// visible-editor snapshot against the current one, creates backend buffers
// and windows for newly visible editors, closes windows whose columns are
// gone, and issues all window mutations as a single atomic batch.
//
// Buffers are created before windows are assigned so a freshly visible
// editor never observes a window pointing at a not-yet-existing buffer.
// Editors present in both snapshots are skipped entirely: resetting their
// cursor on every pass would disturb backend-side state such as undo
// history and jump lists.
func (m *Manager) syncLayout() {
	ctx := context.Background()
	visible := m.hostAPI.VisibleEditors()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	prev := m.prevVisible
	m.mu.Unlock()

	prevSet := make(map[host.Editor]bool, len(prev))
	for _, ed := range prev {
		prevSet[ed] = true
	}
	currentSet := make(map[host.Editor]bool, len(visible))
	visibleDocs := make(map[host.Document]bool, len(visible))
	for _, ed := range visible {
		currentSet[ed] = true
		visibleDocs[ed.Document()] = true
	}

	batch := nvim.NewBatch(m.client, m.logger)
	keptCols := make(map[host.ColumnID]bool)
	keptEds := make(map[host.Editor]bool)
	failed := make(map[host.Editor]bool)

	for _, ed := range visible {
		doc := ed.Document()

		m.mu.Lock()
		buf, haveBuf := m.maps.bufByDoc[doc]
		m.mu.Unlock()

		if !haveBuf {
			var err error
			buf, err = m.createAndInitBuffer(ctx, doc, ed.Options())
			if err != nil {
				m.logger.Error("creating buffer for %s: %v", doc.URI(), err)
				failed[ed] = true
				continue
			}
			m.mu.Lock()
			m.maps.setBuffer(doc, buf)
			m.mu.Unlock()
		}

		// Identity-equal editors were already assigned in an earlier pass.
		if prevSet[ed] {
			continue
		}

		win, err := m.resolveWindow(ctx, ed, keptCols, keptEds)
		if err != nil {
			m.logger.Error("resolving window for %s: %v", doc.URI(), err)
			failed[ed] = true
			continue
		}

		cur := ed.Cursor()
		batch.Add(nvim.MethodWinSetBuf, int64(win), int64(buf))
		// Backend cursor rows are 1-based, columns 0-based.
		batch.Add(nvim.MethodWinSetCursor, int64(win), []any{int64(cur.Line + 1), int64(cur.Character)})
	}

	for _, ed := range prev {
		if currentSet[ed] {
			continue
		}

		doc := ed.Document()
		if !visibleDocs[doc] {
			// The backend buffer self-destructs on becoming hidden; only
			// the mapping is dropped here.
			m.mu.Lock()
			m.maps.dropDocument(doc)
			m.mu.Unlock()
			m.changes.forget(doc)
		}

		if col, hasCol := ed.Column(); hasCol {
			if keptCols[col] {
				continue
			}
			m.mu.Lock()
			win, had := m.maps.dropColumn(col)
			m.mu.Unlock()
			if had {
				batch.Add(nvim.MethodWinClose, int64(win), true)
			}
		} else if !keptEds[ed] {
			m.mu.Lock()
			win, had := m.maps.dropEditor(ed)
			m.mu.Unlock()
			if had {
				batch.Add(nvim.MethodWinClose, int64(win), true)
			}
		}
	}

	if err := batch.Commit(ctx); err != nil {
		m.logger.Error("layout batch: %v", err)
	}

	// Editors that failed buffer creation or window resolution stay out of
	// the snapshot so the next pass treats them as newly visible and
	// retries the assignment.
	snapshot := visible
	if len(failed) > 0 {
		snapshot = make([]host.Editor, 0, len(visible)-len(failed))
		for _, ed := range visible {
			if !failed[ed] {
				snapshot = append(snapshot, ed)
			}
		}
	}

	m.mu.Lock()
	m.prevVisible = snapshot
	m.mu.Unlock()
}

// resolveWindow finds or creates the backend window for an editor and marks
// its column (or column-less identity) as kept for this pass.
func (m *Manager) resolveWindow(ctx context.Context, ed host.Editor, keptCols map[host.ColumnID]bool, keptEds map[host.Editor]bool) (nvim.WindowID, error) {
	if col, hasCol := ed.Column(); hasCol {
		keptCols[col] = true

		m.mu.Lock()
		win, ok := m.maps.winByCol[col]
		m.mu.Unlock()
		if ok {
			return win, nil
		}

		win, err := m.createWindow(ctx)
		if err != nil {
			return 0, err
		}
		m.mu.Lock()
		m.maps.setColumnWindow(col, win)
		m.mu.Unlock()
		return win, nil
	}

	// System panes get their own window, keyed by editor identity.
	keptEds[ed] = true

	m.mu.Lock()
	win, ok := m.maps.winByEd[ed]
	m.mu.Unlock()
	if ok {
		return win, nil
	}

	win, err := m.createWindow(ctx)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.maps.setEditorWindow(ed, win)
	m.mu.Unlock()
	return win, nil
}

// syncActive is the debounced active-editor routine. It waits for any
// pending layout reconciliation first so the focus switch always targets a
// window the latest layout pass has created or retained.
func (m *Manager) syncActive() {
	ctx := context.Background()
	if err := m.layoutDeb.Wait(ctx); err != nil {
		return
	}

	ed, ok := m.hostAPI.ActiveEditor()
	if !ok {
		m.logger.Debug("active sync: no active editor")
		return
	}

	win, ok := m.WindowForEditor(ed)
	if !ok {
		m.logger.Warn("active sync: no window for editor %s", ed.Document().URI())
		return
	}

	if err := m.client.Call(ctx, nvim.MethodSetCurrentWin, nil, int64(win)); err != nil {
		m.logger.Error("setting current window %d: %v", win, err)
	}
}
