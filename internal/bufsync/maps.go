package bufsync

import (
	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// identityMaps holds the bidirectional tables between host handles and
// backend ids. Forward and reverse maps are mutated together so uniqueness
// is structural rather than scan-discovered.
//
// All access happens under the owning Manager's mutex. The buffer and window
// tables are written only by the layout reconciler (plus the request handler
// for backend-originated buffers); the grid tables are written only by the
// backend redraw handlers.
type identityMaps struct {
	bufByDoc map[host.Document]nvim.BufferID
	docByBuf map[nvim.BufferID]host.Document

	winByCol map[host.ColumnID]nvim.WindowID
	colByWin map[nvim.WindowID]host.ColumnID

	// Column-less editors get their own window, 1:1 by editor identity.
	winByEd map[host.Editor]nvim.WindowID
	edByWin map[nvim.WindowID]host.Editor

	winByGrid map[nvim.GridID]nvim.WindowID
	gridByWin map[nvim.WindowID]nvim.GridID
}

func newIdentityMaps() *identityMaps {
	return &identityMaps{
		bufByDoc:  make(map[host.Document]nvim.BufferID),
		docByBuf:  make(map[nvim.BufferID]host.Document),
		winByCol:  make(map[host.ColumnID]nvim.WindowID),
		colByWin:  make(map[nvim.WindowID]host.ColumnID),
		winByEd:   make(map[host.Editor]nvim.WindowID),
		edByWin:   make(map[nvim.WindowID]host.Editor),
		winByGrid: make(map[nvim.GridID]nvim.WindowID),
		gridByWin: make(map[nvim.WindowID]nvim.GridID),
	}
}

func (m *identityMaps) setBuffer(doc host.Document, buf nvim.BufferID) {
	m.bufByDoc[doc] = buf
	m.docByBuf[buf] = doc
}

func (m *identityMaps) dropDocument(doc host.Document) {
	if buf, ok := m.bufByDoc[doc]; ok {
		delete(m.docByBuf, buf)
		delete(m.bufByDoc, doc)
	}
}

func (m *identityMaps) setColumnWindow(col host.ColumnID, win nvim.WindowID) {
	m.winByCol[col] = win
	m.colByWin[win] = col
}

func (m *identityMaps) dropColumn(col host.ColumnID) (nvim.WindowID, bool) {
	win, ok := m.winByCol[col]
	if ok {
		delete(m.colByWin, win)
		delete(m.winByCol, col)
	}
	return win, ok
}

func (m *identityMaps) setEditorWindow(ed host.Editor, win nvim.WindowID) {
	m.winByEd[ed] = win
	m.edByWin[win] = ed
}

func (m *identityMaps) dropEditor(ed host.Editor) (nvim.WindowID, bool) {
	win, ok := m.winByEd[ed]
	if ok {
		delete(m.edByWin, win)
		delete(m.winByEd, ed)
	}
	return win, ok
}

func (m *identityMaps) setGrid(grid nvim.GridID, win nvim.WindowID) {
	m.winByGrid[grid] = win
	m.gridByWin[win] = grid
}

func (m *identityMaps) dropGrid(grid nvim.GridID) {
	if win, ok := m.winByGrid[grid]; ok {
		delete(m.gridByWin, win)
		delete(m.winByGrid, grid)
	}
}

// documentForBuffer resolves the open document mapped to buf. Documents the
// host has since closed do not resolve.
func (m *identityMaps) documentForBuffer(buf nvim.BufferID) (host.Document, bool) {
	doc, ok := m.docByBuf[buf]
	if !ok || doc.IsClosed() {
		return nil, false
	}
	return doc, true
}

// windowForEditor resolves the window an editor is mirrored into: its own
// window for column-less editors, the column's window otherwise.
func (m *identityMaps) windowForEditor(ed host.Editor) (nvim.WindowID, bool) {
	if col, ok := ed.Column(); ok {
		win, ok := m.winByCol[col]
		return win, ok
	}
	win, ok := m.winByEd[ed]
	return win, ok
}

// editorForWindow resolves the editor a window mirrors. Column-less editors
// are checked first, then editors whose column maps to the window.
func (m *identityMaps) editorForWindow(win nvim.WindowID, visible []host.Editor) (host.Editor, bool) {
	if ed, ok := m.edByWin[win]; ok {
		return ed, true
	}
	col, ok := m.colByWin[win]
	if !ok {
		return nil, false
	}
	for _, ed := range visible {
		if c, has := ed.Column(); has && c == col {
			return ed, true
		}
	}
	return nil, false
}

func (m *identityMaps) clear() {
	m.bufByDoc = make(map[host.Document]nvim.BufferID)
	m.docByBuf = make(map[nvim.BufferID]host.Document)
	m.winByCol = make(map[host.ColumnID]nvim.WindowID)
	m.colByWin = make(map[nvim.WindowID]host.ColumnID)
	m.winByEd = make(map[host.Editor]nvim.WindowID)
	m.edByWin = make(map[nvim.WindowID]host.Editor)
	m.winByGrid = make(map[nvim.GridID]nvim.WindowID)
	m.gridByWin = make(map[nvim.WindowID]nvim.GridID)
}
