package bufsync

import (
	"testing"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// open-file with the untitled sentinel and close-mode "all" opens a new
// untitled document and leaves exactly one editor visible.
func TestOpenFile_UntitledCloseAll(t *testing.T) {
	_, fh, fc := newTestManager(t)

	docA := newFakeDocument("file:///tmp/A.txt", "alpha\n")
	docB := newFakeDocument("file:///tmp/B.txt", "bravo\n")
	edA := newFakeEditor(docA, 1)
	edB := newFakeEditor(docB, 2)
	fh.setVisible(edA, edA, edB)

	fc.fire(nvim.RequestOpenFile, UntitledName, "all")

	if len(fh.openedNames) != 1 || fh.openedNames[0] != "" {
		t.Errorf("opened names = %v, want one untitled open", fh.openedNames)
	}
	if len(fh.showCalls) != 1 {
		t.Errorf("show calls = %d, want 1", len(fh.showCalls))
	}
	if fh.closeOthersCalls != 1 {
		t.Errorf("close-others calls = %d, want 1", fh.closeOthersCalls)
	}
	if got := len(fh.VisibleEditors()); got != 1 {
		t.Errorf("visible editors = %d, want 1", got)
	}

	// Ordering: show happens before closing the rest, so the host never
	// reaches zero visible editors.
	if fh.closeActiveCalls != 0 {
		t.Errorf("close-active calls = %d, want 0", fh.closeActiveCalls)
	}
}

// open-file with close-mode "current" closes the active editor and reuses
// its column for the new document.
func TestOpenFile_CloseCurrentPreservesColumn(t *testing.T) {
	_, fh, fc := newTestManager(t)

	docA := newFakeDocument("file:///tmp/A.txt", "alpha\n")
	edA := newFakeEditor(docA, 3)
	fh.setVisible(edA, edA)

	fc.fire(nvim.RequestOpenFile, "file:///tmp/B.txt", "current")

	if fh.closeActiveCalls != 1 {
		t.Errorf("close-active calls = %d, want 1", fh.closeActiveCalls)
	}
	if len(fh.showCalls) != 1 {
		t.Fatalf("show calls = %d, want 1", len(fh.showCalls))
	}
	if fh.showCalls[0].Column != 3 {
		t.Errorf("shown in column %d, want 3", fh.showCalls[0].Column)
	}
	if got := len(fh.VisibleEditors()); got != 1 {
		t.Errorf("visible editors = %d, want 1", got)
	}
}

// open-file with a boolean close flag behaves like close-mode "current".
func TestOpenFile_BooleanCloseFlag(t *testing.T) {
	_, fh, fc := newTestManager(t)

	docA := newFakeDocument("file:///tmp/A.txt", "alpha\n")
	edA := newFakeEditor(docA, 1)
	fh.setVisible(edA, edA)

	fc.fire(nvim.RequestOpenFile, "file:///tmp/B.txt", true)

	if fh.closeActiveCalls != 1 {
		t.Errorf("close-active calls = %d, want 1", fh.closeActiveCalls)
	}
}

// A URI-shaped external buffer with the jump flag unset must not touch the
// host at all.
func TestExternalBuffer_NoJumpNoOp(t *testing.T) {
	_, fh, fc := newTestManager(t)

	fc.fire(nvim.RequestExternalBuffer, "file:///tmp/X.txt", int64(42), true, int64(4), false)

	if len(fh.openedNames) != 0 {
		t.Errorf("opened names = %v, want none", fh.openedNames)
	}
	if len(fh.showCalls) != 0 {
		t.Errorf("show calls = %d, want 0", len(fh.showCalls))
	}
}

// A URI-shaped external buffer with the jump flag set opens and shows the
// document, mapping it to the backend buffer on first sight.
func TestExternalBuffer_Jump(t *testing.T) {
	m, fh, fc := newTestManager(t)

	docA := newFakeDocument("file:///tmp/A.txt", "alpha\n")
	edA := newFakeEditor(docA, 1)
	fh.setVisible(edA, edA)
	fc.bufNames[42] = "/tmp/X.txt"

	fc.fire(nvim.RequestExternalBuffer, "file:///tmp/X.txt", int64(42), false, int64(8), true)

	if len(fh.openedNames) != 1 || fh.openedNames[0] != "file:///tmp/X.txt" {
		t.Fatalf("opened names = %v, want the jump target", fh.openedNames)
	}
	if len(fh.showCalls) != 1 {
		t.Errorf("show calls = %d, want 1", len(fh.showCalls))
	}

	doc, ok := m.DocumentForBuffer(42)
	if !ok {
		t.Fatal("no document mapped for backend buffer 42")
	}
	if doc.URI() != "file:///tmp/X.txt" {
		t.Errorf("mapped document = %s, want file:///tmp/X.txt", doc.URI())
	}

	// Initialization ran against the backend buffer.
	names := fc.callsOf(nvim.MethodBufSetName)
	if len(names) != 1 {
		t.Fatalf("buf_set_name calls = %d, want 1", len(names))
	}
	if id, _ := nvim.AsInt(names[0].args[0]); id != 42 {
		t.Errorf("buf_set_name target = %d, want 42", id)
	}

	// Tab options were force-resynced from the host's display settings
	// (active editor: spaces, width 4) after the init batch set the
	// backend-reported ones.
	tabstops := fc.callsOf(nvim.MethodBufSetOption)
	var lastTabstop int64
	for _, call := range tabstops {
		if name, _ := nvim.AsString(call.args[1]); name == "tabstop" {
			lastTabstop, _ = nvim.AsInt(call.args[2])
		}
	}
	if lastTabstop != 4 {
		t.Errorf("final tabstop = %d, want 4 (host display settings)", lastTabstop)
	}
}

// A failed jump is swallowed: logged, no propagation, no host action
// beyond the attempted open.
func TestExternalBuffer_JumpOpenFailureSwallowed(t *testing.T) {
	_, fh, fc := newTestManager(t)
	fh.openErr = errOpenRefused

	fc.fire(nvim.RequestExternalBuffer, "file:///tmp/X.txt", int64(42), true, int64(4), true)

	if len(fh.showCalls) != 0 {
		t.Errorf("show calls = %d, want 0 after failed open", len(fh.showCalls))
	}
}

// A non-URI name takes the attach path: the backend buffer is mapped to a
// fresh untitled document and shown.
func TestExternalBuffer_AttachNonURI(t *testing.T) {
	m, fh, fc := newTestManager(t)
	fc.bufLines[7] = []string{"hello", "world"}

	fc.fire(nvim.RequestExternalBuffer, "[Command Line]", int64(7), true, int64(2), false)

	if len(fh.openedNames) != 1 || fh.openedNames[0] != "" {
		t.Fatalf("opened names = %v, want one untitled open", fh.openedNames)
	}
	if len(fh.showCalls) != 1 {
		t.Errorf("show calls = %d, want 1", len(fh.showCalls))
	}

	doc, ok := m.DocumentForBuffer(7)
	if !ok {
		t.Fatal("no document mapped for attached buffer")
	}
	if got := doc.URI(); got != "untitled:Untitled-1" {
		t.Errorf("attached document = %s, want untitled:Untitled-1", got)
	}

	if got := fc.count(nvim.MethodBufGetLines); got != 1 {
		t.Errorf("buf_get_lines calls = %d, want 1", got)
	}
}

// Malformed requests are rejected without panicking.
func TestRequests_Malformed(t *testing.T) {
	_, fh, fc := newTestManager(t)

	fc.fire(nvim.RequestOpenFile)
	fc.fire(nvim.RequestOpenFile, int64(99))
	fc.fire(nvim.RequestExternalBuffer, "file:///tmp/X.txt")

	if len(fh.openedNames) != 0 {
		t.Errorf("opened names = %v, want none", fh.openedNames)
	}
}
