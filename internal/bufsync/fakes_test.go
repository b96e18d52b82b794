package bufsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

var errOpenRefused = errors.New("open refused")

// recordedCall is one backend call observed by the fake client. Calls made
// inside an atomic batch are recorded individually, in batch order.
type recordedCall struct {
	method string
	args   []any
}

// fakeClient executes backend calls in-process, handing out sequential
// buffer and window ids.
type fakeClient struct {
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[string]nvim.Handler

	nextBuf int64
	nextWin int64

	bufNames map[int64]string
	bufLines map[int64][]string

	failAtomicMethod string
	failCreateBuf    bool
	failOpenWin      bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers: make(map[string]nvim.Handler),
		nextWin:  1000,
		bufNames: make(map[int64]string),
		bufLines: make(map[int64][]string),
	}
}

func (c *fakeClient) Call(_ context.Context, method string, result any, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch method {
	case nvim.MethodCreateBuf:
		if c.failCreateBuf {
			return errors.New("create_buf failed")
		}
		c.nextBuf++
		c.calls = append(c.calls, recordedCall{method, args})
		if p, ok := result.(*int64); ok {
			*p = c.nextBuf
		}

	case nvim.MethodOpenWin:
		if c.failOpenWin {
			return errors.New("open_win failed")
		}
		c.nextWin++
		c.calls = append(c.calls, recordedCall{method, args})
		if p, ok := result.(*int64); ok {
			*p = c.nextWin
		}

	case nvim.MethodCallAtomic:
		payload := args[0].([]any)
		res := result.(*nvim.AtomicResult)
		for i, raw := range payload {
			inner := raw.([]any)
			name := inner[0].(string)
			innerArgs := inner[1].([]any)
			if name == c.failAtomicMethod {
				res.Error = &nvim.AtomicCallError{Index: int64(i), Message: "simulated failure"}
				return nil
			}
			c.calls = append(c.calls, recordedCall{name, innerArgs})
			res.Results = append(res.Results, nil)
		}

	case nvim.MethodBufGetName:
		c.calls = append(c.calls, recordedCall{method, args})
		if p, ok := result.(*string); ok {
			if id, isInt := nvim.AsInt(args[0]); isInt {
				*p = c.bufNames[id]
			}
		}

	case nvim.MethodBufGetLines:
		c.calls = append(c.calls, recordedCall{method, args})
		if p, ok := result.(*[]string); ok {
			if id, isInt := nvim.AsInt(args[0]); isInt {
				*p = c.bufLines[id]
			}
		}

	default:
		c.calls = append(c.calls, recordedCall{method, args})
	}
	return nil
}

func (c *fakeClient) RegisterHandler(method string, h nvim.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
}

// fire invokes a registered handler as the backend would.
func (c *fakeClient) fire(method string, args ...any) {
	c.mu.Lock()
	h := c.handlers[method]
	c.mu.Unlock()
	if h != nil {
		h(args)
	}
}

func (c *fakeClient) count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.method == method {
			n++
		}
	}
	return n
}

// firstIndex returns the position of the first call with the given method,
// or -1.
func (c *fakeClient) firstIndex(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, call := range c.calls {
		if call.method == method {
			return i
		}
	}
	return -1
}

func (c *fakeClient) lastIndex(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.calls) - 1; i >= 0; i-- {
		if c.calls[i].method == method {
			return i
		}
	}
	return -1
}

func (c *fakeClient) callsOf(method string) []recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []recordedCall
	for _, call := range c.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// fakeDocument implements host.Document.
type fakeDocument struct {
	uri    string
	text   string
	eol    string
	closed bool
}

func newFakeDocument(uri, text string) *fakeDocument {
	return &fakeDocument{uri: uri, text: text, eol: "\n"}
}

func hostChange(doc host.Document) host.DocumentChange {
	return host.DocumentChange{Document: doc}
}

func (d *fakeDocument) URI() string    { return d.uri }
func (d *fakeDocument) EOL() string    { return d.eol }
func (d *fakeDocument) Text() string   { return d.text }
func (d *fakeDocument) IsClosed() bool { return d.closed }

// fakeEditor implements host.Editor.
type fakeEditor struct {
	doc    *fakeDocument
	col    host.ColumnID
	hasCol bool
	opts   host.EditorOptions
	cursor host.Position
}

func newFakeEditor(doc *fakeDocument, col host.ColumnID) *fakeEditor {
	return &fakeEditor{
		doc:    doc,
		col:    col,
		hasCol: true,
		opts:   host.EditorOptions{InsertSpaces: true, TabSize: 4},
	}
}

func newSystemEditor(doc *fakeDocument) *fakeEditor {
	return &fakeEditor{
		doc:  doc,
		opts: host.EditorOptions{InsertSpaces: true, TabSize: 4},
	}
}

func (e *fakeEditor) Document() host.Document      { return e.doc }
func (e *fakeEditor) Column() (host.ColumnID, bool) { return e.col, e.hasCol }
func (e *fakeEditor) Options() host.EditorOptions  { return e.opts }
func (e *fakeEditor) Cursor() host.Position        { return e.cursor }

// fakeHost implements host.API with direct control over visible editors and
// synchronous notification delivery.
type fakeHost struct {
	mu      sync.Mutex
	visible []host.Editor
	active  host.Editor

	layoutFns []func()
	activeFns []func()
	closeFns  []func(host.Document)
	changeFns []func(host.DocumentChange)

	openedNames      []string
	untitledSeq      int
	showCalls        []host.ShowOptions
	closeActiveCalls int
	closeOthersCalls int
	cancelCalls      int
	openErr          error
}

func (h *fakeHost) cancelFunc() func() {
	return func() {
		h.mu.Lock()
		h.cancelCalls++
		h.mu.Unlock()
	}
}

func newFakeHost() *fakeHost {
	return &fakeHost{}
}

func (h *fakeHost) VisibleEditors() []host.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Editor, len(h.visible))
	copy(out, h.visible)
	return out
}

func (h *fakeHost) ActiveEditor() (host.Editor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, h.active != nil
}

func (h *fakeHost) OpenDocument(_ context.Context, name string) (host.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openErr != nil {
		return nil, h.openErr
	}
	h.openedNames = append(h.openedNames, name)
	if name == "" {
		h.untitledSeq++
		return newFakeDocument(fmt.Sprintf("untitled:Untitled-%d", h.untitledSeq), ""), nil
	}
	return newFakeDocument(name, ""), nil
}

func (h *fakeHost) ShowDocument(_ context.Context, doc host.Document, opts host.ShowOptions) (host.Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.showCalls = append(h.showCalls, opts)

	col := opts.Column
	if col == 0 {
		col = 1
		if ed, ok := h.active.(*fakeEditor); ok && ed.hasCol {
			col = ed.col
		}
	}
	ed := newFakeEditor(doc.(*fakeDocument), col)
	h.visible = append(h.visible, ed)
	h.active = ed
	return ed, nil
}

func (h *fakeHost) CloseActiveEditor(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeActiveCalls++
	if h.active == nil {
		return nil
	}
	kept := h.visible[:0]
	for _, ed := range h.visible {
		if ed != h.active {
			kept = append(kept, ed)
		}
	}
	h.visible = kept
	h.active = nil
	if len(h.visible) > 0 {
		h.active = h.visible[0]
	}
	return nil
}

func (h *fakeHost) CloseOtherEditors(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeOthersCalls++
	if h.active != nil {
		h.visible = []host.Editor{h.active}
	}
	return nil
}

func (h *fakeHost) OnLayoutChange(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layoutFns = append(h.layoutFns, fn)
	return h.cancelFunc()
}

func (h *fakeHost) OnActiveEditorChange(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeFns = append(h.activeFns, fn)
	return h.cancelFunc()
}

func (h *fakeHost) OnDocumentClose(fn func(host.Document)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeFns = append(h.closeFns, fn)
	return h.cancelFunc()
}

func (h *fakeHost) OnDocumentChange(fn func(host.DocumentChange)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changeFns = append(h.changeFns, fn)
	return h.cancelFunc()
}

func (h *fakeHost) setVisible(active host.Editor, editors ...host.Editor) {
	h.mu.Lock()
	h.visible = editors
	h.active = active
	h.mu.Unlock()
}

func (h *fakeHost) fireLayout() {
	h.mu.Lock()
	fns := append([]func(){}, h.layoutFns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (h *fakeHost) fireActive() {
	h.mu.Lock()
	fns := append([]func(){}, h.activeFns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (h *fakeHost) fireDocumentClose(doc host.Document) {
	h.mu.Lock()
	fns := append([]func(host.Document){}, h.closeFns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(doc)
	}
}

func (h *fakeHost) fireDocumentChange(doc host.Document) {
	h.mu.Lock()
	fns := append([]func(host.DocumentChange){}, h.changeFns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(host.DocumentChange{Document: doc})
	}
}
