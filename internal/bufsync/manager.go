// Package bufsync keeps the host editor's layout (documents, editors,
// columns) and the backend's buffer/window/grid state in mutual sync.
//
// The host is the source of truth for which documents are open and how they
// are laid out; the backend is the source of truth for text-editing
// semantics. This package mirrors layout and identity only: it creates and
// destroys backend buffers and windows to match the visible editor set,
// maintains the bidirectional id maps, and replays backend-originated
// requests back into the host.
package bufsync

import (
	"context"
	"sync"
	"time"

	hostconfig "github.com/ian-h-chamberlain/vscode-neovim/internal/config"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/debounce"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/log"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// UntitledName is the sentinel a backend open-file request uses to mean
// "create a new untitled document".
const UntitledName = "__vscode_new__"

// Default debounce windows for the two reconciliation routines. Layout
// changes settle slower than focus changes; the active-editor synchronizer
// additionally gates on the layout debouncer so the ordering holds even
// when both fire together.
const (
	DefaultLayoutDebounce = 100 * time.Millisecond
	DefaultActiveDebounce = 50 * time.Millisecond
)

// BufferInitCallback observes backend buffer initialization. It is invoked
// after a buffer's options, content, and name have been applied.
type BufferInitCallback func(buf nvim.BufferID, doc host.Document)

// Manager is the layout/buffer synchronization engine.
//
// All identity map mutation happens under mu with a single-writer
// discipline: the layout reconciler owns the buffer and window tables, the
// backend redraw handlers own the grid tables. Lookups are pure.
type Manager struct {
	mu   sync.Mutex
	maps *identityMaps

	// prevVisible is the snapshot the last reconciliation pass observed.
	prevVisible []host.Editor

	hostAPI host.API
	client  nvim.Client
	logger  *log.Logger

	layoutDeb *debounce.Debouncer
	activeDeb *debounce.Debouncer

	changes *changeForwarder

	cfg     config
	cancels []func()
	closed  bool
}

type config struct {
	layoutDebounce time.Duration
	activeDebounce time.Duration

	viewportWidth  int
	viewportHeight int

	// Name of the backend function invoked to clear a fresh buffer's undo
	// history.
	clearUndoFunc string

	// Buffer variable marking a buffer as host-controlled.
	controlledVar string

	// Window variable suppressing jump-list history on created windows.
	clearJumpsVar string

	onBufferInit BufferInitCallback
}

func defaultConfig() config {
	return config{
		layoutDebounce: DefaultLayoutDebounce,
		activeDebounce: DefaultActiveDebounce,
		viewportWidth:  1000,
		viewportHeight: 100,
		clearUndoFunc:  "VSCodeClearUndo",
		controlledVar:  "vscode_controlled",
		clearJumpsVar:  "vscode_clearjumps",
	}
}

// Option configures the manager.
type Option func(*config)

// WithLayoutDebounce sets the layout reconciler's debounce window.
func WithLayoutDebounce(d time.Duration) Option {
	return func(c *config) { c.layoutDebounce = d }
}

// WithActiveDebounce sets the active-editor synchronizer's debounce window.
func WithActiveDebounce(d time.Duration) Option {
	return func(c *config) { c.activeDebounce = d }
}

// WithViewport sets the dimensions used for created backend windows.
func WithViewport(width, height int) Option {
	return func(c *config) {
		c.viewportWidth = width
		c.viewportHeight = height
	}
}

// WithClearUndoFunction sets the backend function called to clear undo
// history on freshly initialized buffers.
func WithClearUndoFunction(name string) Option {
	return func(c *config) { c.clearUndoFunc = name }
}

// WithBufferInitCallback registers an observer for buffer initialization.
func WithBufferInitCallback(cb BufferInitCallback) Option {
	return func(c *config) { c.onBufferInit = cb }
}

// New creates a manager over the given host API and backend client.
// Call Start to begin consuming notifications.
func New(hostAPI host.API, client nvim.Client, logger *log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = log.Null
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{
		maps:    newIdentityMaps(),
		hostAPI: hostAPI,
		client:  client,
		logger:  logger.WithComponent("bufsync"),
		cfg:     cfg,
	}
	m.changes = newChangeForwarder(client, m.logger)
	m.layoutDeb = debounce.New(cfg.layoutDebounce, m.syncLayout)
	m.activeDeb = debounce.New(cfg.activeDebounce, m.syncActive)
	return m
}

// Start subscribes to host notifications and backend events. The manager
// runs until Close.
func (m *Manager) Start() error {
	cancels := []func(){
		m.hostAPI.OnLayoutChange(m.layoutDeb.Call),
		m.hostAPI.OnActiveEditorChange(m.activeDeb.Call),
		m.hostAPI.OnDocumentClose(m.onDocumentClose),
		m.hostAPI.OnDocumentChange(m.changes.onChange),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		for _, cancel := range cancels {
			cancel()
		}
		return ErrClosed
	}
	m.cancels = append(m.cancels, cancels...)
	m.mu.Unlock()

	m.client.RegisterHandler(nvim.EventWinPos, m.onWinPos)
	m.client.RegisterHandler(nvim.EventWinClose, m.onWinClose)
	m.client.RegisterHandler(nvim.RequestOpenFile, m.onOpenFileRequest)
	m.client.RegisterHandler(nvim.RequestExternalBuffer, m.onExternalBufferRequest)

	return nil
}

// Close stops both debounced routines, unsubscribes from the host, and
// clears every identity map.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancels := m.cancels
	m.cancels = nil
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	m.layoutDeb.Cancel()
	m.activeDeb.Cancel()
	m.changes.clear()

	m.mu.Lock()
	m.maps.clear()
	m.prevVisible = nil
	m.mu.Unlock()
	return nil
}

// onDocumentClose drops the closed document's buffer mapping. The backend
// buffer self-destructs on becoming hidden; only the bookkeeping entry is
// removed here.
func (m *Manager) onDocumentClose(doc host.Document) {
	m.mu.Lock()
	m.maps.dropDocument(doc)
	m.mu.Unlock()
	m.changes.forget(doc)
	m.logger.Debug("document closed, mapping dropped: %s", doc.URI())
}

// BufferForDocument returns the backend buffer mapped to doc.
func (m *Manager) BufferForDocument(doc host.Document) (nvim.BufferID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.maps.bufByDoc[doc]
	return buf, ok
}

// DocumentForBuffer returns the open document mapped to buf.
func (m *Manager) DocumentForBuffer(buf nvim.BufferID) (host.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maps.documentForBuffer(buf)
}

// WindowForEditor returns the backend window an editor is mirrored into.
func (m *Manager) WindowForEditor(ed host.Editor) (nvim.WindowID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maps.windowForEditor(ed)
}

// EditorForWindow returns the host editor a backend window mirrors.
func (m *Manager) EditorForWindow(win nvim.WindowID) (host.Editor, bool) {
	visible := m.hostAPI.VisibleEditors()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maps.editorForWindow(win, visible)
}

// WindowForGrid returns the window a backend grid renders.
func (m *Manager) WindowForGrid(grid nvim.GridID) (nvim.WindowID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	win, ok := m.maps.winByGrid[grid]
	return win, ok
}

// GridForWindow returns the grid rendering a backend window.
func (m *Manager) GridForWindow(win nvim.WindowID) (nvim.GridID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.maps.gridByWin[win]
	return grid, ok
}

// EditorForGrid composes WindowForGrid and EditorForWindow.
func (m *Manager) EditorForGrid(grid nvim.GridID) (host.Editor, bool) {
	win, ok := m.WindowForGrid(grid)
	if !ok {
		return nil, false
	}
	return m.EditorForWindow(win)
}

// WaitLayoutSettled blocks until any in-flight or pending layout
// reconciliation has completed, or ctx is done.
func (m *Manager) WaitLayoutSettled(ctx context.Context) error {
	return m.layoutDeb.Wait(ctx)
}

// ForceResync re-invokes both debounced routines immediately, bypassing
// their debounce windows.
func (m *Manager) ForceResync() {
	m.layoutDeb.CallImmediate()
	m.activeDeb.CallImmediate()
}

// ApplyConfig applies a live configuration update and forces a resync so
// the mirrored state reconciles under the new settings. Debounce windows
// take effect for subsequent notifications and the viewport size for the
// next created window; identifier settings (marker variables, the
// undo-clear function) are fixed at construction.
func (m *Manager) ApplyConfig(cfg hostconfig.Config) {
	m.mu.Lock()
	m.cfg.viewportWidth = cfg.ViewportWidth
	m.cfg.viewportHeight = cfg.ViewportHeight
	m.mu.Unlock()

	m.layoutDeb.SetDelay(cfg.LayoutDebounce())
	m.activeDeb.SetDelay(cfg.ActiveDebounce())

	m.logger.Info("configuration reloaded, forcing resync")
	m.ForceResync()
}
