// Package host defines the boundary to the graphical host editor: document
// and editor handles, the command/query surface the synchronization core
// calls back into, and the push notifications the host delivers.
//
// Handles are identity keys. The host owns them; the core only stores them
// in its maps and must drop entries when the host reports closure.
package host

import "context"

// ColumnID identifies a layout column: the host's grouping for a
// side-by-side editor pane. System panes (peek and diff views) have none.
type ColumnID int

// Position is a zero-based (line, character) host cursor position.
type Position struct {
	Line      int
	Character int
}

// EditorOptions carries per-editor formatting settings.
type EditorOptions struct {
	InsertSpaces bool
	TabSize      int
}

// Document is an open text document in the host editor. A document is stable
// while open; many editors may show the same document.
type Document interface {
	// URI returns the document's canonical URI string.
	URI() string
	// EOL returns the document's line-ending convention ("\n" or "\r\n").
	EOL() string
	// Text returns the full document content.
	Text() string
	// IsClosed reports whether the host has closed the document.
	IsClosed() bool
}

// Editor is a visible pane showing a document.
type Editor interface {
	Document() Document
	// Column returns the editor's layout column. ok is false for system
	// panes, which do not participate in column layout.
	Column() (ColumnID, bool)
	Options() EditorOptions
	Cursor() Position
}

// ShowOptions controls how a document is revealed.
type ShowOptions struct {
	// Column to show the document in. Zero means the active column.
	Column ColumnID
	// Preview shows the document in a preview tab.
	Preview bool
	// PreserveFocus keeps focus on the current editor.
	PreserveFocus bool
}

// DocumentChange reports that a document's content changed.
type DocumentChange struct {
	Document Document
}

// API is the host editor command/query surface.
//
// The notification registrations deliver callbacks from the host's event
// loop; the host issues them without awaiting their consequences, so
// handlers must tolerate observing layouts newer than the notification that
// triggered them.
type API interface {
	// VisibleEditors returns the currently visible editors. Order carries
	// no meaning.
	VisibleEditors() []Editor
	// ActiveEditor returns the focused editor, if any.
	ActiveEditor() (Editor, bool)

	// OpenDocument opens the named document, or creates a new untitled one
	// when name is empty.
	OpenDocument(ctx context.Context, name string) (Document, error)
	// ShowDocument reveals doc in an editor per opts.
	ShowDocument(ctx context.Context, doc Document, opts ShowOptions) (Editor, error)
	// CloseActiveEditor closes the focused editor.
	CloseActiveEditor(ctx context.Context) error
	// CloseOtherEditors closes every editor except the focused one.
	CloseOtherEditors(ctx context.Context) error

	// OnLayoutChange registers for visible-editor-set changes.
	OnLayoutChange(fn func()) (cancel func())
	// OnActiveEditorChange registers for focus changes.
	OnActiveEditorChange(fn func()) (cancel func())
	// OnDocumentClose registers for document closure.
	OnDocumentClose(fn func(Document)) (cancel func())
	// OnDocumentChange registers for document content changes.
	OnDocumentChange(fn func(DocumentChange)) (cancel func())
}
