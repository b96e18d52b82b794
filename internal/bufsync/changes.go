package bufsync

import (
	"context"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ian-h-chamberlain/vscode-neovim/internal/host"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/log"
	"github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"
)

// changeForwarder is the content-change listener armed by buffer
// initialization: it forwards host document edits to the mapped backend
// buffer as a single set-lines call covering the minimal changed line span.
//
// It keeps the last text it forwarded per document as the diff baseline.
// Content flowing the other way (backend edits into the host) is the
// content syncer's concern, not this forwarder's.
type changeForwarder struct {
	mu     sync.Mutex
	client nvim.Client
	logger *log.Logger
	dmp    *diffmatchpatch.DiffMatchPatch

	bufs  map[host.Document]nvim.BufferID
	texts map[host.Document]string
}

func newChangeForwarder(client nvim.Client, logger *log.Logger) *changeForwarder {
	return &changeForwarder{
		client: client,
		logger: logger.WithComponent("changes"),
		dmp:    diffmatchpatch.New(),
		bufs:   make(map[host.Document]nvim.BufferID),
		texts:  make(map[host.Document]string),
	}
}

// track arms forwarding for doc with the document's current text as the
// diff baseline.
func (f *changeForwarder) track(doc host.Document, buf nvim.BufferID) {
	f.trackWithBaseline(doc, buf, doc.Text())
}

// trackWithBaseline arms forwarding with an explicit baseline, used when
// the backend's buffer content is the authoritative starting point.
func (f *changeForwarder) trackWithBaseline(doc host.Document, buf nvim.BufferID, text string) {
	f.mu.Lock()
	f.bufs[doc] = buf
	f.texts[doc] = normalizeEOL(text)
	f.mu.Unlock()
}

// forget disarms forwarding for doc.
func (f *changeForwarder) forget(doc host.Document) {
	f.mu.Lock()
	delete(f.bufs, doc)
	delete(f.texts, doc)
	f.mu.Unlock()
}

// clear disarms forwarding for every document.
func (f *changeForwarder) clear() {
	f.mu.Lock()
	f.bufs = make(map[host.Document]nvim.BufferID)
	f.texts = make(map[host.Document]string)
	f.mu.Unlock()
}

// onChange forwards one document change to the backend.
func (f *changeForwarder) onChange(change host.DocumentChange) {
	doc := change.Document

	f.mu.Lock()
	buf, tracked := f.bufs[doc]
	oldText := f.texts[doc]
	if !tracked {
		f.mu.Unlock()
		return
	}
	newText := normalizeEOL(doc.Text())
	f.texts[doc] = newText
	f.mu.Unlock()

	if oldText == newText {
		return
	}

	span, changed := lineSpan(f.dmp, oldText, newText)
	if !changed {
		return
	}

	err := f.client.Call(context.Background(), nvim.MethodBufSetLines, nil,
		int64(buf), int64(span.start), int64(span.oldEnd), false, span.replacement)
	if err != nil {
		f.logger.Error("forwarding change to buffer %d (%s): %v", buf, doc.URI(), err)
		return
	}
	f.logger.Debug("buffer %d: replaced lines [%d,%d) with %d lines",
		buf, span.start, span.oldEnd, len(span.replacement))
}

// changedSpan describes a minimal line-range edit: replace old lines
// [start, oldEnd) with the replacement lines.
type changedSpan struct {
	start       int
	oldEnd      int
	replacement []string
}

// lineSpan computes the minimal changed line span between two texts using a
// line-mode diff. Both texts must already be EOL-normalized.
func lineSpan(dmp *diffmatchpatch.DiffMatchPatch, oldText, newText string) (changedSpan, bool) {
	// A trailing newline makes the final line diff identically to inner
	// lines, so edits near the end still produce a minimal span. The char
	// encoding produced by DiffLinesToChars is opaque (its token shape has
	// changed between library versions); DiffCharsToLines rehydrates the
	// runs to real text, where one "\n" equals one document line.
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText+"\n", newText+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	newLines := strings.Split(newText, "\n")
	oldLen := strings.Count(oldText, "\n") + 1
	newLen := len(newLines)

	prefix := 0
	if len(diffs) > 0 && diffs[0].Type == diffmatchpatch.DiffEqual {
		prefix = strings.Count(diffs[0].Text, "\n")
	}
	if prefix == oldLen && oldLen == newLen {
		return changedSpan{}, false
	}

	suffix := 0
	if last := len(diffs) - 1; last > 0 && diffs[last].Type == diffmatchpatch.DiffEqual {
		suffix = strings.Count(diffs[last].Text, "\n")
	}
	// Repeated lines can make prefix and suffix overlap; the prefix wins.
	if suffix > oldLen-prefix {
		suffix = oldLen - prefix
	}
	if suffix > newLen-prefix {
		suffix = newLen - prefix
	}

	return changedSpan{
		start:       prefix,
		oldEnd:      oldLen - suffix,
		replacement: newLines[prefix : newLen-suffix],
	}, true
}

func normalizeEOL(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
