// Package editor defines the boundary to the host editing surface. The core
// never drives the surface's own lifecycle; it consumes a View to read
// selections and buffer text, to apply results, and to notify the user.
package editor

// Region is a half-open [Begin, End) span of byte offsets within a buffer.
type Region struct {
	Begin int
	End   int
}

// Empty reports whether the region covers no text.
func (r Region) Empty() bool { return r.End <= r.Begin }

// Len returns the number of bytes the region covers.
func (r Region) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Begin
}

// Level classifies a user notification.
type Level int

const (
	// LevelStatus is a transient, non-blocking status message.
	LevelStatus Level = iota
	// LevelError is a user-visible failure notice. Still non-blocking; the
	// host decides how prominently to show it.
	LevelError
)

// View is the host editing surface for one buffer. Implementations are owned
// by the host; the core only calls into them from the dispatching goroutine
// or from result application.
type View interface {
	// ID identifies the buffer for in-flight request bookkeeping.
	ID() string

	// FileName returns the path of the file being edited, or "" for an
	// unsaved buffer.
	FileName() string

	// Syntax returns the buffer's syntax/language name, or "" when unknown.
	Syntax() string

	// Selection returns the current selection region. An empty region means
	// no selection (caret only); Begin is then the caret position.
	Selection() Region

	// Substr returns the buffer text covered by the region.
	Substr(r Region) string

	// BufferText returns the entire buffer content.
	BufferText() string

	// Replace substitutes the region's text with the given text.
	Replace(r Region, text string)

	// InsertAt inserts text at the given byte offset.
	InsertAt(pos int, text string)

	// Notify surfaces a transient message to the user.
	Notify(message string, level Level)
}

// ResultSink receives documents the host should present outside the edited
// buffer, such as the instruct results view. Hosts without a secondary
// surface may discard them.
type ResultSink interface {
	ShowDocument(title, markdown string)
}
