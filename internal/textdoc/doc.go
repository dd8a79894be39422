// Package textdoc is a plain-text document model: immutable snapshots and
// edits built from insert and delete steps. Edits satisfy tracker.Mapping,
// which makes this package the editor collaborator used by the session,
// the harness and the CLI.
//
// Positions count runes, not bytes.
package textdoc

// Doc is an immutable text snapshot.
type Doc struct {
	text []rune
}

// New creates a snapshot holding s.
func New(s string) Doc {
	return Doc{text: []rune(s)}
}

// Len returns the number of positions in the document.
func (d Doc) Len() int {
	return len(d.text)
}

// String returns the document text.
func (d Doc) String() string {
	return string(d.text)
}

// Slice returns the text between two positions, clamped to the document.
func (d Doc) Slice(from, to int) string {
	from = max(0, min(from, len(d.text)))
	to = max(from, min(to, len(d.text)))
	return string(d.text[from:to])
}
