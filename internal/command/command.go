// Package command turns editor gestures into engine actions: adding a
// comment over the current selection, deleting one, and listing the
// comments under the cursor.
package command

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

// ErrEmptySelection is returned by AddAnnotation when the selection is a
// collapsed cursor.
var ErrEmptySelection = errors.New("selection is empty")

// Selection is the editor's current selection. From == To is a cursor.
type Selection struct {
	From int
	To   int
}

// Empty reports whether the selection covers no text.
func (s Selection) Empty() bool {
	return s.From == s.To
}

// normalized returns the selection with From <= To. Editors report a
// backwards drag with the anchor after the head.
func (s Selection) normalized() Selection {
	if s.From > s.To {
		return Selection{From: s.To, To: s.From}
	}
	return s
}

// Prompter asks the user for the comment text.
type Prompter interface {
	Prompt() (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func() (string, error)

func (f PrompterFunc) Prompt() (string, error) { return f() }

// IDGenerator allocates comment identifiers. Identifiers must not collide
// within a session.
type IDGenerator interface {
	Generate() ir.CommentID
}

// UUIDGenerator allocates UUIDv7 identifiers.
// UUIDv7 is time-sortable, which keeps journal listings in creation order.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() ir.CommentID {
	return ir.CommentID(uuid.Must(uuid.NewV7()).String())
}

// AddAnnotation builds a NewComment over sel. It returns ErrEmptySelection
// for a cursor and ok == false when the user enters no text, in which case
// nothing should be dispatched.
func AddAnnotation(sel Selection, p Prompter, ids IDGenerator) (engine.NewComment, bool, error) {
	if sel.Empty() {
		return engine.NewComment{}, false, ErrEmptySelection
	}
	text, err := p.Prompt()
	if err != nil {
		return engine.NewComment{}, false, fmt.Errorf("prompt for comment text: %w", err)
	}
	if text == "" {
		return engine.NewComment{}, false, nil
	}

	sel = sel.normalized()
	return engine.NewComment{
		From:    sel.From,
		To:      sel.To,
		Comment: ir.Comment{ID: ids.Generate(), Text: text},
	}, true, nil
}

// DeleteAnnotation builds the action removing c.
func DeleteAnnotation(c ir.Comment) engine.DeleteComment {
	return engine.DeleteComment{ID: c.ID}
}

// CommentsUnderCursor returns the comments touching a collapsed cursor.
// A non-empty selection shows nothing.
func CommentsUnderCursor(s engine.State, sel Selection) []ir.Comment {
	if !sel.Empty() {
		return nil
	}
	return engine.FindAt(s, sel.From)
}
