package engine

import (
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// Action is a sealed sum type over the inputs Transition accepts:
// Transform, NewComment, DeleteComment, Receive and Ignored.
type Action interface {
	Kind() ActionKind
	action()
}

// Pending is a local action waiting in the unsent queue.
// Only NewComment and DeleteComment implement it.
type Pending interface {
	Action
	pending()
}

// ActionKind names an action variant. The values double as journal record
// kinds.
type ActionKind string

const (
	KindTransform     ActionKind = "transform"
	KindNewComment    ActionKind = "newComment"
	KindDeleteComment ActionKind = "deleteComment"
	KindReceive       ActionKind = "receive"
)

// Transform remaps every span through a document edit.
type Transform struct {
	Mapping tracker.Mapping
	Doc     tracker.Snapshot // snapshot after the edit
}

// NewComment optimistically adds a comment over [From, To].
type NewComment struct {
	From    int
	To      int
	Comment ir.Comment
}

// DeleteComment removes the comment with the given identifier.
type DeleteComment struct {
	ID ir.CommentID
}

// Receive merges a batch from the authority.
type Receive struct {
	Batch ir.Batch
}

// Ignored stands in for an action the host did not recognise, for example
// an unknown kind from a newer peer. Transition leaves the state unchanged.
type Ignored struct {
	Name string
}

func (Transform) Kind() ActionKind     { return KindTransform }
func (NewComment) Kind() ActionKind    { return KindNewComment }
func (DeleteComment) Kind() ActionKind { return KindDeleteComment }
func (Receive) Kind() ActionKind       { return KindReceive }
func (a Ignored) Kind() ActionKind     { return ActionKind(a.Name) }

func (Transform) action()     {}
func (NewComment) action()    {}
func (DeleteComment) action() {}
func (Receive) action()       {}
func (Ignored) action()       {}

func (NewComment) pending()    {}
func (DeleteComment) pending() {}
