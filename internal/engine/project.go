package engine

import (
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// UnsentEvents projects the unsent queue into wire events.
//
// A pending NewComment becomes a create carrying the comment's current span,
// not the span it was created with, and is omitted when the comment is no
// longer live. A pending DeleteComment always becomes a delete. The result
// is derived from s on every call, so a resend after a dropped connection
// carries exactly what is still owed.
func UnsentEvents(s State) []ir.Event {
	events := make([]ir.Event, 0, len(s.unsent))
	for _, p := range s.unsent {
		switch act := p.(type) {
		case NewComment:
			found, ok := s.comments.Lookup(act.Comment.ID)
			if !ok {
				continue
			}
			events = append(events, ir.CreateEvent(act.Comment.ID, found.From, found.To, act.Comment.Text))
		case DeleteComment:
			events = append(events, ir.DeleteEvent(act.ID))
		}
	}
	return events
}

// Request builds the payload sent to the authority.
func Request(s State) ir.Request {
	return ir.Request{Version: s.version, Events: UnsentEvents(s)}
}

// FindAt returns the comments whose spans touch pos.
func FindAt(s State, pos int) []ir.Comment {
	found := s.comments.Find(pos, pos)
	if len(found) == 0 {
		return nil
	}
	out := make([]ir.Comment, len(found))
	for i, iv := range found {
		out[i] = iv.Comment
	}
	return out
}

// FindComment returns the live interval for id.
func FindComment(s State, id ir.CommentID) (tracker.Interval, bool) {
	return s.comments.Lookup(id)
}
