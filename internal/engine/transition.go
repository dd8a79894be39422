package engine

import (
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// Transition applies a to s against the current document snapshot doc and
// returns the new state. It never fails and never modifies s.
func Transition(s State, a Action, doc tracker.Snapshot) State {
	return s.Apply(a, doc)
}

// Apply is the method form of Transition.
func (s State) Apply(a Action, doc tracker.Snapshot) State {
	switch act := a.(type) {
	case Transform:
		if act.Mapping == nil {
			return s
		}
		return State{
			version:  s.version,
			comments: s.comments.Map(act.Mapping, act.Doc),
			unsent:   s.unsent,
		}

	case NewComment:
		comments, err := s.comments.Add(doc, tracker.Interval{From: act.From, To: act.To, Comment: act.Comment})
		if err != nil {
			// Inverted span: nothing to show and nothing to send.
			return s
		}
		return State{
			version:  s.version,
			comments: comments,
			unsent:   s.enqueue(act),
		}

	case DeleteComment:
		// The delete is queued even when the comment is already gone, so a
		// delete racing a remote delete still reaches the authority.
		return State{
			version:  s.version,
			comments: removeByID(s.comments, act.ID),
			unsent:   s.enqueue(act),
		}

	case Receive:
		return s.receive(act.Batch, doc)

	case Ignored, nil:
		return s

	default:
		return s
	}
}

func removeByID(t tracker.Tracker, id ir.CommentID) tracker.Tracker {
	found, ok := t.Lookup(id)
	if !ok {
		return t
	}
	return t.Remove(found)
}
