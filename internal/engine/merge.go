package engine

import (
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// receive folds an authority batch into the state. Events are applied in
// order against the running result, so a create followed by a delete of the
// same id inside one batch leaves it absent.
func (s State) receive(b ir.Batch, doc tracker.Snapshot) State {
	comments := s.comments
	for _, ev := range b.Events {
		switch ev.Kind {
		case ir.EventDelete:
			comments = removeByID(comments, ev.ID)
		case ir.EventCreate:
			if _, live := comments.Lookup(ev.ID); live {
				continue
			}
			next, err := comments.Add(doc, tracker.Interval{
				From:    ev.From,
				To:      ev.To,
				Comment: ir.Comment{ID: ev.ID, Text: ev.Text},
			})
			if err == nil {
				comments = next
			}
		}
	}

	return State{
		version:  b.Version,
		comments: comments,
		unsent:   trimUnsent(s.unsent, b.SentCount),
	}
}

// trimUnsent drops the first n entries, clamping n to the queue length.
func trimUnsent(q []Pending, n int) []Pending {
	n = max(0, min(n, len(q)))
	if n == len(q) {
		return nil
	}
	return q[n:]
}
