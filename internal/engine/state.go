package engine

import (
	"slices"

	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// State is an immutable annotation state. The zero value is version 0 with
// no comments and nothing pending.
type State struct {
	version  int64
	comments tracker.Tracker
	unsent   []Pending
}

// Init builds the starting state from the authority's initial load.
// Comments with inverted spans are skipped.
func Init(load ir.InitialLoad, doc tracker.Snapshot) State {
	intervals := make([]tracker.Interval, 0, len(load.Comments))
	for _, c := range load.Comments {
		if c.From > c.To {
			continue
		}
		intervals = append(intervals, tracker.Interval{From: c.From, To: c.To, Comment: c.Comment()})
	}
	comments, _ := tracker.New(doc, intervals...)
	return State{version: load.Version, comments: comments}
}

// Version returns the last authority version merged into the state.
func (s State) Version() int64 {
	return s.version
}

// Tracker returns the live comment spans.
func (s State) Tracker() tracker.Tracker {
	return s.comments
}

// Unsent returns a copy of the unacknowledged local actions, oldest first.
func (s State) Unsent() []Pending {
	return slices.Clone(s.unsent)
}

// Comments returns every live comment with its current span.
func (s State) Comments() []ir.CommentSpan {
	all := s.comments.All()
	spans := make([]ir.CommentSpan, len(all))
	for i, iv := range all {
		spans[i] = iv.Span()
	}
	return spans
}

// enqueue returns a copy of the unsent queue with p appended. The full slice
// expression forces a new backing array so earlier states never see p.
func (s State) enqueue(p Pending) []Pending {
	return append(s.unsent[:len(s.unsent):len(s.unsent)], p)
}
