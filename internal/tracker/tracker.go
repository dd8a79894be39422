// Package tracker keeps comment spans anchored to a document that keeps
// changing underneath them.
//
// A Tracker is an immutable, ordered set of intervals. Every operation
// returns a new Tracker; the receiver is never modified, so old values can
// be held by readers while a new one is computed.
//
// Positions only mean something relative to one document snapshot. When the
// editor produces a new snapshot it also produces a Mapping, and Map must be
// applied before any position-dependent operation is trusted.
package tracker

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/marginalia/internal/ir"
)

// ErrInvertedSpan is returned by Add when an interval has From > To.
var ErrInvertedSpan = errors.New("interval from is after to")

// Snapshot is a document version owned by the editor. The tracker passes it
// through untouched to record which document its positions refer to.
type Snapshot any

// Assoc picks a side when content is inserted exactly at a position.
type Assoc int

const (
	// AssocBefore keeps the position in front of inserted content.
	AssocBefore Assoc = -1
	// AssocAfter moves the position past inserted content.
	AssocAfter Assoc = 1
)

// Mapping translates positions in the old snapshot to positions in the new
// one. It is supplied by the editor with every edit.
type Mapping interface {
	Map(pos int, assoc Assoc) int
}

// Interval is a comment anchored to [From, To].
type Interval struct {
	From    int
	To      int
	Comment ir.Comment
}

// Span returns the interval in wire form.
func (i Interval) Span() ir.CommentSpan {
	return ir.CommentSpan{ID: i.Comment.ID, From: i.From, To: i.To, Text: i.Comment.Text}
}

// Tracker is an immutable set of intervals with at most one live interval
// per comment identifier. The zero value is an empty tracker.
type Tracker struct {
	doc       Snapshot
	intervals []Interval // sorted by (From, To, ID)
	byID      map[ir.CommentID]int
}

// New creates a tracker anchored to doc holding the given intervals.
// Later intervals replace earlier ones with the same identifier.
func New(doc Snapshot, intervals ...Interval) (Tracker, error) {
	return Tracker{}.Add(doc, intervals...)
}

func build(doc Snapshot, intervals []Interval) Tracker {
	slices.SortFunc(intervals, compareIntervals)
	byID := make(map[ir.CommentID]int, len(intervals))
	for i, iv := range intervals {
		byID[iv.Comment.ID] = i
	}
	return Tracker{doc: doc, intervals: intervals, byID: byID}
}

func compareIntervals(a, b Interval) int {
	if a.From != b.From {
		return a.From - b.From
	}
	if a.To != b.To {
		return a.To - b.To
	}
	switch {
	case a.Comment.ID < b.Comment.ID:
		return -1
	case a.Comment.ID > b.Comment.ID:
		return 1
	}
	return 0
}

// Doc returns the snapshot the tracker's positions refer to.
func (t Tracker) Doc() Snapshot {
	return t.doc
}

// Len returns the number of live intervals.
func (t Tracker) Len() int {
	return len(t.intervals)
}

// Add returns a tracker with the intervals inserted and anchored to doc.
// An interval whose identifier is already live replaces the old one, so the
// last create for an identifier wins. Nothing is added if any interval is
// inverted.
func (t Tracker) Add(doc Snapshot, intervals ...Interval) (Tracker, error) {
	for _, iv := range intervals {
		if iv.From > iv.To {
			return t, fmt.Errorf("add %q [%d, %d]: %w", iv.Comment.ID, iv.From, iv.To, ErrInvertedSpan)
		}
	}

	replaced := make(map[ir.CommentID]bool, len(intervals))
	for _, iv := range intervals {
		replaced[iv.Comment.ID] = true
	}

	next := make([]Interval, 0, len(t.intervals)+len(intervals))
	for _, iv := range t.intervals {
		if !replaced[iv.Comment.ID] {
			next = append(next, iv)
		}
	}
	// Only the last interval per identifier in this call survives.
	for i, iv := range intervals {
		if lastIndexOf(intervals, iv.Comment.ID) == i {
			next = append(next, iv)
		}
	}
	return build(doc, next), nil
}

func lastIndexOf(intervals []Interval, id ir.CommentID) int {
	for i := len(intervals) - 1; i >= 0; i-- {
		if intervals[i].Comment.ID == id {
			return i
		}
	}
	return -1
}

// Remove returns a tracker without the given intervals. Removal is by
// identity: From, To and Comment must all match. Intervals that are not
// present are skipped, since concurrent deletes may race.
func (t Tracker) Remove(intervals ...Interval) Tracker {
	next := make([]Interval, 0, len(t.intervals))
	for _, iv := range t.intervals {
		if !slices.Contains(intervals, iv) {
			next = append(next, iv)
		}
	}
	if len(next) == len(t.intervals) {
		return t
	}
	return build(t.doc, next)
}

// Map translates every interval through m and anchors the result to doc.
//
// A non-empty span maps its start after and its end before content inserted
// at its boundaries, so it never grows to swallow neighbouring inserts. If
// its whole content was deleted the mapped start reaches the mapped end and
// the interval is dropped. A zero-width interval is a point anchor: it maps
// with AssocBefore and always survives.
func (t Tracker) Map(m Mapping, doc Snapshot) Tracker {
	next := make([]Interval, 0, len(t.intervals))
	for _, iv := range t.intervals {
		if iv.From == iv.To {
			p := m.Map(iv.From, AssocBefore)
			next = append(next, Interval{From: p, To: p, Comment: iv.Comment})
			continue
		}
		from := m.Map(iv.From, AssocAfter)
		to := m.Map(iv.To, AssocBefore)
		if from >= to {
			continue
		}
		next = append(next, Interval{From: from, To: to, Comment: iv.Comment})
	}
	return build(doc, next)
}

// Find returns the intervals intersecting [from, to], boundaries included.
func (t Tracker) Find(from, to int) []Interval {
	var found []Interval
	for _, iv := range t.intervals {
		if iv.From > to {
			break
		}
		if iv.To >= from {
			found = append(found, iv)
		}
	}
	return found
}

// All returns every live interval in (From, To, ID) order.
func (t Tracker) All() []Interval {
	return slices.Clone(t.intervals)
}

// Lookup returns the live interval for id.
func (t Tracker) Lookup(id ir.CommentID) (Interval, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Interval{}, false
	}
	return t.intervals[i], true
}
