package engine

import "github.com/roach88/marginalia/internal/ir"

// Canonical returns the state as an IR object: the version, every live
// comment with its span, and the outbound projection of the unsent queue.
// The document snapshot is not part of it.
func Canonical(s State) ir.IRObject {
	spans := s.Comments()
	comments := make(ir.IRArray, len(spans))
	for i, c := range spans {
		comments[i] = ir.IRObject{
			"id":   ir.IRString(c.ID),
			"from": ir.IRInt(c.From),
			"to":   ir.IRInt(c.To),
			"text": ir.IRString(c.Text),
		}
	}

	events := UnsentEvents(s)
	unsent := make(ir.IRArray, len(events))
	for i, ev := range events {
		unsent[i] = ev.Canonical()
	}

	return ir.IRObject{
		"version":  ir.IRInt(s.version),
		"comments": comments,
		"unsent":   unsent,
		"pending":  ir.IRInt(len(s.unsent)),
	}
}

// StateHash content-addresses a state. Two states with the same hash render
// the same comments and owe the authority the same events.
func StateHash(s State) string {
	return ir.MustHash(ir.DomainState, Canonical(s))
}
