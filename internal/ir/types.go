package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CommentID identifies an annotation. Clients pick identifiers that are
// collision resistant within a session; the authority never allocates them.
type CommentID string

// UnmarshalJSON accepts both string and integer identifiers. Older clients
// sent random 32-bit integers.
func (id *CommentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CommentID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("comment id must be a string or integer: %s", string(data))
	}
	*id = CommentID(strconv.FormatInt(n, 10))
	return nil
}

// Comment is an immutable annotation payload.
type Comment struct {
	ID   CommentID `json:"id"`
	Text string    `json:"text"`
}

// CommentSpan is a comment together with the span it is anchored to.
// Used by the initial load and by state snapshots.
type CommentSpan struct {
	ID   CommentID `json:"id"`
	From int       `json:"from"`
	To   int       `json:"to"`
	Text string    `json:"text"`
}

// Comment returns the payload part of the span.
func (c CommentSpan) Comment() Comment {
	return Comment{ID: c.ID, Text: c.Text}
}

// EventKind distinguishes the two authoritative event kinds.
type EventKind string

const (
	// EventCreate adds a comment anchored at [from, to].
	EventCreate EventKind = "create"
	// EventDelete removes a comment by identifier.
	EventDelete EventKind = "delete"
)

// Event is one entry of the authority's linear log, or one outbound event
// derived from a pending local action. Delete events carry only an ID.
type Event struct {
	Kind EventKind
	ID   CommentID
	From int
	To   int
	Text string
}

// CreateEvent builds a create event.
func CreateEvent(id CommentID, from, to int, text string) Event {
	return Event{Kind: EventCreate, ID: id, From: from, To: to, Text: text}
}

// DeleteEvent builds a delete event.
func DeleteEvent(id CommentID) Event {
	return Event{Kind: EventDelete, ID: id}
}

// MarshalJSON writes create events as {kind,id,from,to,text} and delete
// events as {kind,id}.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventCreate:
		return json.Marshal(struct {
			Kind EventKind `json:"kind"`
			ID   CommentID `json:"id"`
			From int       `json:"from"`
			To   int       `json:"to"`
			Text string    `json:"text"`
		}{e.Kind, e.ID, e.From, e.To, e.Text})
	case EventDelete:
		return json.Marshal(struct {
			Kind EventKind `json:"kind"`
			ID   CommentID `json:"id"`
		}{e.Kind, e.ID})
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// UnmarshalJSON decodes an event and rejects unknown kinds and creates
// without a span.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind EventKind `json:"kind"`
		ID   CommentID `json:"id"`
		From *int      `json:"from"`
		To   *int      `json:"to"`
		Text string    `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case EventCreate:
		if raw.From == nil || raw.To == nil {
			return fmt.Errorf("create event %q: from and to are required", raw.ID)
		}
		*e = CreateEvent(raw.ID, *raw.From, *raw.To, raw.Text)
	case EventDelete:
		*e = DeleteEvent(raw.ID)
	default:
		return fmt.Errorf("unknown event kind %q", raw.Kind)
	}
	return nil
}

// Canonical returns the event as an IRObject for canonical hashing.
func (e Event) Canonical() IRObject {
	obj := IRObject{
		"kind": IRString(e.Kind),
		"id":   IRString(e.ID),
	}
	if e.Kind == EventCreate {
		obj["from"] = IRInt(e.From)
		obj["to"] = IRInt(e.To)
		obj["text"] = IRString(e.Text)
	}
	return obj
}

// Request is the payload a client sends to the authority.
type Request struct {
	Version int64   `json:"version"`
	Events  []Event `json:"events"`
}

// Batch is what the authority returns: the log entries the client has not
// seen yet, the new version, and how many of this client's pending actions
// were incorporated.
type Batch struct {
	Version   int64   `json:"version"`
	Events    []Event `json:"events"`
	SentCount int     `json:"sentCount"`
}

// InitialLoad is the comment state handed to a client at session start.
type InitialLoad struct {
	Version  int64         `json:"version"`
	Comments []CommentSpan `json:"comments"`
}
