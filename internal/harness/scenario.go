package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
)

// Scenario is one end-to-end annotation session.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the session id
	// and the golden file name.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Doc is the initial document text.
	Doc string `yaml:"doc" json:"doc"`

	// Version and Comments form the initial load.
	Version  int64         `yaml:"version" json:"version"`
	Comments []CommentSpec `yaml:"comments,omitempty" json:"comments,omitempty"`

	// Steps run in order. Each is applied before the next is read.
	Steps []Step `yaml:"steps" json:"steps"`

	Expect Expect `yaml:"expect" json:"expect"`
}

// CommentSpec is a comment anchored to [from, to].
type CommentSpec struct {
	ID   string `yaml:"id" json:"id"`
	From int    `yaml:"from" json:"from"`
	To   int    `yaml:"to" json:"to"`
	Text string `yaml:"text" json:"text"`
}

// Span converts c to its wire form.
func (c CommentSpec) Span() ir.CommentSpan {
	return ir.CommentSpan{ID: ir.CommentID(c.ID), From: c.From, To: c.To, Text: c.Text}
}

// Step is one input to the session. Exactly one field is set.
type Step struct {
	NewComment    *CommentSpec       `yaml:"new_comment,omitempty" json:"new_comment,omitempty"`
	DeleteComment *DeleteSpec        `yaml:"delete_comment,omitempty" json:"delete_comment,omitempty"`
	Edit          []textdoc.StepSpec `yaml:"edit,omitempty" json:"edit,omitempty"`
	Receive       *BatchSpec         `yaml:"receive,omitempty" json:"receive,omitempty"`
}

// DeleteSpec names the comment to delete.
type DeleteSpec struct {
	ID string `yaml:"id" json:"id"`
}

// BatchSpec is an authority batch.
type BatchSpec struct {
	Version   int64       `yaml:"version" json:"version"`
	Events    []EventSpec `yaml:"events,omitempty" json:"events,omitempty"`
	SentCount int         `yaml:"sent_count" json:"sent_count"`
}

// EventSpec is a create or delete event.
type EventSpec struct {
	Kind string `yaml:"kind" json:"kind"`
	ID   string `yaml:"id" json:"id"`
	From int    `yaml:"from,omitempty" json:"from,omitempty"`
	To   int    `yaml:"to,omitempty" json:"to,omitempty"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

// Event converts e to its wire form.
func (e EventSpec) Event() ir.Event {
	if ir.EventKind(e.Kind) == ir.EventDelete {
		return ir.DeleteEvent(ir.CommentID(e.ID))
	}
	return ir.CreateEvent(ir.CommentID(e.ID), e.From, e.To, e.Text)
}

// Batch converts b to its wire form.
func (b BatchSpec) Batch() ir.Batch {
	events := make([]ir.Event, len(b.Events))
	for i, ev := range b.Events {
		events[i] = ev.Event()
	}
	return ir.Batch{Version: b.Version, Events: events, SentCount: b.SentCount}
}

// Expect describes the final state. Nil fields are not checked.
type Expect struct {
	Version    *int64           `yaml:"version,omitempty" json:"version,omitempty"`
	Doc        *string          `yaml:"doc,omitempty" json:"doc,omitempty"`
	Comments   *[]CommentSpec   `yaml:"comments,omitempty" json:"comments,omitempty"`
	Unsent     *[]EventSpec     `yaml:"unsent,omitempty" json:"unsent,omitempty"`
	CommentsAt []CommentsAtSpec `yaml:"comments_at,omitempty" json:"comments_at,omitempty"`
}

// CommentsAtSpec lists the comment ids expected at a position.
type CommentsAtSpec struct {
	Pos int      `yaml:"pos" json:"pos"`
	IDs []string `yaml:"ids" json:"ids"`
}

// LoadScenario reads a scenario file. Files ending in .cue are evaluated
// with CUE; everything else is parsed as YAML.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		scenario, err = ParseCUE(data)
	} else {
		scenario, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseYAML parses and validates a YAML scenario.
func ParseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ParseCUE evaluates a CUE scenario and decodes it.
func ParseCUE(data []byte) (*Scenario, error) {
	v := cuecontext.New().CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate CUE: %w", err)
	}

	var scenario Scenario
	if err := v.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, c := range s.Comments {
		if err := validateComment(c); err != nil {
			return fmt.Errorf("comments[%d]: %w", i, err)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	if s.Expect.Unsent != nil {
		for i, ev := range *s.Expect.Unsent {
			if err := validateEvent(ev); err != nil {
				return fmt.Errorf("expect.unsent[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func validateComment(c CommentSpec) error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.From < 0 || c.From > c.To {
		return fmt.Errorf("span [%d, %d] is invalid", c.From, c.To)
	}
	return nil
}

func validateStep(s Step) error {
	set := 0
	if s.NewComment != nil {
		set++
		if s.NewComment.ID == "" {
			return fmt.Errorf("new_comment: id is required")
		}
	}
	if s.DeleteComment != nil {
		set++
		if s.DeleteComment.ID == "" {
			return fmt.Errorf("delete_comment: id is required")
		}
	}
	if s.Edit != nil {
		set++
		if _, err := textdoc.StepsFromSpecs(s.Edit); err != nil {
			return fmt.Errorf("edit: %w", err)
		}
	}
	if s.Receive != nil {
		set++
		for i, ev := range s.Receive.Events {
			if err := validateEvent(ev); err != nil {
				return fmt.Errorf("receive.events[%d]: %w", i, err)
			}
		}
	}

	if set != 1 {
		return fmt.Errorf("exactly one of new_comment, delete_comment, edit, receive is required (got %d)", set)
	}
	return nil
}

func validateEvent(ev EventSpec) error {
	if ev.ID == "" {
		return fmt.Errorf("id is required")
	}
	switch ir.EventKind(ev.Kind) {
	case ir.EventCreate, ir.EventDelete:
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
