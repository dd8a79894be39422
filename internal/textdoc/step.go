package textdoc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// ErrOutOfBounds is returned when a step addresses positions outside the
// document it is applied to.
var ErrOutOfBounds = errors.New("step out of bounds")

// Step is a single document mutation.
type Step interface {
	Apply(d Doc) (Doc, error)
	Map(pos int, assoc tracker.Assoc) int
	Canonical() ir.IRObject
}

// Insert represents a text insertion at Pos.
type Insert struct {
	Pos  int    `json:"pos" yaml:"pos"`
	Text string `json:"text" yaml:"text"`
}

func (s Insert) Apply(d Doc) (Doc, error) {
	if s.Pos < 0 || s.Pos > d.Len() {
		return d, fmt.Errorf("insert at %d in document of length %d: %w", s.Pos, d.Len(), ErrOutOfBounds)
	}
	ins := []rune(s.Text)
	out := make([]rune, 0, d.Len()+len(ins))
	out = append(out, d.text[:s.Pos]...)
	out = append(out, ins...)
	out = append(out, d.text[s.Pos:]...)
	return Doc{text: out}, nil
}

// Map shifts positions after the insertion point. A position exactly at the
// insertion point stays in front of the new text for AssocBefore.
func (s Insert) Map(pos int, assoc tracker.Assoc) int {
	n := len([]rune(s.Text))
	switch {
	case pos < s.Pos:
		return pos
	case pos > s.Pos:
		return pos + n
	case assoc == tracker.AssocBefore:
		return pos
	default:
		return pos + n
	}
}

func (s Insert) Canonical() ir.IRObject {
	return ir.IRObject{"insert": ir.IRObject{
		"pos":  ir.IRInt(s.Pos),
		"text": ir.IRString(s.Text),
	}}
}

// Delete removes the text in [From, To).
type Delete struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func (s Delete) Apply(d Doc) (Doc, error) {
	if s.From < 0 || s.From > s.To || s.To > d.Len() {
		return d, fmt.Errorf("delete [%d, %d) in document of length %d: %w", s.From, s.To, d.Len(), ErrOutOfBounds)
	}
	out := make([]rune, 0, d.Len()-(s.To-s.From))
	out = append(out, d.text[:s.From]...)
	out = append(out, d.text[s.To:]...)
	return Doc{text: out}, nil
}

// Map collapses positions inside the deleted range onto its start and
// shifts positions after it back.
func (s Delete) Map(pos int, _ tracker.Assoc) int {
	switch {
	case pos <= s.From:
		return pos
	case pos >= s.To:
		return pos - (s.To - s.From)
	default:
		return s.From
	}
}

func (s Delete) Canonical() ir.IRObject {
	return ir.IRObject{"delete": ir.IRObject{
		"from": ir.IRInt(s.From),
		"to":   ir.IRInt(s.To),
	}}
}

// StepSpec is the serialized form of a step. Exactly one field is set.
// Scenario files and journal records use it.
type StepSpec struct {
	Insert *Insert `json:"insert,omitempty" yaml:"insert,omitempty"`
	Delete *Delete `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// Step converts s into a Step.
func (s StepSpec) Step() (Step, error) {
	switch {
	case s.Insert != nil && s.Delete != nil:
		return nil, errors.New("step sets both insert and delete")
	case s.Insert != nil:
		return *s.Insert, nil
	case s.Delete != nil:
		return *s.Delete, nil
	default:
		return nil, errors.New("step sets neither insert nor delete")
	}
}

// SpecOf converts a Step back into its serialized form.
func SpecOf(s Step) StepSpec {
	switch v := s.(type) {
	case Insert:
		return StepSpec{Insert: &v}
	case Delete:
		return StepSpec{Delete: &v}
	default:
		panic(fmt.Sprintf("textdoc: unknown step type %T", s))
	}
}

// ParseSteps decodes a JSON array of step specs.
func ParseSteps(data []byte) ([]Step, error) {
	var specs []StepSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	return StepsFromSpecs(specs)
}

// StepsFromSpecs converts serialized steps, reporting the first bad index.
func StepsFromSpecs(specs []StepSpec) ([]Step, error) {
	steps := make([]Step, len(specs))
	for i, spec := range specs {
		st, err := spec.Step()
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		steps[i] = st
	}
	return steps, nil
}
