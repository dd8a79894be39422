package textdoc

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/tracker"
)

// Edit is an ordered list of steps. Each step addresses the document as
// left by the previous one. An Edit is the edit description handed to the
// tracker: its Map composes the step maps in order.
type Edit struct {
	Steps []Step
}

// NewEdit creates an edit from steps.
func NewEdit(steps ...Step) Edit {
	return Edit{Steps: steps}
}

// Apply runs every step against d and returns the resulting snapshot.
// The input snapshot is never modified.
func (e Edit) Apply(d Doc) (Doc, error) {
	cur := d
	for i, st := range e.Steps {
		next, err := st.Apply(cur)
		if err != nil {
			return d, fmt.Errorf("step %d: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}

// Map implements tracker.Mapping.
func (e Edit) Map(pos int, assoc tracker.Assoc) int {
	for _, st := range e.Steps {
		pos = st.Map(pos, assoc)
	}
	return pos
}

// Canonical returns the edit as an IR array of step objects.
func (e Edit) Canonical() ir.IRArray {
	arr := make(ir.IRArray, len(e.Steps))
	for i, st := range e.Steps {
		arr[i] = st.Canonical()
	}
	return arr
}

// Specs returns the serialized steps.
func (e Edit) Specs() []StepSpec {
	specs := make([]StepSpec, len(e.Steps))
	for i, st := range e.Steps {
		specs[i] = SpecOf(st)
	}
	return specs
}

func (e Edit) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Specs())
}

func (e *Edit) UnmarshalJSON(data []byte) error {
	steps, err := ParseSteps(data)
	if err != nil {
		return err
	}
	e.Steps = steps
	return nil
}
