package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
)

// AssertionError is a failed expectation with enough context to debug it.
type AssertionError struct {
	Field    string // expect field, e.g. "comments" or "comments_at[1]"
	Expected string
	Actual   string
	Diff     string // go-cmp diff (-expected +actual), if computed
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expect.%s failed\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-expected +actual):\n%s", e.Diff)
	}
	return buf.String()
}

// EvaluateExpect checks the final state against exp and returns one
// message per failed field.
func EvaluateExpect(exp Expect, s engine.State, doc textdoc.Doc) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if exp.Version != nil && *exp.Version != s.Version() {
		add(&AssertionError{
			Field:    "version",
			Expected: fmt.Sprint(*exp.Version),
			Actual:   fmt.Sprint(s.Version()),
		})
	}
	if exp.Doc != nil && *exp.Doc != doc.String() {
		add(&AssertionError{
			Field:    "doc",
			Expected: fmt.Sprintf("%q", *exp.Doc),
			Actual:   fmt.Sprintf("%q", doc.String()),
		})
	}
	if exp.Comments != nil {
		add(assertComments(*exp.Comments, s))
	}
	if exp.Unsent != nil {
		add(assertUnsent(*exp.Unsent, s))
	}
	for i, at := range exp.CommentsAt {
		add(assertCommentsAt(i, at, s))
	}
	return errs
}

// assertComments compares the live comments as a set.
func assertComments(want []CommentSpec, s engine.State) error {
	expected := make([]ir.CommentSpan, len(want))
	for i, c := range want {
		expected[i] = c.Span()
	}
	actual := s.Comments()

	less := func(a, b ir.CommentSpan) bool { return a.ID < b.ID }
	diff := cmp.Diff(expected, actual, cmpopts.SortSlices(less), cmpopts.EquateEmpty())
	if diff == "" {
		return nil
	}
	return &AssertionError{
		Field:    "comments",
		Expected: fmt.Sprintf("%d comments", len(expected)),
		Actual:   fmt.Sprintf("%d comments", len(actual)),
		Diff:     diff,
	}
}

// assertUnsent compares the outbound projection in order.
func assertUnsent(want []EventSpec, s engine.State) error {
	expected := make([]ir.Event, len(want))
	for i, ev := range want {
		expected[i] = ev.Event()
	}
	actual := engine.UnsentEvents(s)

	diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty())
	if diff == "" {
		return nil
	}
	return &AssertionError{
		Field:    "unsent",
		Expected: fmt.Sprintf("%d events", len(expected)),
		Actual:   fmt.Sprintf("%d events", len(actual)),
		Diff:     diff,
	}
}

// assertCommentsAt compares the identifiers found at a position as a set.
func assertCommentsAt(i int, at CommentsAtSpec, s engine.State) error {
	var actual []string
	for _, c := range engine.FindAt(s, at.Pos) {
		actual = append(actual, string(c.ID))
	}
	expected := slices.Clone(at.IDs)
	slices.Sort(expected)
	slices.Sort(actual)

	if slices.Equal(expected, actual) {
		return nil
	}
	return &AssertionError{
		Field:    fmt.Sprintf("comments_at[%d]", i),
		Expected: fmt.Sprintf("ids %v at %d", expected, at.Pos),
		Actual:   fmt.Sprintf("ids %v", actual),
	}
}
