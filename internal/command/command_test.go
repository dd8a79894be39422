package command_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/command"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/testutil"
	"github.com/roach88/marginalia/internal/textdoc"
)

func text(s string) command.Prompter {
	return command.PrompterFunc(func() (string, error) { return s, nil })
}

func TestAddAnnotation(t *testing.T) {
	ids := testutil.NewSequentialIDs("c")

	nc, ok, err := command.AddAnnotation(command.Selection{From: 2, To: 7}, text("look here"), ids)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, engine.NewComment{From: 2, To: 7, Comment: ir.Comment{ID: "c-1", Text: "look here"}}, nc)

	nc, ok, err = command.AddAnnotation(command.Selection{From: 9, To: 3}, text("backwards"), ids)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, nc.From)
	assert.Equal(t, 9, nc.To)
	assert.Equal(t, ir.CommentID("c-2"), nc.Comment.ID)
}

func TestAddAnnotationEmptySelection(t *testing.T) {
	prompted := false
	p := command.PrompterFunc(func() (string, error) {
		prompted = true
		return "x", nil
	})

	_, ok, err := command.AddAnnotation(command.Selection{From: 4, To: 4}, p, testutil.NewSequentialIDs("c"))
	require.ErrorIs(t, err, command.ErrEmptySelection)
	assert.False(t, ok)
	assert.False(t, prompted, "the user is not asked for text")
}

func TestAddAnnotationCancelled(t *testing.T) {
	ids := testutil.NewSequentialIDs("c")
	_, ok, err := command.AddAnnotation(command.Selection{From: 0, To: 1}, text(""), ids)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ir.CommentID("c-1"), ids.Generate(), "no identifier is spent")
}

func TestAddAnnotationPromptError(t *testing.T) {
	boom := errors.New("closed")
	p := command.PrompterFunc(func() (string, error) { return "", boom })

	_, ok, err := command.AddAnnotation(command.Selection{From: 0, To: 1}, p, testutil.NewSequentialIDs("c"))
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestDeleteAnnotation(t *testing.T) {
	assert.Equal(t, engine.DeleteComment{ID: "k"}, command.DeleteAnnotation(ir.Comment{ID: "k", Text: "bye"}))
}

func TestCommentsUnderCursor(t *testing.T) {
	doc := textdoc.New("alpha beta")
	s := engine.Init(ir.InitialLoad{Comments: []ir.CommentSpan{
		{ID: "a", From: 0, To: 5, Text: "first"},
		{ID: "b", From: 6, To: 10, Text: "second"},
	}}, doc)

	assert.Equal(t, []ir.Comment{{ID: "b", Text: "second"}}, command.CommentsUnderCursor(s, command.Selection{From: 7, To: 7}))
	assert.Nil(t, command.CommentsUnderCursor(s, command.Selection{From: 0, To: 7}))
}

func TestUUIDGenerator(t *testing.T) {
	var g command.UUIDGenerator
	a, b := g.Generate(), g.Generate()

	assert.NotEqual(t, a, b)
	parsed, err := uuid.Parse(string(a))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Less(t, string(a), string(b), "v7 identifiers sort by creation time")
}
