package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/marginalia/internal/ir"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession records a session over "hello world" with one comment.
func createTestSession(t *testing.T, s *Store, id string) SessionRecord {
	t.Helper()
	rec := SessionRecord{
		ID:  id,
		Doc: "hello world",
		Load: ir.InitialLoad{
			Version:  3,
			Comments: []ir.CommentSpan{{ID: "w", From: 6, To: 11, Text: "planet"}},
		},
	}
	if err := s.CreateSession(testContext(t), rec); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return rec
}

// testContext returns a context canceled when the test finishes
// (equivalent of testing.T.Context, which needs Go 1.24).
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
