package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/marginalia/internal/ir"
)

// SequentialIDs generates comment identifiers "<prefix>-1", "<prefix>-2", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same prefix produces byte-identical journals.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "c".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "c"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next identifier.
//
// Implements command.IDGenerator.
func (g *SequentialIDs) Generate() ir.CommentID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return ir.CommentID(fmt.Sprintf("%s-%d", g.prefix, g.n))
}
