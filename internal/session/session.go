package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/textdoc"
)

// ErrClosed is returned when an action is submitted after Stop.
var ErrClosed = errors.New("session closed")

// Transport carries a request to the authority and returns its batch.
// Implementations own retries and framing; the session only needs one
// round trip.
type Transport interface {
	Send(ctx context.Context, req ir.Request) (ir.Batch, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req ir.Request) (ir.Batch, error)

func (f TransportFunc) Send(ctx context.Context, req ir.Request) (ir.Batch, error) {
	return f(ctx, req)
}

// Journal records every applied action together with the hash of the state
// it produced. Implemented by store.Journal.
type Journal interface {
	Record(ctx context.Context, seq int64, a engine.Action, stateHash string) error
}

// Session is the single owner of one document's annotation state.
type Session struct {
	id      string
	clock   *Clock
	queue   *actionQueue
	journal Journal
	logger  *slog.Logger

	headMu sync.Mutex
	head   textdoc.Doc // latest edited snapshot, ahead of doc while transforms are queued

	mu    sync.RWMutex
	state engine.State
	doc   textdoc.Doc // snapshot the state's positions refer to
}

// Option configures a Session.
type Option func(*Session)

// WithJournal records applied actions to j.
func WithJournal(j Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// WithClock numbers actions from c instead of a fresh clock.
func WithClock(c *Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates a session over doc from the authority's initial load.
// An empty id is replaced with a UUIDv7.
func New(id string, load ir.InitialLoad, doc textdoc.Doc, opts ...Option) *Session {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	s := &Session{
		id:     id,
		clock:  NewClock(),
		queue:  newActionQueue(),
		logger: slog.Default(),
		head:   doc,
		state:  engine.Init(load, doc),
		doc:    doc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state. The value is immutable and stays valid
// after later actions are applied.
func (s *Session) State() engine.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Doc returns the snapshot the current state refers to.
func (s *Session) Doc() textdoc.Doc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Pending returns the number of queued, not yet applied actions.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Enqueue submits an action. Returns false after Stop.
func (s *Session) Enqueue(a engine.Action) bool {
	return s.queue.Enqueue(a)
}

// Edit applies e to the latest document snapshot and queues the matching
// Transform. Actions queued afterwards see the edited document.
func (s *Session) Edit(e textdoc.Edit) (textdoc.Doc, error) {
	s.headMu.Lock()
	defer s.headMu.Unlock()

	next, err := e.Apply(s.head)
	if err != nil {
		return s.head, fmt.Errorf("edit session %s: %w", s.id, err)
	}
	if !s.queue.Enqueue(engine.Transform{Mapping: e, Doc: next}) {
		return s.head, ErrClosed
	}
	s.head = next
	return next, nil
}

// Sync sends the current request through t and queues the returned batch.
// The request reflects actions applied so far, not those still queued.
func (s *Session) Sync(ctx context.Context, t Transport) error {
	req := engine.Request(s.State())
	s.logger.Debug("sending request",
		"session", s.id,
		"version", req.Version,
		"events", len(req.Events),
	)

	batch, err := t.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("sync session %s at version %d: %w", s.id, req.Version, err)
	}
	if !s.queue.Enqueue(engine.Receive{Batch: batch}) {
		return ErrClosed
	}
	return nil
}

// Step applies every queued action synchronously and returns how many were
// applied. Must not run concurrently with Run.
func (s *Session) Step(ctx context.Context) int {
	n := 0
	for {
		a, ok := s.queue.TryDequeue()
		if !ok {
			return n
		}
		s.apply(ctx, a)
		n++
	}
}

// Run is the single-writer loop. It applies queued actions in FIFO order
// and blocks until ctx is cancelled or Stop is called.
//
// Journal failures are logged and the loop continues: the state is already
// committed and a retry would reorder the journal.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session starting", "session", s.id)

	for {
		if a, ok := s.queue.TryDequeue(); ok {
			s.apply(ctx, a)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session stopping: context cancelled", "session", s.id)
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			if s.queue.Closed() && s.queue.Len() == 0 {
				s.logger.Info("session stopping: queue closed", "session", s.id)
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (s *Session) Stop() {
	s.queue.Close()
}

// apply runs one transition. Called only by the writer.
func (s *Session) apply(ctx context.Context, a engine.Action) {
	s.mu.Lock()
	next := engine.Transition(s.state, a, s.doc)
	if tr, ok := a.(engine.Transform); ok {
		if doc, ok := tr.Doc.(textdoc.Doc); ok {
			s.doc = doc
		}
	}
	s.state = next
	s.mu.Unlock()

	seq := s.clock.Next()
	hash := engine.StateHash(next)
	logAction(s.logger, s.id, seq, a, next)

	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, seq, a, hash); err != nil {
		s.logger.Error("journal write failed",
			"session", s.id,
			"seq", seq,
			"kind", kindOf(a),
			"error", err,
		)
	}
}

func logAction(l *slog.Logger, id string, seq int64, a engine.Action, st engine.State) {
	switch act := a.(type) {
	case engine.Receive:
		l.Info("batch merged",
			"session", id,
			"seq", seq,
			"version", act.Batch.Version,
			"events", len(act.Batch.Events),
			"sent_count", act.Batch.SentCount,
			"unsent", len(st.Unsent()),
		)
	case engine.Ignored:
		l.Warn("ignored action", "session", id, "seq", seq, "kind", act.Name)
	default:
		l.Debug("action applied",
			"session", id,
			"seq", seq,
			"kind", kindOf(a),
			"comments", st.Tracker().Len(),
			"unsent", len(st.Unsent()),
		)
	}
}

func kindOf(a engine.Action) engine.ActionKind {
	if a == nil {
		return ""
	}
	return a.Kind()
}
