package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
)

func TestActionQueue_FIFO(t *testing.T) {
	q := newActionQueue()

	for _, id := range []ir.CommentID{"a", "b", "c"} {
		require.True(t, q.Enqueue(engine.DeleteComment{ID: id}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []ir.CommentID{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, engine.DeleteComment{ID: want}, got)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue is drained")
}

func TestActionQueue_EnqueueAfterClose(t *testing.T) {
	q := newActionQueue()
	q.Close()
	q.Close() // second close is a no-op

	assert.False(t, q.Enqueue(engine.DeleteComment{ID: "x"}))
	assert.True(t, q.Closed())
	assert.Equal(t, 0, q.Len())
}

func TestActionQueue_WaitSignals(t *testing.T) {
	q := newActionQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(engine.Ignored{Name: "ping"})
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}
	a, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, engine.Ignored{Name: "ping"}, a)
}

func TestActionQueue_CloseWakesWaiter(t *testing.T) {
	q := newActionQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}

func TestActionQueue_ConcurrentEnqueue(t *testing.T) {
	q := newActionQueue()
	const producers, perProducer = 20, 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Enqueue(engine.Ignored{Name: "x"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
