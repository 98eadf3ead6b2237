package deletion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
	deleted  []string
}

func newFakeDeleter() *fakeDeleter {
	return &fakeDeleter{failures: map[string]int{}, calls: map[string]int{}}
}

func (f *fakeDeleter) Delete(_ context.Context, fileID, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[fileID]++
	if f.failures[fileID] > 0 {
		f.failures[fileID]--
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeDeleter) callsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func fastQueue(d Deleter, attempts int) *Queue {
	return NewQueue(d,
		WithWorkers(2),
		WithQueueSize(4),
		WithBackoff(attempts, time.Millisecond, 5*time.Millisecond),
	)
}

func TestQueueDeletesAndDrains(t *testing.T) {
	d := newFakeDeleter()
	q := fastQueue(d, 3)

	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{FileID: id, Reason: "record_deleted"}))
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f"}, d.deleted)
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	d := newFakeDeleter()
	d.failures["flaky"] = 2
	q := fastQueue(d, 5)

	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "flaky"}))
	q.Shutdown(context.Background())

	assert.Equal(t, 3, d.callsFor("flaky"))
	assert.Equal(t, []string{"flaky"}, d.deleted)
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	d := newFakeDeleter()
	d.failures["gone"] = 100
	q := fastQueue(d, 3)

	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "gone"}))
	q.Shutdown(context.Background())

	assert.Equal(t, 3, d.callsFor("gone"))
	assert.Empty(t, d.deleted)
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := fastQueue(newFakeDeleter(), 1)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{FileID: "late"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueIgnoresEmptyFileID(t *testing.T) {
	d := newFakeDeleter()
	q := fastQueue(d, 1)
	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	q.Shutdown(context.Background())
	assert.Empty(t, d.deleted)
}

type stuckDeleter struct {
	started chan string
	release chan struct{}
}

func (s *stuckDeleter) Delete(_ context.Context, fileID, _ string, _ bool) error {
	s.started <- fileID
	<-s.release
	return nil
}

func TestQueueFullDropsInsteadOfBlocking(t *testing.T) {
	d := &stuckDeleter{started: make(chan string, 4), release: make(chan struct{})}
	defer close(d.release)
	q := NewQueue(d,
		WithWorkers(1),
		WithQueueSize(1),
		WithEnqueueWait(50*time.Millisecond),
		WithBackoff(1, time.Millisecond, time.Millisecond),
	)

	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "first"}))
	assert.Equal(t, "first", <-d.started)
	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "second"}))

	start := time.Now()
	err := q.Enqueue(context.Background(), Job{FileID: "third"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start = time.Now()
	q.Shutdown(ctx)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestShutdownReleasesWaitingEnqueue(t *testing.T) {
	d := &stuckDeleter{started: make(chan string, 4), release: make(chan struct{})}
	defer close(d.release)
	q := NewQueue(d,
		WithWorkers(1),
		WithQueueSize(1),
		WithEnqueueWait(time.Minute),
		WithBackoff(1, time.Millisecond, time.Millisecond),
	)

	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "first"}))
	<-d.started
	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: "second"}))

	result := make(chan error, 1)
	go func() { result <- q.Enqueue(context.Background(), Job{FileID: "waiting"}) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("enqueue still waiting after shutdown")
	}
}
