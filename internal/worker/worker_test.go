package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registro/backend/internal/seed"
	"github.com/registro/backend/pkg/queue"
)

type fakeSeeder struct {
	mu    sync.Mutex
	runs  int
	fails int
}

func (f *fakeSeeder) Run(context.Context) (seed.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.runs <= f.fails {
		return seed.Result{}, errors.New("db down")
	}
	return seed.Result{Students: 200}, nil
}

func (f *fakeSeeder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type fakeQueue struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
}

func (q *fakeQueue) Dequeue(context.Context) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, nil
}

func (q *fakeQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	if job.Attempt < queue.MaxRetries {
		q.pending = append(q.pending, job)
	}
	return nil
}

func TestProcessor_Process(t *testing.T) {
	s := &fakeSeeder{}
	p := NewProcessor(s, &fakeQueue{}, nil)

	require.NoError(t, p.Process(context.Background(), &queue.Job{ID: "1", Type: queue.JobTypeSeedDemo}))
	assert.Equal(t, 1, s.count())

	err := p.Process(context.Background(), &queue.Job{ID: "2", Type: "bogus"})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestProcessor_RunRetriesFailedJob(t *testing.T) {
	s := &fakeSeeder{fails: 1}
	q := &fakeQueue{pending: []*queue.Job{{ID: "1", Type: queue.JobTypeSeedDemo}}}
	p := NewProcessor(s, q, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Len(t, q.retried, 1)
	assert.Equal(t, 1, q.retried[0].Attempt)
}
