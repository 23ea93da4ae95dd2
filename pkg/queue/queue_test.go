package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, nil), mr
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	queued, err := q.Enqueue(ctx, JobTypeSeedDemo, SeedDemoPayload{RequestedBy: "127.0.0.1"})
	require.NoError(t, err)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, queued.ID, job.ID)
	assert.Equal(t, JobTypeSeedDemo, job.Type)

	var p SeedDemoPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, "127.0.0.1", p.RequestedBy)
}

func TestQueue_DropsGarbage(t *testing.T) {
	q, mr := newTestQueue(t)
	_, err := mr.RPush(KeyJobs, "{not json")
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueue_RetryThenDeadLetter(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()
	job := &Job{ID: "j1", Type: JobTypeSeedDemo, Payload: json.RawMessage(`{}`)}

	for i := 1; i < MaxRetries; i++ {
		require.NoError(t, q.Retry(ctx, job))
		assert.Equal(t, i, job.Attempt)
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, i, got.Attempt)
	}

	require.NoError(t, q.Retry(ctx, job))
	dlq, err := mr.List(KeyDLQ)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.False(t, mr.Exists(KeyJobs))
}
