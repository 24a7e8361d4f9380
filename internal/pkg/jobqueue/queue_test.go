package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewQueue tests the queue constructor
func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(nil, tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.Equal(t, tt.expectedWorkers, cap(queue.workerPool))
			assert.NotNil(t, queue.handlers)
			assert.False(t, queue.running)
		})
	}
}

func TestEnqueueWithoutRedis(t *testing.T) {
	_, err := NewQueue(nil, 1).EnqueueJob(context.Background(), JobTypeExpireStaleOrders, nil)
	assert.Error(t, err)
}

func TestQueue_ProcessJobLifecycle(t *testing.T) {
	client := newIsolatedRedisClient(t, isolatedJobQueueTestRedisDB)
	ctx := context.Background()
	q := NewQueue(client, 1)

	calls := 0
	q.Register(JobTypeSendEnrollmentMail, func(ctx context.Context, job *Job) error {
		calls++
		if calls == 1 {
			return errors.New("smtp unavailable")
		}
		return nil
	})

	job, err := q.EnqueueJob(ctx, JobTypeSendEnrollmentMail, SendEnrollmentMailPayload{RecordID: 7}.ToMap())
	require.NoError(t, err)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, dequeued.ID)

	q.processJob(ctx, dequeued)
	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)

	q.processJob(ctx, stored)
	_, err = q.GetJob(ctx, job.ID)
	assert.Error(t, err, "completed jobs are removed")

	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	stats, err := q.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusCompleted])
}

func TestQueue_UnknownJobTypeFails(t *testing.T) {
	client := newIsolatedRedisClient(t, isolatedJobQueueTestRedisDB)
	ctx := context.Background()
	q := NewQueue(client, 1)

	job, err := q.EnqueueJob(ctx, JobType("bogus"), nil)
	require.NoError(t, err)
	job.MaxRetries = 0

	q.processJob(ctx, job)
	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMsg, "unknown job type")
}

func TestQueue_RecoverStuck(t *testing.T) {
	client := newIsolatedRedisClient(t, isolatedJobQueueTestRedisDB)
	ctx := context.Background()
	q := NewQueue(client, 1)

	job, err := q.EnqueueJob(ctx, JobTypeExpireStaleOrders, ExpireStaleOrdersPayload{MaxAgeMinutes: 60}.ToMap())
	require.NoError(t, err)
	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	dequeued.MarkAsProcessing()
	q.updateJob(ctx, dequeued)

	n, err := q.recoverStuck(ctx, 10*time.Minute, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = q.recoverStuck(ctx, 10*time.Minute, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
	size, _ := q.GetQueueSize(ctx)
	assert.Equal(t, int64(1), size)
}
