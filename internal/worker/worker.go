package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/registro/backend/internal/seed"
	"github.com/registro/backend/pkg/queue"
)

// JobSource is the queue side the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// SeedRunner performs the demo-data seeding.
type SeedRunner interface {
	Run(ctx context.Context) (seed.Result, error)
}

// Processor runs background jobs from the Redis queue.
type Processor struct {
	seeder  SeedRunner
	queue   JobSource
	backoff time.Duration
	logger  *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(seeder SeedRunner, q JobSource, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{seeder: seeder, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSeedDemo:
		res, err := p.seeder.Run(ctx)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		p.logger.Info("seed job completed", zap.String("job_id", job.ID), zap.Int("students", res.Students))
		return nil
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// Run dequeues and processes jobs until ctx is cancelled, retrying failures.
func (p *Processor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("worker stopping")
			return
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
