package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type WorkerPool struct {
	workerCount int
	jobChan     chan func(context.Context) error
	wg          sync.WaitGroup
	log         zerolog.Logger
}

func NewWorkerPool(workerCount int, log zerolog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan func(context.Context) error, workerCount*2),
		log:         log,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Info().Int("worker_count", wp.workerCount).Msg("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the job channel and waits for queued jobs to drain. Nothing
// may Submit once Stop has been called.
func (wp *WorkerPool) Stop() {
	wp.log.Info().Msg("Stopping worker pool")
	close(wp.jobChan)
	wp.wg.Wait()
	wp.log.Info().Msg("Worker pool stopped")
}

// Submit hands a job to the pool, waiting for buffer space until ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, job func(context.Context) error) error {
	select {
	case wp.jobChan <- job:
		return nil
	default:
	}

	wp.log.Debug().Msg("Worker pool busy, waiting for a free slot")
	select {
	case wp.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker runs jobs until the channel is closed. Accepted jobs run to the end
// even after shutdown starts.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	log := wp.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Worker started")

	jobCtx := context.WithoutCancel(ctx)
	for job := range wp.jobChan {
		if err := job(jobCtx); err != nil {
			log.Error().Err(err).Msg("Job execution failed")
		}
	}

	log.Debug().Msg("Worker stopping due to closed job channel")
}
