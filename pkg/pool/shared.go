package pool

import "sync"

// Shared is a fixed worker count pool draining jobs from a single buffered
// channel. Grounded on the original project's thread_pool::shared.rs
// (mpsc channel + catch_unwind per job).
type Shared struct {
	jobs   chan func()
	wg     sync.WaitGroup
	logger PanicLogger
}

var _ Pool = (*Shared)(nil)

// sharedQueueCapacity bounds how many jobs can be buffered before Spawn
// blocks. A producer/multi-consumer mpsc channel in the original is
// effectively unbounded; this cap keeps a misbehaving server from growing
// memory without limit while still absorbing normal request bursts.
const sharedQueueCapacity = 4096

// NewShared starts workerCount workers, each looping: receive one job,
// execute it inside a panic boundary, repeat. When the job channel is
// closed (by Close), workers drain any remaining buffered jobs and exit.
func NewShared(workerCount int) *Shared {
	return NewSharedWithLogger(workerCount, nil)
}

// NewSharedWithLogger is NewShared with an explicit panic logger.
func NewSharedWithLogger(workerCount int, logger PanicLogger) *Shared {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Shared{
		jobs:   make(chan func(), sharedQueueCapacity),
		logger: logger,
	}

	p.wg.Add(workerCount)

	for range workerCount {
		go p.worker()
	}

	return p
}

func (p *Shared) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		runWithPanicRecovery(job, p.logger)
	}
}

// Spawn enqueues job onto the buffered job channel, blocking only once
// sharedQueueCapacity jobs are already queued.
func (p *Shared) Spawn(job func()) {
	p.jobs <- job
}

// Close closes the job channel and joins every worker. Joining does not
// deadlock even if workers are mid-job: the channel close only stops new
// sends, already-enqueued jobs still drain before each worker returns.
func (p *Shared) Close() error {
	close(p.jobs)
	p.wg.Wait()

	return nil
}
