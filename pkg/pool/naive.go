package pool

import "sync"

// Naive spawns a fresh goroutine per job with no bound on concurrency.
// Grounded on the original project's thread_pool::naive.rs, which does the
// same with a raw std::thread::spawn per job.
type Naive struct {
	wg     sync.WaitGroup
	logger PanicLogger
}

var _ Pool = (*Naive)(nil)

// NewNaive returns a Naive pool. workerCount is accepted for interface
// symmetry with the other variants but has no effect: Naive does not bound
// concurrency.
func NewNaive(workerCount int) *Naive {
	return NewNaiveWithLogger(workerCount, nil)
}

// NewNaiveWithLogger is NewNaive with an explicit panic logger, used by the
// server to route job panics through its structured logger.
func NewNaiveWithLogger(workerCount int, logger PanicLogger) *Naive {
	return &Naive{logger: logger}
}

// Spawn runs job on a new goroutine immediately.
func (p *Naive) Spawn(job func()) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		runWithPanicRecovery(job, p.logger)
	}()
}

// Close waits for every spawned goroutine to finish.
func (p *Naive) Close() error {
	p.wg.Wait()

	return nil
}
