package pool

import "log"

// runWithPanicRecovery executes job inside a panic boundary. A panicking job
// must neither terminate the worker permanently nor prevent future jobs
// from running, so the recovered value is logged and swallowed rather than
// re-panicked.
//
// logger defaults to log.Printf when nil - used by pools exercised standalone
// (e.g. in this package's own tests) with no logger injected by the server.
func runWithPanicRecovery(job func(), logger PanicLogger) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger(r)

				return
			}

			log.Printf("pool: recovered panic in job: %v", r)
		}
	}()

	job()
}
