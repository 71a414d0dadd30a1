package driving

import "context"

// Scheduler runs the background maintenance tasks: the periodic
// all-provider sync and the event retention cleanup.
type Scheduler interface {
	// Start begins the scheduler loop and blocks until Stop is called or
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop shuts the loop down, waiting for in-flight tasks to finish.
	Stop() error
}
