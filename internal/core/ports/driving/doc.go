// Package driving defines the inbound ports of the core: the service
// interfaces invoked by the CLI, the scheduler and the async trigger
// handlers.
package driving
