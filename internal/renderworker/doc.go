// Package renderworker runs frame rendering out of line from the
// request path.
//
// A Worker is a goroutine with typed request/response channels: the
// request carries {action, totalSeconds, workerId} and responses are a
// stream of progress events followed by exactly one complete or error
// event. Cancellation is "terminate the worker and discard the
// channels" — a terminated worker never leaves background rendering
// running.
package renderworker
