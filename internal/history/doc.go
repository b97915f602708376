// Package history persists one row per generation attempt in a local
// SQLite database. The store satisfies the orchestrator's Recorder
// interface, so recording never fails the request it describes; write
// errors are logged and dropped.
package history
