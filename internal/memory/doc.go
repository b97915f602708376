// Package memory tracks heap usage against a configured limit and
// turns it into backpressure signals for the generation pipeline.
//
// The Monitor polls runtime memory statistics and classifies the
// current state into pressure levels (healthy, warning, critical,
// emergency). Long renders consult the level per request to size their
// chunks and inter-chunk pauses: the tighter memory gets, the smaller
// the batches and the longer the cooperative pauses between them, which
// gives the collector room to reclaim frame bitmaps.
//
// The limit comes from GOMEMLIMIT when set, or from the MEMORY_LIMIT /
// MEMORY_RATIO environment variables (Kubernetes Downward API style).
// With no limit configured, pressure is always reported as healthy and
// backpressure is disabled.
package memory
