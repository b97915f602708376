// Package generator is the top-level controller for sticker
// generation.
//
// A request for duration D walks a fixed state machine: cache check,
// then one of trim / direct render / chunked render, then encode. The
// cache check serves exact repeats instantly, re-slices a longer cached
// clip when one covers the request, and otherwise narrows rendering to
// the frames the cache is missing. Direct rendering happens on an
// out-of-line worker; chunked rendering runs in the calling context in
// memory-pressure-sized batches with cooperative pauses in between.
// Produced frames always flow back into the cache before encoding.
//
// Failures surface as structured errors with a remediation hint; the
// render worker is terminated on every exit path.
package generator
