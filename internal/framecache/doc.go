// Package framecache holds rendered countdown frames in memory so that
// repeat and overlapping duration requests can skip rendering.
//
// Two tiers are kept: a second-indexed tier mapping a "remaining
// seconds" value to its frame, and a duration-indexed tier mapping a
// total requested duration to the complete ordered clip sequence. The
// second tier lets a shorter request reuse frames rendered for a longer
// one; the duration tier is the fast path for exact repeats. A longer
// cached clip (a donor) can also be re-sliced to serve a shorter
// request without touching the renderer.
//
// Both tiers are session-scoped: nothing expires automatically, entries
// leave only through an explicit clear or process exit.
package framecache
