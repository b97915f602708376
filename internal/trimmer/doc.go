// Package trimmer produces countdown clips by slicing a pre-rendered
// master asset instead of rendering frames.
//
// The master is a bounded-length clip fetched once per process from a
// fixed URL and held in memory. Trimming decodes it, extracts the
// leading sub-range for the requested duration, constrains the output
// to the sticker format (512×512 at the configured frame rate) and
// re-encodes with alpha intact.
//
// The trim path is strictly an optimization: every stage failure is
// returned as a structured result instead of an error so the
// orchestrator can fall back to full rendering without special-casing
// failure types. Correctness never depends on the master asset being
// available.
package trimmer
