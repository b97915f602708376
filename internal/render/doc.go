// Package render produces countdown digit frames.
//
// The generation pipeline treats frame rendering as an external
// collaborator: a pure function from a remaining-seconds integer to a
// fixed-size RGBA bitmap. This package defines that contract (Renderer)
// and ships a reference implementation that draws the digits with a
// bitmap font on a transparent background. Values below one minute
// render as a bare number, everything else as zero-padded MM:SS.
package render
