// Package encoder turns ordered frame sequences into single-file video
// blobs with the alpha channel intact.
//
// Encoding goes through a prioritized chain of interchangeable
// strategies. Each strategy drives an ffmpeg child process fed PNG
// frames over a pipe: frames are drawn onto one reusable working
// surface, cleared to transparent before every frame, so the output
// background stays transparent end to end. Each frame gets exactly
// 1/fps seconds with monotonically increasing timestamps from zero.
//
// Which strategies are usable comes from an explicit Capabilities value
// probed once at startup and injected into the chain, never from
// process-global state; tests construct arbitrary capability sets. When
// a supported strategy fails mid-encode the chain logs it and falls
// through to the next supported one, surfacing an error only when every
// strategy is exhausted or none is supported at all.
package encoder
