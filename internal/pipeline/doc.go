// Package pipeline assembles gst-launch-1.0 descriptions for multi-channel
// recording and inference graphs.
//
// Evaluation is a single synchronous pass:
//
//   - the resolver picks one element per role (decoder, encoder, compositor,
//     post-processor) from the host's element catalog, or synthesizes per-GPU
//     element names when a secondary GPU is requested;
//   - the layout planner places every channel on a square grid of 640x360 tiles;
//   - the composer renders each channel as a recording branch plus either a
//     plain (decode and measure) or an inference (detect, track, classify,
//     overlay, publish) processing branch;
//   - the stitcher prepends the shared compositor and output branch.
//
// Graphs are built from structured Element, Caps and PadRef nodes and only
// turned into text by Graph.Args / Graph.String, after Graph.Validate has
// checked that every pad reference is bound. Nothing here executes GStreamer.
package pipeline
