// Package main hosts the nvrgraph CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, discovers the
// installed GStreamer elements, and prints the gst-launch-1.0 command for a
// smart NVR pipeline. Supporting commands preview the channel layout, list
// the element catalog, run preflight checks, and browse render history.
//
// Keep this package lean: pipeline semantics live in internal/pipeline and
// the commands here only wire configuration, catalog and output together.
package main
