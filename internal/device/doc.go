// Package device parses inference device selections (CPU, NPU, GPU, GPU.<k>)
// and derives the values that depend on them: the VA render node offset used to
// name per-GPU GStreamer elements and the pre-processing backend handed to the
// inference elements.
package device
