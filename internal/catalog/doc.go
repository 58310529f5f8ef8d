// Package catalog describes which GStreamer elements exist on the host.
//
// A Catalog is an immutable, ordered set of elements built from one of the
// Sources in this package: a static list from configuration, a parse of the
// gst-inspect-1.0 listing, or (with the gst build tag) the in-process GStreamer
// registry. CachedSource persists a probed listing to disk so repeated renders
// do not shell out to gst-inspect-1.0 each time.
//
// The pipeline resolver only asks a Catalog whether an element name exists;
// the plugin kind and description are carried for display.
package catalog
