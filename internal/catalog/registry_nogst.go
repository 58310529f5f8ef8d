//go:build !gst

package catalog

import (
	"context"

	"nvrgraph/internal/failures"
)

// RegistryAvailable reports whether this binary was built with GStreamer bindings.
const RegistryAvailable = false

// RegistrySource is unavailable without the gst build tag.
type RegistrySource struct{}

// NewRegistrySource returns a source that always fails; rebuild with -tags gst.
func NewRegistrySource([]string) *RegistrySource {
	return &RegistrySource{}
}

// Name identifies the source.
func (s *RegistrySource) Name() string {
	return "registry"
}

// Elements reports that registry probing is not compiled in.
func (s *RegistrySource) Elements(context.Context) ([]Element, error) {
	return nil, failures.Wrap(failures.ErrConfiguration, "catalog", "registry",
		"binary built without GStreamer bindings; rebuild with -tags gst or set catalog.source to inspect", nil)
}
