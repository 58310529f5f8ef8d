//go:build gst

package catalog

import (
	"context"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
)

var gstInitOnce sync.Once

// RegistryAvailable reports whether this binary was built with GStreamer bindings.
const RegistryAvailable = true

// RegistrySource looks candidate element names up in the in-process GStreamer
// registry instead of shelling out to gst-inspect-1.0.
type RegistrySource struct {
	candidates []string
}

// NewRegistrySource probes the given element names.
func NewRegistrySource(candidates []string) *RegistrySource {
	cp := make([]string, len(candidates))
	copy(cp, candidates)
	return &RegistrySource{candidates: cp}
}

// Name identifies the source.
func (s *RegistrySource) Name() string {
	return "registry"
}

// Elements returns the candidates that have a registered element factory.
func (s *RegistrySource) Elements(ctx context.Context) ([]Element, error) {
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})

	elements := make([]Element, 0, len(s.candidates))
	for _, name := range s.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		factory := gst.Find(name)
		if factory == nil {
			continue
		}
		elements = append(elements, Element{
			Kind:        factory.GetPluginName(),
			Name:        name,
			Description: factory.GetMetadata("long-name"),
		})
		factory.Unref()
	}
	return elements, nil
}
