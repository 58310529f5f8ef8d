package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Source produces the element listing a Catalog is built from.
type Source interface {
	Name() string
	Elements(ctx context.Context) ([]Element, error)
}

// StaticSource serves a fixed list, typically element names from configuration.
type StaticSource struct {
	elements []Element
}

// NewStaticSource wraps bare element names.
func NewStaticSource(names []string) *StaticSource {
	elements := make([]Element, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			elements = append(elements, Element{Kind: "static", Name: name})
		}
	}
	return &StaticSource{elements: elements}
}

// Name identifies the source.
func (s *StaticSource) Name() string {
	return "static"
}

// Elements returns a copy of the configured list.
func (s *StaticSource) Elements(context.Context) ([]Element, error) {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out, nil
}

// Load reads a source into a Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	elements, err := src.Elements(ctx)
	if err != nil {
		return nil, err
	}
	return New(elements), nil
}
