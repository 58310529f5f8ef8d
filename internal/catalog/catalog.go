package catalog

import "strings"

// Element is one element factory known to the host.
type Element struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Catalog is an immutable set of available elements. Construct it with New.
type Catalog struct {
	elements []Element
	index    map[string]int
}

// New builds a catalog from the provided elements. The slice is copied; entries
// without a name are dropped and duplicate names keep their first occurrence.
func New(elements []Element) *Catalog {
	c := &Catalog{
		elements: make([]Element, 0, len(elements)),
		index:    make(map[string]int, len(elements)),
	}
	for _, el := range elements {
		el.Name = strings.TrimSpace(el.Name)
		if el.Name == "" {
			continue
		}
		if _, seen := c.index[el.Name]; seen {
			continue
		}
		el.Kind = strings.TrimSpace(el.Kind)
		el.Description = strings.TrimSpace(el.Description)
		c.index[el.Name] = len(c.elements)
		c.elements = append(c.elements, el)
	}
	return c
}

// FromNames builds a catalog of bare element names, as listed in configuration.
func FromNames(kind string, names []string) *Catalog {
	elements := make([]Element, 0, len(names))
	for _, name := range names {
		elements = append(elements, Element{Kind: kind, Name: name})
	}
	return New(elements)
}

// Has reports whether an element with the given name is available.
func (c *Catalog) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[name]
	return ok
}

// Lookup returns the element with the given name.
func (c *Catalog) Lookup(name string) (Element, bool) {
	if c == nil {
		return Element{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return Element{}, false
	}
	return c.elements[i], true
}

// Elements returns a copy of the catalog contents in insertion order.
func (c *Catalog) Elements() []Element {
	if c == nil {
		return nil
	}
	out := make([]Element, len(c.elements))
	copy(out, c.elements)
	return out
}

// Len returns the number of elements in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.elements)
}
