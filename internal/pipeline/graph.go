package pipeline

import (
	"fmt"
	"strings"
)

// Node is one token group in a chain: an element, a caps filter, or a
// reference to a named element's pad.
type Node interface {
	tokens() []string
}

// Prop is a single key=value element property.
type Prop struct {
	Key   string
	Value string
}

// P builds a property, formatting the value with fmt.Sprint.
func P(key string, value any) Prop {
	return Prop{Key: key, Value: fmt.Sprint(value)}
}

func (p Prop) String() string {
	return p.Key + "=" + quoteValue(p.Value)
}

// Element is a GStreamer element factory with ordered properties.
type Element struct {
	Factory string
	Props   []Prop
}

// NewElement builds an element.
func NewElement(factory string, props ...Prop) Element {
	return Element{Factory: factory, Props: props}
}

// With returns a copy of e with props appended.
func (e Element) With(props ...Prop) Element {
	out := Element{Factory: e.Factory, Props: make([]Prop, 0, len(e.Props)+len(props))}
	out.Props = append(out.Props, e.Props...)
	out.Props = append(out.Props, props...)
	return out
}

// Prop returns the value of the first property with the given key.
func (e Element) Prop(key string) (string, bool) {
	for _, p := range e.Props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Name returns the element's explicit name property, if any.
func (e Element) Name() string {
	name, _ := e.Prop("name")
	return name
}

func (e Element) tokens() []string {
	out := make([]string, 0, len(e.Props)+1)
	out = append(out, e.Factory)
	for _, p := range e.Props {
		out = append(out, p.String())
	}
	return out
}

// Caps is a caps filter such as video/x-raw,width=640,height=360.
type Caps string

func (c Caps) tokens() []string {
	return []string{string(c)}
}

// PadRef links to a named element. An empty Pad means "any pad" and renders as
// "name." (used for tee branches); otherwise it renders as "name.pad".
type PadRef struct {
	Element string
	Pad     string
}

func (r PadRef) tokens() []string {
	return []string{r.Element + "." + r.Pad}
}

// Fragment is a short run of nodes standing in for one logical stage, e.g. a
// decoder followed by its output caps.
type Fragment []Node

// String renders the fragment as it appears inside a chain.
func (f Fragment) String() string {
	return Chain(f).String()
}

// Chain is an ordered list of nodes linked with "!".
type Chain []Node

func (c Chain) tokens() []string {
	var out []string
	for i, node := range c {
		if i > 0 {
			out = append(out, "!")
		}
		out = append(out, node.tokens()...)
	}
	return out
}

// String renders the chain.
func (c Chain) String() string {
	return strings.Join(c.tokens(), " ")
}

// Graph is the complete description: chains separated by whitespace.
type Graph struct {
	Chains []Chain
}

// Args renders the graph as the argument vector gst-launch-1.0 expects.
func (g Graph) Args() []string {
	var out []string
	for _, chain := range g.Chains {
		out = append(out, chain.tokens()...)
	}
	return out
}

// String renders the graph as a single description string.
func (g Graph) String() string {
	return strings.Join(g.Args(), " ")
}

// Elements returns every element in the graph in rendering order.
func (g Graph) Elements() []Element {
	var out []Element
	for _, chain := range g.Chains {
		for _, node := range chain {
			if el, ok := node.(Element); ok {
				out = append(out, el)
			}
		}
	}
	return out
}

// quoteValue double-quotes values the gst-launch parser would otherwise split.
func quoteValue(value string) string {
	if value == "" || !strings.ContainsAny(value, " \t\n!\"") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
