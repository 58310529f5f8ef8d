package pipeline

import (
	"fmt"

	"nvrgraph/internal/failures"
)

// SinkProps positions one compositor request pad per placement.
func SinkProps(placements []Placement) []Prop {
	props := make([]Prop, 0, len(placements)*3)
	for _, p := range placements {
		pad := sinkPad(p.Channel)
		props = append(props,
			P(pad+"::xpos", p.X),
			P(pad+"::ypos", p.Y),
			P(pad+"::alpha", 1),
		)
	}
	return props
}

// Stitch builds the final graph: the compositor, encoder and output file chain
// first, followed by every channel chain. The compositor fragment must start
// with an element; it is named CompositorName and receives sinkProps.
func Stitch(compositor, encoder Fragment, sinkProps []Prop, output string, streams []Chain) (Graph, error) {
	if len(compositor) == 0 {
		return Graph{}, stitchErr("compositor fragment is empty")
	}
	head, ok := compositor[0].(Element)
	if !ok {
		return Graph{}, stitchErr(fmt.Sprintf("compositor fragment starts with %T, want an element", compositor[0]))
	}
	if len(encoder) == 0 {
		return Graph{}, stitchErr("encoder fragment is empty")
	}

	head = head.With(P("name", CompositorName)).With(sinkProps...)
	out := Chain{head}
	out = append(out, compositor[1:]...)
	out = append(out, encoder...)
	out = append(out,
		NewElement("h264parse"),
		NewElement("mp4mux"),
		NewElement("filesink", P("location", output), P("async", false)),
	)

	chains := make([]Chain, 0, len(streams)+1)
	chains = append(chains, out)
	chains = append(chains, streams...)
	return Graph{Chains: chains}, nil
}

func stitchErr(message string) error {
	return failures.Wrap(failures.ErrValidation, "stitcher", "stitch", message, nil)
}
