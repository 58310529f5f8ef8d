package pipeline

import (
	"fmt"
	"strings"

	"nvrgraph/internal/failures"
)

// requiredProps lists properties that must carry a non-empty value.
var requiredProps = map[string][]string{
	"filesrc":     {"location"},
	"filesink":    {"location"},
	"gvadetect":   {"model", "device"},
	"gvaclassify": {"model", "device"},
}

// Validate checks the structural integrity of the graph: every chain is
// non-empty, named elements are unique, pad references only appear at chain
// boundaries and resolve to a declared element, compositor request pads are
// positioned and linked exactly once, and every tee has a branch.
func (g Graph) Validate() error {
	if len(g.Chains) == 0 {
		return invalid("graph has no chains")
	}

	declared := make(map[string]Element)
	positioned := make(map[string]map[string]bool)
	for ci, chain := range g.Chains {
		if len(chain) == 0 {
			return invalid(fmt.Sprintf("chain %d is empty", ci))
		}
		elements := 0
		for ni, node := range chain {
			switch n := node.(type) {
			case Element:
				elements++
				if strings.TrimSpace(n.Factory) == "" {
					return invalid(fmt.Sprintf("chain %d node %d has no factory", ci, ni))
				}
				for _, key := range requiredProps[n.Factory] {
					if value, _ := n.Prop(key); strings.TrimSpace(value) == "" {
						return invalid(fmt.Sprintf("%s requires %s", n.Factory, key))
					}
				}
				if name := n.Name(); name != "" {
					if _, dup := declared[name]; dup {
						return invalid(fmt.Sprintf("element name %q declared twice", name))
					}
					declared[name] = n
					positioned[name] = requestPads(n)
				}
			case PadRef:
				if ni != 0 && ni != len(chain)-1 {
					return invalid(fmt.Sprintf("pad reference %s.%s in the middle of chain %d", n.Element, n.Pad, ci))
				}
			case Caps:
				if strings.TrimSpace(string(n)) == "" {
					return invalid(fmt.Sprintf("chain %d has empty caps", ci))
				}
			}
		}
		if elements == 0 {
			return invalid(fmt.Sprintf("chain %d has no elements", ci))
		}
	}

	linked := make(map[PadRef]int)
	branches := make(map[string]int)
	for _, chain := range g.Chains {
		for _, node := range chain {
			ref, ok := node.(PadRef)
			if !ok {
				continue
			}
			if _, ok := declared[ref.Element]; !ok {
				return invalid(fmt.Sprintf("pad reference to undeclared element %q", ref.Element))
			}
			if ref.Pad == "" {
				branches[ref.Element]++
				continue
			}
			linked[ref]++
			if linked[ref] > 1 {
				return invalid(fmt.Sprintf("pad %s.%s linked more than once", ref.Element, ref.Pad))
			}
			if pads := positioned[ref.Element]; len(pads) > 0 && !pads[ref.Pad] {
				return invalid(fmt.Sprintf("pad %s.%s has no placement", ref.Element, ref.Pad))
			}
		}
	}

	for name, pads := range positioned {
		for pad := range pads {
			if linked[PadRef{Element: name, Pad: pad}] == 0 {
				return invalid(fmt.Sprintf("pad %s.%s is placed but never linked", name, pad))
			}
		}
	}
	for name, el := range declared {
		if el.Factory == "tee" && branches[name] == 0 {
			return invalid(fmt.Sprintf("tee %q has no branch", name))
		}
	}
	return nil
}

// requestPads collects pad names configured through "pad::property" keys.
func requestPads(el Element) map[string]bool {
	var pads map[string]bool
	for _, p := range el.Props {
		pad, _, ok := strings.Cut(p.Key, "::")
		if !ok || pad == "" {
			continue
		}
		if pads == nil {
			pads = make(map[string]bool)
		}
		pads[pad] = true
	}
	return pads
}

func invalid(message string) error {
	return failures.Wrap(failures.ErrValidation, "pipeline", "validate graph", message, nil)
}
