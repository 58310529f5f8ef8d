package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/device"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/logging"
)

// Role is a functional slot in the graph filled by one concrete element.
type Role string

const (
	RoleDecoder       Role = "decoder"
	RoleEncoder       Role = "encoder"
	RoleCompositor    Role = "compositor"
	RolePostProcessor Role = "postprocessor"
)

// Roles lists every role in resolution order.
var Roles = []Role{RoleDecoder, RoleEncoder, RoleCompositor, RolePostProcessor}

// vaMemoryCaps keeps decoded frames in VA surfaces for the next VA element.
const vaMemoryCaps Caps = "video/x-raw(memory:VAMemory)"

// rule selects a fragment when its element is present in the catalog.
type rule struct {
	element string
	build   func() Fragment
}

type policy struct {
	// secondary synthesizes the per-render-node fragment for GPU.<k>, k>0.
	secondary func(node int) Fragment
	rules     []rule
}

func single(factory string, props ...Prop) func() Fragment {
	return func() Fragment { return Fragment{NewElement(factory, props...)} }
}

var policies = map[Role]policy{
	RoleDecoder: {
		secondary: func(node int) Fragment {
			return Fragment{NewElement(fmt.Sprintf("varenderD%dh264dec", node)), vaMemoryCaps}
		},
		rules: []rule{
			{element: "vah264dec", build: func() Fragment { return Fragment{NewElement("vah264dec"), vaMemoryCaps} }},
			{element: "decodebin", build: single("decodebin")},
		},
	},
	RoleEncoder: {
		secondary: func(node int) Fragment {
			return Fragment{NewElement(fmt.Sprintf("varenderD%dh264lpenc", node))}
		},
		rules: []rule{
			{element: "vah264lpenc", build: single("vah264lpenc")},
			{element: "vah264enc", build: single("vah264enc")},
			{element: "x264enc", build: single("x264enc", P("bitrate", 16000), P("speed-preset", "superfast"))},
		},
	},
	RoleCompositor: {
		secondary: func(node int) Fragment {
			return Fragment{NewElement(fmt.Sprintf("varenderD%dcompositor", node))}
		},
		rules: []rule{
			{element: "vacompositor", build: single("vacompositor")},
			{element: "compositor", build: single("compositor")},
		},
	},
	RolePostProcessor: {
		secondary: func(node int) Fragment {
			return Fragment{NewElement(fmt.Sprintf("varenderD%dpostproc", node))}
		},
		rules: []rule{
			{element: "vapostproc", build: single("vapostproc")},
			{element: "videoscale", build: single("videoscale")},
		},
	},
}

// UnresolvedRoleError reports that no candidate element for a role is installed.
type UnresolvedRoleError struct {
	Role       Role
	Device     string
	Candidates []string
}

func (e *UnresolvedRoleError) Error() string {
	return fmt.Sprintf("no %s element available for device %s (tried %s)", e.Role, e.Device, strings.Join(e.Candidates, ", "))
}

func (e *UnresolvedRoleError) Unwrap() error {
	return failures.ErrConfiguration
}

// Resolve picks the fragment for role. Secondary GPUs bypass the catalog and
// get synthesized varenderD<node> element names; otherwise the first rule whose
// element is in the catalog wins.
func Resolve(role Role, dev device.Spec, cat *catalog.Catalog) (Fragment, error) {
	pol, ok := policies[role]
	if !ok {
		return nil, failures.Wrap(failures.ErrConfiguration, "resolver", "resolve", fmt.Sprintf("unknown role %q", role), nil)
	}
	if dev.Secondary() {
		return pol.secondary(dev.RenderNode()), nil
	}
	for _, r := range pol.rules {
		if cat.Has(r.element) {
			return r.build(), nil
		}
	}
	return nil, &UnresolvedRoleError{Role: role, Device: dev.String(), Candidates: candidates(pol)}
}

func candidates(pol policy) []string {
	out := make([]string, 0, len(pol.rules))
	for _, r := range pol.rules {
		out = append(out, r.element)
	}
	return out
}

// CandidateElements returns every catalog element the resolver may consult,
// plus the fixed elements the composed graph always uses.
func CandidateElements() []string {
	var out []string
	for _, role := range Roles {
		out = append(out, candidates(policies[role])...)
	}
	return append(out, fixedElements...)
}

// fixedElements are referenced unconditionally by the composed graph.
var fixedElements = []string{
	"filesrc", "qtdemux", "h264parse", "tee", "queue2", "mp4mux", "filesink",
	"gvafpscounter", "gvadetect", "gvatrack", "gvaclassify", "gvawatermark",
	"gvametaconvert", "gvametapublish",
}

// StageSet holds the resolved fragment for every role.
type StageSet struct {
	Decoder       Fragment
	Encoder       Fragment
	Compositor    Fragment
	PostProcessor Fragment
}

// Get returns the fragment for role.
func (s StageSet) Get(role Role) Fragment {
	switch role {
	case RoleDecoder:
		return s.Decoder
	case RoleEncoder:
		return s.Encoder
	case RoleCompositor:
		return s.Compositor
	case RolePostProcessor:
		return s.PostProcessor
	default:
		return nil
	}
}

func (s *StageSet) set(role Role, frag Fragment) {
	switch role {
	case RoleDecoder:
		s.Decoder = frag
	case RoleEncoder:
		s.Encoder = frag
	case RoleCompositor:
		s.Compositor = frag
	case RolePostProcessor:
		s.PostProcessor = frag
	}
}

// Map returns the rendered fragment per role name.
func (s StageSet) Map() map[string]string {
	out := make(map[string]string, len(Roles))
	for _, role := range Roles {
		out[string(role)] = s.Get(role).String()
	}
	return out
}

// ResolveAll resolves every role for one device, logging each decision.
func ResolveAll(dev device.Spec, cat *catalog.Catalog, logger *slog.Logger) (StageSet, error) {
	logger = logging.NewComponentLogger(logger, "resolver")
	var set StageSet
	for _, role := range Roles {
		frag, err := Resolve(role, dev, cat)
		if err != nil {
			return StageSet{}, err
		}
		reason := "first installed candidate"
		if dev.Secondary() {
			reason = fmt.Sprintf("secondary gpu render node %d", dev.RenderNode())
		}
		attrs := append(logging.DecisionAttrsWithOptions("stage_selection", frag.String(), reason, strings.Join(candidates(policies[role]), ",")),
			logging.Role(string(role)),
			logging.String("device", dev.String()),
		)
		logger.Debug("stage selected", logging.Args(attrs...)...)
		set.set(role, frag)
	}
	return set, nil
}
