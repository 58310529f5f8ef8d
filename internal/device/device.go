package device

import (
	"fmt"
	"strconv"
	"strings"

	"nvrgraph/internal/failures"
)

// Class is the accelerator family of a device selection.
type Class string

const (
	ClassCPU      Class = "CPU"
	ClassNPU      Class = "NPU"
	ClassGPU      Class = "GPU"
	ClassDisabled Class = "Disabled"
)

// RenderNodeBase is the minor number of the first DRM render node
// (/dev/dri/renderD128). GPU.<k> maps to RenderNodeBase+k.
const RenderNodeBase = 128

// Pre-processing backends understood by the inference elements.
const (
	BackendOpenCV           = "opencv"
	BackendVASurfaceSharing = "va-surface-sharing"
)

// Spec is a parsed device selection. The zero value is not valid; use Parse.
type Spec struct {
	Class Class
	Index int
}

// CPU is the default device selection.
var CPU = Spec{Class: ClassCPU}

// Parse validates a device string. Matching is case-insensitive and surrounding
// whitespace is ignored. GPU.0 is normalized to GPU.
func Parse(value string) (Spec, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Spec{}, invalid(value, "device must be set")
	}
	if strings.EqualFold(raw, string(ClassDisabled)) {
		return Spec{Class: ClassDisabled}, nil
	}

	name, suffix, hasIndex := strings.Cut(strings.ToUpper(raw), ".")
	class := Class(name)
	switch class {
	case ClassCPU, ClassNPU:
		if hasIndex {
			return Spec{}, invalid(value, "only GPU devices accept an index")
		}
		return Spec{Class: class}, nil
	case ClassGPU:
		if !hasIndex {
			return Spec{Class: ClassGPU}, nil
		}
		index, err := parseIndex(suffix)
		if err != nil {
			return Spec{}, invalid(value, err.Error())
		}
		return Spec{Class: ClassGPU, Index: index}, nil
	default:
		return Spec{}, invalid(value, "expected CPU, NPU, GPU or GPU.<index>")
	}
}

// MustParse is Parse for package-level values and tests; it panics on error.
func MustParse(value string) Spec {
	spec, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return spec
}

func parseIndex(value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("missing GPU index")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("GPU index %q is not a non-negative integer", value)
		}
	}
	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("GPU index %q out of range", value)
	}
	return index, nil
}

func invalid(value, reason string) error {
	return failures.Wrap(failures.ErrConfiguration, "device", "parse", fmt.Sprintf("invalid device %q: %s", value, reason), nil)
}

// Disabled reports whether the selection turns the consuming stage off.
func (s Spec) Disabled() bool {
	return s.Class == ClassDisabled
}

// Secondary reports whether the selection names a GPU other than the primary
// one. Secondary GPUs get dedicated per-render-node element names.
func (s Spec) Secondary() bool {
	return s.Class == ClassGPU && s.Index > 0
}

// RenderNode returns the DRM render node minor number for the selection.
func (s Spec) RenderNode() int {
	return RenderNodeBase + s.Index
}

// PreProcessBackend returns the inference pre-processing backend: host memory
// (opencv) for CPU and NPU, VA surface sharing for everything else.
func (s Spec) PreProcessBackend() string {
	switch s.Class {
	case ClassCPU, ClassNPU:
		return BackendOpenCV
	default:
		return BackendVASurfaceSharing
	}
}

// String renders the canonical form passed to the inference elements.
func (s Spec) String() string {
	if s.Class == ClassGPU && s.Index > 0 {
		return fmt.Sprintf("%s.%d", ClassGPU, s.Index)
	}
	return string(s.Class)
}

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spec) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
