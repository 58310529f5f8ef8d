package pipeline_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/device"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/pipeline"
)

var vaCatalog = catalog.FromNames("va", []string{"vah264dec", "vah264lpenc", "vacompositor", "vapostproc", "decodebin", "x264enc", "compositor", "videoscale"})

var softwareCatalog = catalog.FromNames("base", []string{"decodebin", "x264enc", "compositor", "videoscale"})

func TestResolvePrefersVAElements(t *testing.T) {
	want := map[pipeline.Role]string{
		pipeline.RoleDecoder:       "vah264dec ! video/x-raw(memory:VAMemory)",
		pipeline.RoleEncoder:       "vah264lpenc",
		pipeline.RoleCompositor:    "vacompositor",
		pipeline.RolePostProcessor: "vapostproc",
	}
	for role, expected := range want {
		frag, err := pipeline.Resolve(role, device.CPU, vaCatalog)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", role, err)
		}
		if frag.String() != expected {
			t.Errorf("Resolve(%s) = %q, want %q", role, frag.String(), expected)
		}
	}
}

func TestResolveFallsBackToSoftware(t *testing.T) {
	set, err := pipeline.ResolveAll(device.CPU, softwareCatalog, nil)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	got := set.Map()
	want := map[string]string{
		"decoder":       "decodebin",
		"encoder":       "x264enc bitrate=16000 speed-preset=superfast",
		"compositor":    "compositor",
		"postprocessor": "videoscale",
	}
	for role, expected := range want {
		if got[role] != expected {
			t.Errorf("%s = %q, want %q", role, got[role], expected)
		}
	}
}

func TestResolveEncoderMiddleChoice(t *testing.T) {
	cat := catalog.FromNames("va", []string{"vah264enc", "x264enc"})
	frag, err := pipeline.Resolve(pipeline.RoleEncoder, device.MustParse("GPU"), cat)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if frag.String() != "vah264enc" {
		t.Fatalf("encoder = %q", frag.String())
	}
}

func TestResolveSecondaryGPUUsesRenderNode(t *testing.T) {
	set, err := pipeline.ResolveAll(device.MustParse("GPU.2"), catalog.New(nil), nil)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	want := map[string]string{
		"decoder":       "varenderD130h264dec ! video/x-raw(memory:VAMemory)",
		"encoder":       "varenderD130h264lpenc",
		"compositor":    "varenderD130compositor",
		"postprocessor": "varenderD130postproc",
	}
	for role, expected := range set.Map() {
		if expected != want[role] {
			t.Errorf("%s = %q, want %q", role, expected, want[role])
		}
		if !strings.Contains(expected, "130") {
			t.Errorf("%s does not target render node 130: %q", role, expected)
		}
	}
}

func TestResolvePrimaryGPUUsesCatalog(t *testing.T) {
	frag, err := pipeline.Resolve(pipeline.RoleCompositor, device.MustParse("GPU.0"), softwareCatalog)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if frag.String() != "compositor" {
		t.Fatalf("compositor = %q", frag.String())
	}
}

func TestResolveUnresolvedRole(t *testing.T) {
	cat := catalog.FromNames("partial", []string{"decodebin"})
	_, err := pipeline.ResolveAll(device.CPU, cat, nil)
	var unresolved *pipeline.UnresolvedRoleError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedRoleError, got %v", err)
	}
	if unresolved.Role != pipeline.RoleEncoder {
		t.Fatalf("role = %s, want encoder", unresolved.Role)
	}
	if !slices.Equal(unresolved.Candidates, []string{"vah264lpenc", "vah264enc", "x264enc"}) {
		t.Fatalf("candidates = %v", unresolved.Candidates)
	}
	if !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no encoder element available for device CPU") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestResolveUnknownRole(t *testing.T) {
	if _, err := pipeline.Resolve(pipeline.Role("scaler"), device.CPU, vaCatalog); !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCandidateElementsCoverAllRules(t *testing.T) {
	names := pipeline.CandidateElements()
	for _, name := range []string{"vah264dec", "decodebin", "vah264lpenc", "vah264enc", "x264enc", "vacompositor", "compositor", "vapostproc", "videoscale", "gvadetect", "tee"} {
		if !slices.Contains(names, name) {
			t.Errorf("CandidateElements missing %s", name)
		}
	}
}
