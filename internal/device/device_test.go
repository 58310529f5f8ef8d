package device

import (
	"errors"
	"testing"

	"nvrgraph/internal/failures"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in        string
		want      Spec
		canonical string
	}{
		{"CPU", Spec{Class: ClassCPU}, "CPU"},
		{" npu ", Spec{Class: ClassNPU}, "NPU"},
		{"GPU", Spec{Class: ClassGPU}, "GPU"},
		{"GPU.0", Spec{Class: ClassGPU}, "GPU"},
		{"gpu.2", Spec{Class: ClassGPU, Index: 2}, "GPU.2"},
		{"Disabled", Spec{Class: ClassDisabled}, "Disabled"},
		{"disabled", Spec{Class: ClassDisabled}, "Disabled"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
		if got.String() != tc.canonical {
			t.Fatalf("Parse(%q).String() = %q, want %q", tc.in, got.String(), tc.canonical)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "GPU.", "GPU.x", "GPU.-1", "GPU.1.2", "TPU", "CPU.1", "GPU.99999999999999999999"} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		if !errors.Is(err, failures.ErrConfiguration) {
			t.Fatalf("expected configuration error for %q, got %v", in, err)
		}
	}
}

func TestSecondaryAndRenderNode(t *testing.T) {
	if MustParse("GPU").Secondary() {
		t.Fatal("primary GPU must not be secondary")
	}
	if MustParse("CPU").Secondary() {
		t.Fatal("CPU must not be secondary")
	}
	spec := MustParse("GPU.2")
	if !spec.Secondary() {
		t.Fatal("GPU.2 must be secondary")
	}
	if spec.RenderNode() != 130 {
		t.Fatalf("RenderNode = %d, want 130", spec.RenderNode())
	}
}

func TestPreProcessBackend(t *testing.T) {
	cases := map[string]string{
		"CPU":   BackendOpenCV,
		"NPU":   BackendOpenCV,
		"GPU":   BackendVASurfaceSharing,
		"GPU.1": BackendVASurfaceSharing,
	}
	for in, want := range cases {
		if got := MustParse(in).PreProcessBackend(); got != want {
			t.Fatalf("PreProcessBackend(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var spec Spec
	if err := spec.UnmarshalText([]byte("GPU.1")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if spec.Index != 1 {
		t.Fatalf("unexpected spec %#v", spec)
	}
	if err := spec.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("expected error")
	}
}
