package failures_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"nvrgraph/internal/failures"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := failures.Wrap(failures.ErrExternalTool, "catalog", "probe", "gst-inspect-1.0 failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, failures.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "probe", "gst-inspect-1.0 failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := failures.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, failures.ErrValidation) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "unspecified failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"configuration", failures.Wrap(failures.ErrConfiguration, "device", "parse", "bad", nil), failures.ExitConfiguration},
		{"validation", fmt.Errorf("render: %w", failures.ErrValidation), failures.ExitConfiguration},
		{"tool", failures.Wrap(failures.ErrExternalTool, "catalog", "probe", "", errors.New("exit 1")), failures.ExitExternalTool},
		{"other", errors.New("disk full"), failures.ExitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := failures.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode = %d, want %d", got, tc.want)
			}
		})
	}
}
