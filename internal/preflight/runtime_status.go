package preflight

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"

	"nvrgraph/internal/device"
)

// driDir is where DRM render nodes live.
var driDir = "/dev/dri"

// CheckRenderNode verifies that a GPU selection maps to an accessible DRM
// render node. CPU and NPU selections always pass.
func CheckRenderNode(name string, spec device.Spec) Result {
	if spec.Class != device.ClassGPU {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (no render node needed)", spec)}
	}
	node := filepath.Join(driDir, fmt.Sprintf("renderD%d", spec.RenderNode()))
	if err := unix.Access(node, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s -> %s (error: %v)", spec, node, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s -> %s", spec, node)}
}
