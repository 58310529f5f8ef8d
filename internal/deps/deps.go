package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary nvrgraph relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// GStreamerRequirements lists the GStreamer tools used to run rendered
// pipelines and, when the catalog is probed through it, to list elements.
func GStreamerRequirements(launcher, inspector string, inspectRequired bool) []Requirement {
	return []Requirement{
		{
			Name:        "gst-launch",
			Command:     launcher,
			Description: "Runs rendered pipelines",
			Optional:    true,
		},
		{
			Name:        "gst-inspect",
			Command:     inspector,
			Description: "Lists installed GStreamer elements",
			Optional:    !inspectRequired,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
