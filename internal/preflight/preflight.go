package preflight

import (
	"nvrgraph/internal/config"
	"nvrgraph/internal/device"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and device checks that apply to the
// configured render. Model checks are skipped when no channel runs inference
// or when classification is Disabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckFileReadable("Input video", cfg.Input.VideoPath))
	results = append(results, CheckOutputFile("Output video", cfg.Output.VideoOutputPath))
	results = append(results, CheckDirectoryAccess("Recording directory", cfg.Output.RecordingDir))

	if cfg.Channels.Inference > 0 {
		results = append(results, CheckFileReadable("Detection model", cfg.Detection.ModelPath))
		if cfg.Detection.ModelProc != "" {
			results = append(results, CheckFileReadable("Detection model-proc", cfg.Detection.ModelProc))
		}
		if spec, err := device.Parse(cfg.Detection.Device); err == nil {
			results = append(results, CheckRenderNode("Detection device", spec))
		}
		if classificationEnabled(cfg) {
			results = append(results, CheckFileReadable("Classification model", cfg.Classification.ModelPath))
			if cfg.Classification.ModelProc != "" {
				results = append(results, CheckFileReadable("Classification model-proc", cfg.Classification.ModelProc))
			}
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func classificationEnabled(cfg *config.Config) bool {
	if cfg.Classification.ModelPath == config.Disabled {
		return false
	}
	spec, err := device.Parse(cfg.Classification.Device)
	return err == nil && !spec.Disabled()
}
