package main

import (
	"nvrgraph/internal/config"
	"nvrgraph/internal/device"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/pipeline"
)

// buildRequest converts validated configuration into a template request.
func buildRequest(cfg *config.Config) (pipeline.Request, error) {
	detDevice, err := device.Parse(cfg.Detection.Device)
	if err != nil {
		return pipeline.Request{}, failures.Wrap(failures.ErrConfiguration, "config", "detection.device", "", err)
	}
	clsDevice, err := device.Parse(cfg.Classification.Device)
	if err != nil {
		return pipeline.Request{}, failures.Wrap(failures.ErrConfiguration, "config", "classification.device", "", err)
	}

	return pipeline.Request{
		Launcher:          cfg.LauncherBinary(),
		VideoPath:         cfg.Input.VideoPath,
		OutputPath:        cfg.Output.VideoOutputPath,
		RecordingDir:      cfg.Output.RecordingDir,
		RegularChannels:   cfg.Channels.Regular,
		InferenceChannels: cfg.Channels.Inference,
		Detection: pipeline.Detection{
			Model:             pipeline.ModelConfig{Path: cfg.Detection.ModelPath, Proc: cfg.Detection.ModelProc},
			Device:            detDevice,
			BatchSize:         cfg.Detection.BatchSize,
			InferenceInterval: cfg.Detection.InferenceInterval,
			Nireq:             cfg.Detection.Nireq,
		},
		Classification: pipeline.Classification{
			Model:              pipeline.ModelConfig{Path: cfg.Classification.ModelPath, Proc: cfg.Classification.ModelProc},
			Device:             clsDevice,
			BatchSize:          cfg.Classification.BatchSize,
			InferenceInterval:  cfg.Classification.InferenceInterval,
			Nireq:              cfg.Classification.Nireq,
			ReclassifyInterval: cfg.Classification.ReclassifyInterval,
		},
		Watermark: cfg.Pipeline.WatermarkEnabled,
	}, nil
}
