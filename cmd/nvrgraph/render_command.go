package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nvrgraph/internal/config"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/history"
	"nvrgraph/internal/logging"
	"nvrgraph/internal/pipeline"
)

type renderOptions struct {
	regular              int
	inference            int
	device               string
	classificationModel  string
	classificationDevice string
	video                string
	output               string
	recordingDir         string
	watermark            bool
	template             string
	refresh              bool
	jsonOutput           bool
	scriptPath           string
	noHistory            bool
}

type renderJSON struct {
	RunID    string               `json:"run_id,omitempty"`
	Template string               `json:"template"`
	Command  string               `json:"command"`
	Argv     []string             `json:"argv"`
	Stages   map[string]string    `json:"stages"`
	Layout   []pipeline.Placement `json:"layout"`
	Canvas   canvasJSON           `json:"canvas"`
}

type canvasJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the launch command for the configured pipeline",
		Long: `Render resolves the decoder, encoder, compositor and post-processor for
the detection device, lays the channels out on a grid and prints the
complete gst-launch-1.0 command. Flags override the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applyRenderOverrides(cmd, base, opts)
			if err != nil {
				return err
			}
			return runRender(cmd, ctx, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.regular, "regular", 0, "Channels without inference (overrides channels.regular)")
	flags.IntVar(&opts.inference, "inference", 0, "Channels with inference (overrides channels.inference)")
	flags.StringVar(&opts.device, "device", "", "Detection device: CPU, NPU, GPU or GPU.<n>")
	flags.StringVar(&opts.classificationModel, "classification-model", "", "Classification model path or Disabled")
	flags.StringVar(&opts.classificationDevice, "classification-device", "", "Classification device or Disabled")
	flags.StringVar(&opts.video, "video", "", "Input video path")
	flags.StringVar(&opts.output, "output", "", "Composited output video path")
	flags.StringVar(&opts.recordingDir, "recording-dir", "", "Directory for per-channel recordings")
	flags.BoolVar(&opts.watermark, "watermark", false, "Draw detection overlays on the composited output")
	flags.StringVar(&opts.template, "template", "", "Pipeline template name")
	flags.BoolVar(&opts.refresh, "refresh", false, "Ignore the cached element catalog")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the render as JSON")
	flags.StringVar(&opts.scriptPath, "out", "", "Also write an executable shell script to this path")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record the render in history")

	return cmd
}

// applyRenderOverrides returns a copy of base with every changed flag applied,
// revalidated for rendering.
func applyRenderOverrides(cmd *cobra.Command, base *config.Config, opts renderOptions) (*config.Config, error) {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("regular") {
		cfg.Channels.Regular = opts.regular
	}
	if flags.Changed("inference") {
		cfg.Channels.Inference = opts.inference
	}
	if flags.Changed("device") {
		cfg.Detection.Device = strings.TrimSpace(opts.device)
	}
	if flags.Changed("classification-model") {
		cfg.Classification.ModelPath = strings.TrimSpace(opts.classificationModel)
		if strings.EqualFold(cfg.Classification.ModelPath, config.Disabled) {
			cfg.Classification.ModelPath = config.Disabled
		}
	}
	if flags.Changed("classification-device") {
		cfg.Classification.Device = strings.TrimSpace(opts.classificationDevice)
	}
	for flag, target := range map[string]*string{
		"video":         &cfg.Input.VideoPath,
		"output":        &cfg.Output.VideoOutputPath,
		"recording-dir": &cfg.Output.RecordingDir,
	} {
		if !flags.Changed(flag) {
			continue
		}
		value, _ := flags.GetString(flag)
		expanded, err := config.ExpandPath(strings.TrimSpace(value))
		if err != nil {
			return nil, failures.Wrap(failures.ErrConfiguration, "render", "--"+flag, "", err)
		}
		*target = expanded
	}
	if flags.Changed("watermark") {
		cfg.Pipeline.WatermarkEnabled = opts.watermark
	}
	if flags.Changed("template") {
		cfg.Pipeline.Template = strings.TrimSpace(opts.template)
	}

	if err := cfg.Validate(); err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "render", "validate", "", err)
	}
	if err := cfg.ValidateRender(); err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "render", "validate", "", err)
	}
	return &cfg, nil
}

func runRender(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts renderOptions) error {
	runCtx := commandCtx(cmd)

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	cat, err := ctx.loadCatalog(runCtx, cfg, opts.refresh)
	if err != nil {
		return err
	}

	runID := history.NewRunID()
	logger := ctx.loggerFor().With(logging.RunID(runID))
	tmpl, err := pipeline.Lookup(cfg.Pipeline.Template, logger)
	if err != nil {
		return err
	}
	result, err := tmpl.Evaluate(req, cat)
	if err != nil {
		logging.ErrorWithContext(logger, "render failed", "render_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'nvrgraph elements' to see which elements are installed"),
		)
		return err
	}

	if !opts.noHistory {
		if err := recordRender(runCtx, cfg, runID, req, result); err != nil {
			logging.WarnWithContext(logger, "render history not recorded", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "render succeeded but will not appear in 'nvrgraph history'"),
			)
		}
	}

	if opts.scriptPath != "" {
		path, err := writeLaunchScript(opts.scriptPath, result.Argv)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote launch script to %s\n", path)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		width, height := pipeline.Canvas(len(result.Channels))
		payload := renderJSON{
			Template: result.Template,
			Command:  result.Command(),
			Argv:     result.Argv,
			Stages:   result.Stages.Map(),
			Layout:   result.Placements(),
			Canvas:   canvasJSON{Width: width, Height: height},
		}
		if !opts.noHistory {
			payload.RunID = runID
		}
		return writeJSON(out, payload)
	}
	_, err = fmt.Fprintln(out, result.Command())
	return err
}

func recordRender(ctx context.Context, cfg *config.Config, runID string, req pipeline.Request, result pipeline.Result) error {
	store, err := history.Open(ctx, cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Add(ctx, history.Record{
		RunID:             runID,
		Template:          result.Template,
		Device:            req.Detection.Device.String(),
		RegularChannels:   req.RegularChannels,
		InferenceChannels: req.InferenceChannels,
		Stages:            result.Stages.Map(),
		Command:           result.Command(),
		OutputPath:        req.OutputPath,
	})
	return err
}

func writeLaunchScript(target string, argv []string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(target))
	if err != nil {
		return "", failures.Wrap(failures.ErrConfiguration, "render", "--out", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create script directory: %w", err)
	}
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellQuote(arg)
	}
	script := "#!/bin/sh\nexec " + strings.Join(quoted, " ") + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return "", fmt.Errorf("write launch script: %w", err)
	}
	return path, nil
}

// shellQuote leaves words made of safe characters alone and single-quotes
// everything else.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, r := range arg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_@%+=:,./-", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
