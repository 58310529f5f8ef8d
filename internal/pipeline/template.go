package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"nvrgraph/internal/catalog"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/logging"
)

// DefaultLauncher is the command prepended to rendered graphs.
const DefaultLauncher = "gst-launch-1.0"

// Request carries every input a template needs.
type Request struct {
	Launcher          string
	VideoPath         string
	OutputPath        string
	RecordingDir      string
	RegularChannels   int
	InferenceChannels int
	Detection         Detection
	Classification    Classification
	Watermark         bool
}

// Result is an evaluated template.
type Result struct {
	Template string
	Argv     []string
	Graph    Graph
	Stages   StageSet
	Channels []Channel
}

// Command returns the full launcher invocation as one string.
func (r Result) Command() string {
	return strings.Join(r.Argv, " ")
}

// Placements returns the layout of every channel in channel order.
func (r Result) Placements() []Placement {
	out := make([]Placement, len(r.Channels))
	for i, ch := range r.Channels {
		out[i] = ch.Placement
	}
	return out
}

// Template turns a request into a launchable graph.
type Template interface {
	Name() string
	Evaluate(req Request, cat *catalog.Catalog) (Result, error)
}

var registry = map[string]func(*slog.Logger) Template{
	SmartNVRName: func(logger *slog.Logger) Template { return NewSmartNVR(logger) },
}

// Lookup returns the named template.
func Lookup(name string, logger *slog.Logger) (Template, error) {
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, failures.Wrap(failures.ErrNotFound, "pipeline", "lookup template",
			fmt.Sprintf("unknown template %q (available: %s)", name, strings.Join(Templates(), ", ")), nil)
	}
	return factory(logger), nil
}

// Templates lists registered template names.
func Templates() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SmartNVRName is the registry name of the smart NVR template.
const SmartNVRName = "smartnvr"

// SmartNVR records every input, runs detection on the first
// InferenceChannels streams and composites all of them into one output file.
type SmartNVR struct {
	logger *slog.Logger
}

// NewSmartNVR builds the template. A nil logger discards output.
func NewSmartNVR(logger *slog.Logger) *SmartNVR {
	return &SmartNVR{logger: logging.NewComponentLogger(logger, "pipeline")}
}

// Name implements Template.
func (t *SmartNVR) Name() string { return SmartNVRName }

// Evaluate implements Template.
func (t *SmartNVR) Evaluate(req Request, cat *catalog.Catalog) (Result, error) {
	if err := checkRequest(req, cat); err != nil {
		return Result{}, err
	}
	logger := t.logger.With(logging.Template(SmartNVRName))

	stages, err := ResolveAll(req.Detection.Device, cat, logger)
	if err != nil {
		return Result{}, err
	}

	total := req.InferenceChannels + req.RegularChannels
	placements, err := Plan(total)
	if err != nil {
		return Result{}, err
	}

	composer := Composer{
		Stages:         stages,
		VideoPath:      req.VideoPath,
		RecordingDir:   req.RecordingDir,
		Detection:      req.Detection,
		Classification: req.Classification,
		Watermark:      req.Watermark,
	}
	if req.InferenceChannels > 0 {
		logger.Debug("classification stage",
			logging.Args(logging.DecisionAttrs("classification", fmt.Sprint(composer.Classification.Enabled()),
				"model path and device")...)...)
	}

	channels := make([]Channel, total)
	streams := make([]Chain, 0, total*2)
	for i := range total {
		kind := KindPlain
		if i < req.InferenceChannels {
			kind = KindInference
		}
		channels[i] = Channel{ID: i, Kind: kind, Placement: placements[i]}
		streams = append(streams, composer.Compose(channels[i])...)
		logger.Debug("channel composed",
			logging.Channel(i),
			logging.String("kind", kind.String()),
			logging.Int("x", placements[i].X),
			logging.Int("y", placements[i].Y),
		)
	}

	graph, err := Stitch(stages.Compositor, stages.Encoder, SinkProps(placements), req.OutputPath, streams)
	if err != nil {
		return Result{}, err
	}
	if err := graph.Validate(); err != nil {
		return Result{}, err
	}

	launcher := strings.TrimSpace(req.Launcher)
	if launcher == "" {
		launcher = DefaultLauncher
	}
	argv := slices.Concat([]string{launcher, "-q"}, graph.Args())
	logger.Info("pipeline evaluated",
		logging.Int("channels", total),
		logging.Int("inference_channels", req.InferenceChannels),
		logging.Int("elements", len(graph.Elements())),
	)
	return Result{Template: SmartNVRName, Argv: argv, Graph: graph, Stages: stages, Channels: channels}, nil
}

func checkRequest(req Request, cat *catalog.Catalog) error {
	var problems []string
	if cat == nil {
		problems = append(problems, "element catalog is required")
	}
	if req.RegularChannels < 0 {
		problems = append(problems, "regular channel count must be >= 0")
	}
	if req.InferenceChannels < 0 {
		problems = append(problems, "inference channel count must be >= 0")
	}
	total := req.RegularChannels + req.InferenceChannels
	if req.RegularChannels >= 0 && req.InferenceChannels >= 0 {
		switch {
		case total == 0:
			problems = append(problems, "at least one channel is required")
		case total > MaxChannels:
			problems = append(problems, fmt.Sprintf("total channels %d exceeds %d", total, MaxChannels))
		}
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		problems = append(problems, "video path is required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		problems = append(problems, "output path is required")
	}
	if strings.TrimSpace(req.RecordingDir) == "" {
		problems = append(problems, "recording directory is required")
	}
	if req.Detection.Device.Class == "" {
		problems = append(problems, "detection device is required")
	} else if req.Detection.Device.Disabled() {
		problems = append(problems, "detection device cannot be Disabled")
	}
	if req.InferenceChannels > 0 && strings.TrimSpace(req.Detection.Model.Path) == "" {
		problems = append(problems, "detection model is required for inference channels")
	}
	if len(problems) == 0 {
		return nil
	}
	return failures.Wrap(failures.ErrConfiguration, "pipeline", "evaluate", strings.Join(problems, "; "), nil)
}
