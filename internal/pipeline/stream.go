package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"nvrgraph/internal/device"
)

// Disabled is the model path sentinel that turns classification off.
const Disabled = "Disabled"

// CompositorName is the name given to the shared compositor element.
const CompositorName = "comp"

const (
	fpsStartingFrame = 500
	trackingType     = "short-term-imageless"
	metadataSink     = "/dev/null"
	recordingPrefix  = "stream"
)

// ChannelKind selects the processing branch a channel receives.
type ChannelKind int

const (
	KindInference ChannelKind = iota
	KindPlain
)

func (k ChannelKind) String() string {
	switch k {
	case KindInference:
		return "inference"
	case KindPlain:
		return "plain"
	default:
		return fmt.Sprintf("ChannelKind(%d)", int(k))
	}
}

// Channel is one input stream with its place on the canvas.
type Channel struct {
	ID        int
	Kind      ChannelKind
	Placement Placement
}

// ModelConfig is a model file plus its optional post-processing description.
type ModelConfig struct {
	Path string
	Proc string
}

func (m ModelConfig) props() []Prop {
	props := []Prop{P("model", m.Path)}
	if strings.TrimSpace(m.Proc) != "" {
		props = append(props, P("model-proc", m.Proc))
	}
	return props
}

// Detection configures the object detector shared by all inference channels.
type Detection struct {
	Model             ModelConfig
	Device            device.Spec
	BatchSize         int
	InferenceInterval int
	Nireq             int
}

// Classification configures the optional per-object classifier.
type Classification struct {
	Model              ModelConfig
	Device             device.Spec
	BatchSize          int
	InferenceInterval  int
	Nireq              int
	ReclassifyInterval int
}

// Enabled reports whether the classifier stage is inserted.
func (c Classification) Enabled() bool {
	path := strings.TrimSpace(c.Model.Path)
	return path != "" && !strings.EqualFold(path, Disabled) && !c.Device.Disabled()
}

// Composer renders per-channel chains from resolved stages and shared settings.
type Composer struct {
	Stages         StageSet
	VideoPath      string
	RecordingDir   string
	Detection      Detection
	Classification Classification
	Watermark      bool
}

// Compose returns the recording chain and the processing chain for ch. The
// processing chain ends at the compositor's request pad for ch.ID.
func (c Composer) Compose(ch Channel) []Chain {
	return []Chain{c.recording(ch), c.processing(ch)}
}

func teeName(id int) string {
	return fmt.Sprintf("t%d", id)
}

func (c Composer) recording(ch Channel) Chain {
	location := filepath.Join(c.RecordingDir, fmt.Sprintf("%s%d.mp4", recordingPrefix, ch.ID))
	return Chain{
		NewElement("filesrc", P("location", c.VideoPath)),
		NewElement("qtdemux"),
		NewElement("h264parse"),
		NewElement("tee", P("name", teeName(ch.ID))),
		NewElement("queue2"),
		NewElement("mp4mux"),
		NewElement("filesink", P("location", location)),
	}
}

func (c Composer) processing(ch Channel) Chain {
	chain := Chain{PadRef{Element: teeName(ch.ID)}, NewElement("queue2")}
	chain = append(chain, c.Stages.Decoder...)
	chain = append(chain, NewElement("gvafpscounter", P("starting-frame", fpsStartingFrame)))
	buffers := 1
	if ch.Kind == KindInference {
		chain = append(chain, c.inference()...)
		buffers = 0
	}
	chain = append(chain, NewElement("queue2",
		P("max-size-buffers", buffers),
		P("max-size-bytes", 0),
		P("max-size-time", 0),
	))
	chain = append(chain, c.Stages.PostProcessor...)
	chain = append(chain,
		Caps(fmt.Sprintf("video/x-raw,width=%d,height=%d", TileWidth, TileHeight)),
		PadRef{Element: CompositorName, Pad: sinkPad(ch.ID)},
	)
	return chain
}

func (c Composer) inference() []Node {
	det := c.Detection
	detect := NewElement("gvadetect", det.Model.props()...).With(
		P("model-instance-id", "detect0"),
		P("pre-process-backend", det.Device.PreProcessBackend()),
		P("device", det.Device.String()),
		P("batch-size", det.BatchSize),
		P("inference-interval", det.InferenceInterval),
		P("nireq", det.Nireq),
	)
	nodes := []Node{
		detect,
		NewElement("queue2"),
		NewElement("gvatrack", P("tracking-type", trackingType)),
		NewElement("queue2"),
	}
	if cls := c.Classification; cls.Enabled() {
		classify := NewElement("gvaclassify", cls.Model.props()...).With(
			P("model-instance-id", "classify0"),
			P("pre-process-backend", cls.Device.PreProcessBackend()),
			P("device", cls.Device.String()),
			P("batch-size", cls.BatchSize),
			P("inference-interval", cls.InferenceInterval),
			P("nireq", cls.Nireq),
			P("reclassify-interval", cls.ReclassifyInterval),
		)
		nodes = append(nodes, classify, NewElement("queue2"))
	}
	if c.Watermark {
		nodes = append(nodes, NewElement("gvawatermark"))
	}
	return append(nodes,
		NewElement("gvametaconvert", P("format", "json"), P("json-indent", 4), P("source", c.VideoPath)),
		NewElement("gvametapublish", P("method", "file"), P("file-path", metadataSink)),
	)
}

func sinkPad(id int) string {
	return fmt.Sprintf("sink_%d", id)
}
