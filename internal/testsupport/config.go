package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nvrgraph/internal/config"
)

// VAElements is a catalog listing with every VA-API element the resolver prefers.
var VAElements = []string{"vah264dec", "vah264lpenc", "vacompositor", "vapostproc"}

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Input video and detection model files exist, and the catalog is a static
// list of VA elements so no GStreamer tools are needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Paths.CatalogCache = filepath.Join(base, "cache", "elements.json")
	cfgVal.Input.VideoPath = filepath.Join(base, "media", "input.mp4")
	cfgVal.Output.VideoOutputPath = filepath.Join(base, "out", "output.mp4")
	cfgVal.Output.RecordingDir = filepath.Join(base, "recordings")
	cfgVal.Detection.ModelPath = filepath.Join(base, "models", "detect.xml")
	cfgVal.Catalog.Source = config.CatalogSourceStatic
	cfgVal.Catalog.Elements = append([]string(nil), VAElements...)

	WriteFile(t, cfgVal.Input.VideoPath, 64)
	WriteFile(t, cfgVal.Detection.ModelPath, 16)
	for _, dir := range []string{cfgVal.Output.RecordingDir, filepath.Dir(cfgVal.Output.VideoOutputPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithChannels sets the regular and inference channel counts.
func WithChannels(regular, inference int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Channels.Regular = regular
		b.cfg.Channels.Inference = inference
	}
}

// WithDetectionDevice overrides the detection device string.
func WithDetectionDevice(device string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.Device = device
	}
}

// WithClassificationModel enables classification with a model file created
// under the test directory.
func WithClassificationModel(device string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "models", "classify.xml")
		WriteFile(b.t, path, 16)
		b.cfg.Classification.ModelPath = path
		b.cfg.Classification.Device = device
	}
}

// WithCatalogElements replaces the static catalog listing.
func WithCatalogElements(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Source = config.CatalogSourceStatic
		b.cfg.Catalog.Elements = names
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, gst-launch-1.0 and
// gst-inspect-1.0 are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"gst-launch-1.0", "gst-inspect-1.0"}
		}
		for _, name := range names {
			writeStub(b, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubbedInspector installs a gst-inspect-1.0 stub that prints listing and
// switches the catalog to the inspect source.
func WithStubbedInspector(listing string) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\ncat <<'EOF'\n" + strings.TrimRight(listing, "\n") + "\nEOF\n"
		writeStub(b, "gst-inspect-1.0", script)
		b.cfg.Catalog.Source = config.CatalogSourceInspect
		b.cfg.Catalog.Inspector = "gst-inspect-1.0"
		b.cfg.Catalog.Elements = nil
	}
}

func writeStub(b *configBuilder, name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}

	oldPath := os.Getenv("PATH")
	if strings.HasPrefix(oldPath, binDir+string(os.PathListSeparator)) {
		return
	}
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// WriteConfig encodes cfg as TOML at <base>/nvrgraph.toml and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), "nvrgraph.toml")
	data, err := config.Encode(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
