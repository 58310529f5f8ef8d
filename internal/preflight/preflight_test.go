package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nvrgraph/internal/config"
	"nvrgraph/internal/device"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "model.xml")
	if err := os.WriteFile(f, []byte("<xml/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("model", f); !r.Passed {
		t.Fatalf("expected readable file, got %s", r.Detail)
	}
	if r := CheckFileReadable("model", dir); r.Passed || !strings.Contains(r.Detail, "is a directory") {
		t.Fatalf("expected directory failure, got %+v", r)
	}
	if r := CheckFileReadable("model", ""); r.Passed || r.Detail != "not configured" {
		t.Fatalf("expected not configured, got %+v", r)
	}
}

func TestCheckOutputFile(t *testing.T) {
	dir := t.TempDir()
	if r := CheckOutputFile("out", filepath.Join(dir, "out.mp4")); !r.Passed {
		t.Fatalf("expected writable output dir, got %s", r.Detail)
	}
	if r := CheckOutputFile("out", filepath.Join(dir, "missing", "out.mp4")); r.Passed {
		t.Fatal("expected failure for missing output directory")
	}
}

func TestCheckRenderNode(t *testing.T) {
	dir := t.TempDir()
	old := driDir
	driDir = dir
	t.Cleanup(func() { driDir = old })

	if err := os.WriteFile(filepath.Join(dir, "renderD129"), nil, 0o666); err != nil {
		t.Fatal(err)
	}
	if r := CheckRenderNode("dev", device.MustParse("GPU.1")); !r.Passed {
		t.Fatalf("expected render node to be accessible: %s", r.Detail)
	}
	if r := CheckRenderNode("dev", device.MustParse("GPU.3")); r.Passed || !strings.Contains(r.Detail, "renderD131") {
		t.Fatalf("expected missing render node, got %+v", r)
	}
	if r := CheckRenderNode("dev", device.CPU); !r.Passed {
		t.Fatalf("CPU should not need a render node: %s", r.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_InferenceConfig(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	model := filepath.Join(dir, "det.xml")
	for _, f := range []string{video, model} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Input.VideoPath = video
	cfg.Output.VideoOutputPath = filepath.Join(dir, "out.mp4")
	cfg.Output.RecordingDir = dir
	cfg.Detection.ModelPath = model

	results := RunAll(&cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	want := "Input video,Output video,Recording directory,Detection model,Detection device"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("checks = %s, want %s", got, want)
	}
	if len(Failed(results)) != 0 {
		t.Fatal("expected no failures")
	}
}

func TestRunAll_ClassificationAndPlainChannels(t *testing.T) {
	cfg := config.Default()
	cfg.Output.RecordingDir = t.TempDir()
	cfg.Classification.ModelPath = filepath.Join(t.TempDir(), "missing.xml")

	results := RunAll(&cfg)
	var found bool
	for _, r := range results {
		if r.Name == "Classification model" {
			found = true
			if r.Passed {
				t.Fatal("missing classification model should fail")
			}
		}
	}
	if !found {
		t.Fatal("expected classification model check")
	}

	cfg.Channels.Inference = 0
	cfg.Channels.Regular = 2
	for _, r := range RunAll(&cfg) {
		if strings.Contains(r.Name, "model") || strings.Contains(r.Name, "Detection") {
			t.Fatalf("plain-only config should skip %q", r.Name)
		}
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Launcher = "definitely-missing-launcher"
	cfg.Catalog.Inspector = "definitely-missing-inspector"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[1].Optional {
		t.Fatal("inspector is required for the inspect catalog source")
	}
	cfg.Catalog.Source = config.CatalogSourceStatic
	if !CheckSystemDeps(&cfg)[1].Optional {
		t.Fatal("inspector should be optional for static catalogs")
	}
}
