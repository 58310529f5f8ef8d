package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nvrgraph/internal/failures"
	"nvrgraph/internal/testsupport"
)

func TestLayoutCommandSkipsConfig(t *testing.T) {
	// A missing config file must not matter for layout.
	out, _, err := runCLI(t, []string{"layout", "5"}, filepath.Join(t.TempDir(), "missing", "nvrgraph.toml"))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	requireContains(t, out, "3x3 grid")
	requireContains(t, out, "Canvas: 1920x720 (tile 640x360)")
	requireContains(t, out, "1280")
}

func TestLayoutCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, []string{"layout", "--json", "4"}, "")
	if err != nil {
		t.Fatalf("layout --json: %v", err)
	}
	var payload struct {
		Channels int `json:"channels"`
		Side     int `json:"grid_side"`
		Layout   []struct {
			Channel int `json:"channel"`
			X       int `json:"x"`
			Y       int `json:"y"`
		} `json:"layout"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Side != 2 || len(payload.Layout) != 4 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if got := payload.Layout[2]; got.X != 0 || got.Y != 360 {
		t.Fatalf("channel 2 at %+v", got)
	}
}

func TestLayoutCommandRejectsBadCounts(t *testing.T) {
	for _, arg := range []string{"abc", "-1", "257"} {
		_, _, err := runCLI(t, []string{"layout", "--", arg}, "")
		if !errors.Is(err, failures.ErrValidation) {
			t.Fatalf("layout %s: expected validation error, got %v", arg, err)
		}
	}
}

const inspectListing = `vaapi:  vah264dec: VA-API H.264 Decoder
va:  vah264lpenc: VA-API H.264 Low Power Encoder
va:  vacompositor: VA-API Video Compositor
va:  vapostproc: VA-API Video Postprocessor
coreelements:  filesrc: File Source
playback:  decodebin: Decoder Bin
videotestsrc:  videotestsrc: Video test source

Total count: 7 plugins, 7 features`

func TestElementsCommandFromInspector(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedInspector(inspectListing))

	out, _, err := runCLI(t, []string{"elements"}, env.configPath)
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	requireContains(t, out, "vah264lpenc")
	requireContains(t, out, "VA-API Video Compositor")
	requireNotContains(t, out, "videotestsrc")
	requireContains(t, out, "Postprocessor")
	requireContains(t, out, "Stages for CPU")

	if _, err := os.Stat(env.cfg.Paths.CatalogCache); err != nil {
		t.Fatalf("expected catalog cache at %s: %v", env.cfg.Paths.CatalogCache, err)
	}

	all, _, err := runCLI(t, []string{"elements", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("elements --all: %v", err)
	}
	requireContains(t, all, "videotestsrc")
}

func TestElementsCommandReportsUnavailableRoles(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalogElements("decodebin", "compositor"))

	out, _, err := runCLI(t, []string{"elements", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("elements --json: %v", err)
	}
	var payload struct {
		Device string           `json:"device"`
		Roles  []roleResolution `json:"roles"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	byRole := map[string]roleResolution{}
	for _, r := range payload.Roles {
		byRole[r.Role] = r
	}
	if byRole["decoder"].Fragment != "decodebin" {
		t.Fatalf("decoder = %+v", byRole["decoder"])
	}
	enc := byRole["encoder"]
	if enc.Fragment != "" || strings.Join(enc.Candidates, ",") != "vah264lpenc,vah264enc,x264enc" {
		t.Fatalf("encoder = %+v", enc)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK] Ready (command: gst-launch-1.0)")
	requireContains(t, out, "Input video")
	requireContains(t, out, "Detection model")
	requireContains(t, out, "vah264lpenc")
	requireNotContains(t, out, "[ERROR]")
}

func TestCheckCommandFailsOnMissingModel(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	if err := os.Remove(env.cfg.Detection.ModelPath); err != nil {
		t.Fatalf("remove model: %v", err)
	}

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if !errors.Is(err, failures.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite hint, got %v", err)
	}
}

func TestConfigShowRoundTrips(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithChannels(3, 2))

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[channels]")
	requireContains(t, out, "regular = 3")
	requireContains(t, out, "inference = 2")
}

func TestInvalidConfigIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nvrgraph.toml")
	if err := os.WriteFile(path, []byte("[channels]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", dir)

	_, _, err := runCLI(t, []string{"history", "list"}, path)
	if failures.ExitCode(err) != failures.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %v", err)
	}
}

func TestHistoryPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	for range 3 {
		if _, _, err := runCLI(t, []string{"render"}, env.configPath); err != nil {
			t.Fatalf("render: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"history", "prune", "--keep", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 2 render(s)")

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestHistoryShowUnknown(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"history", "show", "deadbeef"}, env.configPath)
	if !errors.Is(err, failures.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryShowResolvesPrefixes(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	testsupport.AddRender(t, store, "aaaa1111-0000-0000-0000-000000000000", "gst-launch-1.0 -q first")
	testsupport.AddRender(t, store, "aaaa2222-0000-0000-0000-000000000000", "gst-launch-1.0 -q second")

	out, _, err := runCLI(t, []string{"history", "show", "aaaa2"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "gst-launch-1.0 -q second")

	_, _, err = runCLI(t, []string{"history", "show", "aaaa"}, env.configPath)
	if !errors.Is(err, failures.ErrValidation) {
		t.Fatalf("expected ambiguous prefix error, got %v", err)
	}

	listed, _, err := runCLI(t, []string{"history", "list", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, listed, "aaaa2222")
	requireNotContains(t, listed, "aaaa1111")
}
