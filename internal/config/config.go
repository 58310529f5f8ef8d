package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains locations nvrgraph writes to.
type Paths struct {
	LogDir       string `toml:"log_dir"`
	HistoryDB    string `toml:"history_db"`
	CatalogCache string `toml:"catalog_cache"`
}

// Input describes the recorded source replayed on every channel.
type Input struct {
	VideoPath string `toml:"video_path"`
}

// Output contains the composited output file and per-channel recording directory.
type Output struct {
	VideoOutputPath string `toml:"video_output_path"`
	RecordingDir    string `toml:"recording_dir"`
}

// Channels sets how many streams are rendered and how many of them run inference.
type Channels struct {
	Regular   int `toml:"regular"`
	Inference int `toml:"inference"`
	Max       int `toml:"max"`
}

// Detection configures the object detection stage.
type Detection struct {
	ModelPath         string `toml:"model_path"`
	ModelProc         string `toml:"model_proc"`
	Device            string `toml:"device"`
	BatchSize         int    `toml:"batch_size"`
	InferenceInterval int    `toml:"inference_interval"`
	Nireq             int    `toml:"nireq"`
}

// Classification configures the optional object classification stage. Setting
// either ModelPath or Device to "Disabled" removes the stage.
type Classification struct {
	ModelPath          string `toml:"model_path"`
	ModelProc          string `toml:"model_proc"`
	Device             string `toml:"device"`
	BatchSize          int    `toml:"batch_size"`
	InferenceInterval  int    `toml:"inference_interval"`
	Nireq              int    `toml:"nireq"`
	ReclassifyInterval int    `toml:"reclassify_interval"`
}

// Pipeline contains template-wide switches.
type Pipeline struct {
	Template         string `toml:"template"`
	Launcher         string `toml:"launcher"`
	WatermarkEnabled bool   `toml:"watermark_enabled"`
}

// Catalog selects where the installed element list comes from.
type Catalog struct {
	Source          string   `toml:"source"`
	Inspector       string   `toml:"inspector"`
	Elements        []string `toml:"elements"`
	CacheTTLSeconds int      `toml:"cache_ttl_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for nvrgraph.
//
// Configuration sections:
//   - Paths: log directory, render history database, element catalog cache
//   - Input / Output: source video, composited output, recording directory
//   - Channels: regular and inference channel counts
//   - Detection / Classification: model files, devices and batching
//   - Pipeline: template name, launcher, watermark overlay
//   - Catalog: element discovery source and cache lifetime
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Input          Input          `toml:"input"`
	Output         Output         `toml:"output"`
	Channels       Channels       `toml:"channels"`
	Detection      Detection      `toml:"detection"`
	Classification Classification `toml:"classification"`
	Pipeline       Pipeline       `toml:"pipeline"`
	Catalog        Catalog        `toml:"catalog"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	var keys fileKeys
	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}

		decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
		if err := toml.Unmarshal(data, &keys); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(keys); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nvrgraph.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories nvrgraph writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)}
	if c.CacheEnabled() {
		dirs = append(dirs, filepath.Dir(c.Paths.CatalogCache))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheEnabled reports whether probed catalogs are cached on disk.
func (c *Config) CacheEnabled() bool {
	return c.Catalog.Source != CatalogSourceStatic && c.Catalog.CacheTTLSeconds > 0 && c.Paths.CatalogCache != ""
}

// LauncherBinary returns the gst-launch executable name.
func (c *Config) LauncherBinary() string {
	return c.Pipeline.Launcher
}

// InspectorBinary returns the gst-inspect executable name.
func (c *Config) InspectorBinary() string {
	return c.Catalog.Inspector
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCatalogCache() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "nvrgraph", "elements.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/nvrgraph/elements.json"
	}
	return filepath.Join(home, ".cache", "nvrgraph", "elements.json")
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
