package config

import (
	"fmt"
	"os"
	"strings"
)

// fileKeys records keys the config file set explicitly, so environment
// fallbacks never override them.
type fileKeys struct {
	Classification struct {
		ModelPath *string `toml:"model_path"`
	} `toml:"classification"`
}

func (c *Config) normalize(keys fileKeys) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMedia(); err != nil {
		return err
	}
	if err := c.normalizeModels(keys.Classification.ModelPath != nil); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeCatalog()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.CatalogCache, err = expandPath(strings.TrimSpace(c.Paths.CatalogCache)); err != nil {
		return fmt.Errorf("paths.catalog_cache: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() error {
	var err error
	c.Input.VideoPath = strings.TrimSpace(c.Input.VideoPath)
	if c.Input.VideoPath == "" {
		if value, ok := os.LookupEnv("NVRGRAPH_VIDEO_PATH"); ok {
			c.Input.VideoPath = strings.TrimSpace(value)
		}
	}
	if c.Input.VideoPath, err = expandPath(c.Input.VideoPath); err != nil {
		return fmt.Errorf("input.video_path: %w", err)
	}
	if strings.TrimSpace(c.Output.VideoOutputPath) == "" {
		c.Output.VideoOutputPath = defaultVideoOutputPath
	}
	if c.Output.VideoOutputPath, err = expandPath(strings.TrimSpace(c.Output.VideoOutputPath)); err != nil {
		return fmt.Errorf("output.video_output_path: %w", err)
	}
	if strings.TrimSpace(c.Output.RecordingDir) == "" {
		c.Output.RecordingDir = defaultRecordingDir
	}
	if c.Output.RecordingDir, err = expandPath(strings.TrimSpace(c.Output.RecordingDir)); err != nil {
		return fmt.Errorf("output.recording_dir: %w", err)
	}
	if c.Channels.Max <= 0 {
		c.Channels.Max = defaultMaxChannels
	}
	return nil
}

func (c *Config) normalizeModels(classificationSet bool) error {
	var err error
	c.Detection.ModelPath = strings.TrimSpace(c.Detection.ModelPath)
	if c.Detection.ModelPath == "" {
		if value, ok := os.LookupEnv("NVRGRAPH_DETECTION_MODEL"); ok {
			c.Detection.ModelPath = strings.TrimSpace(value)
		}
	}
	if c.Detection.ModelPath, err = expandPath(c.Detection.ModelPath); err != nil {
		return fmt.Errorf("detection.model_path: %w", err)
	}
	if c.Detection.ModelProc, err = expandPath(strings.TrimSpace(c.Detection.ModelProc)); err != nil {
		return fmt.Errorf("detection.model_proc: %w", err)
	}
	c.Detection.Device = normalizeDevice(c.Detection.Device)

	c.Classification.ModelPath = strings.TrimSpace(c.Classification.ModelPath)
	if value, ok := os.LookupEnv("NVRGRAPH_CLASSIFICATION_MODEL"); ok && !classificationSet {
		if value = strings.TrimSpace(value); value != "" {
			c.Classification.ModelPath = value
		}
	}
	switch {
	case c.Classification.ModelPath == "" || strings.EqualFold(c.Classification.ModelPath, Disabled):
		c.Classification.ModelPath = Disabled
	default:
		if c.Classification.ModelPath, err = expandPath(c.Classification.ModelPath); err != nil {
			return fmt.Errorf("classification.model_path: %w", err)
		}
	}
	if c.Classification.ModelProc, err = expandPath(strings.TrimSpace(c.Classification.ModelProc)); err != nil {
		return fmt.Errorf("classification.model_proc: %w", err)
	}
	c.Classification.Device = normalizeDevice(c.Classification.Device)
	return nil
}

func normalizeDevice(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultDevice
	}
	return value
}

func (c *Config) normalizePipeline() {
	c.Pipeline.Template = strings.ToLower(strings.TrimSpace(c.Pipeline.Template))
	if c.Pipeline.Template == "" {
		c.Pipeline.Template = defaultTemplate
	}
	c.Pipeline.Launcher = strings.TrimSpace(c.Pipeline.Launcher)
	if c.Pipeline.Launcher == "" {
		c.Pipeline.Launcher = defaultLauncher
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	if c.Catalog.Source == "" {
		c.Catalog.Source = CatalogSourceInspect
	}
	c.Catalog.Inspector = strings.TrimSpace(c.Catalog.Inspector)
	if c.Catalog.Inspector == "" {
		c.Catalog.Inspector = defaultInspector
	}
	names := make([]string, 0, len(c.Catalog.Elements))
	seen := make(map[string]struct{}, len(c.Catalog.Elements))
	for _, name := range c.Catalog.Elements {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	c.Catalog.Elements = names
	if c.Catalog.CacheTTLSeconds < 0 {
		c.Catalog.CacheTTLSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
