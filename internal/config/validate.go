package config

import (
	"errors"
	"fmt"
	"strings"

	"nvrgraph/internal/device"
)

// MaxChannels is the largest accepted channels.max. Keep in sync with
// pipeline.MaxChannels.
const MaxChannels = 256

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateClassification(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateRender checks the settings only rendering needs.
func (c *Config) ValidateRender() error {
	if strings.TrimSpace(c.Input.VideoPath) == "" {
		return errors.New("input.video_path must be set (or set NVRGRAPH_VIDEO_PATH)")
	}
	if c.Channels.Inference > 0 && strings.TrimSpace(c.Detection.ModelPath) == "" {
		return errors.New("detection.model_path must be set when channels.inference > 0 (or set NVRGRAPH_DETECTION_MODEL)")
	}
	return nil
}

func (c *Config) validateChannels() error {
	if c.Channels.Regular < 0 {
		return errors.New("channels.regular must be >= 0")
	}
	if c.Channels.Inference < 0 {
		return errors.New("channels.inference must be >= 0")
	}
	if c.Channels.Max < 1 || c.Channels.Max > MaxChannels {
		return fmt.Errorf("channels.max must be between 1 and %d", MaxChannels)
	}
	total := c.Channels.Regular + c.Channels.Inference
	if total < 1 {
		return errors.New("channels.regular + channels.inference must be at least 1")
	}
	if total > c.Channels.Max {
		return fmt.Errorf("channels.regular + channels.inference must be <= channels.max (%d), got %d", c.Channels.Max, total)
	}
	return nil
}

func (c *Config) validateDetection() error {
	spec, err := device.Parse(c.Detection.Device)
	if err != nil {
		return fmt.Errorf("detection.device: %w", err)
	}
	if spec.Disabled() {
		return errors.New("detection.device must not be Disabled")
	}
	return validateInference("detection", c.Detection.BatchSize, c.Detection.InferenceInterval, c.Detection.Nireq)
}

func (c *Config) validateClassification() error {
	if _, err := device.Parse(c.Classification.Device); err != nil {
		return fmt.Errorf("classification.device: %w", err)
	}
	if c.Classification.ReclassifyInterval < 0 {
		return errors.New("classification.reclassify_interval must be >= 0")
	}
	return validateInference("classification", c.Classification.BatchSize, c.Classification.InferenceInterval, c.Classification.Nireq)
}

func validateInference(section string, batchSize, interval, nireq int) error {
	if batchSize < 0 {
		return fmt.Errorf("%s.batch_size must be >= 0", section)
	}
	if interval < 1 {
		return fmt.Errorf("%s.inference_interval must be positive", section)
	}
	if nireq < 0 {
		return fmt.Errorf("%s.nireq must be >= 0", section)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if strings.TrimSpace(c.Pipeline.Template) == "" {
		return errors.New("pipeline.template must be set")
	}
	if strings.ContainsAny(c.Pipeline.Launcher, " \t") {
		return errors.New("pipeline.launcher must be a single executable name or path")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case CatalogSourceInspect, CatalogSourceRegistry:
	case CatalogSourceStatic:
		if len(c.Catalog.Elements) == 0 {
			return errors.New("catalog.elements must list at least one element when catalog.source is static")
		}
	default:
		return fmt.Errorf("catalog.source must be %s, %s or %s", CatalogSourceInspect, CatalogSourceRegistry, CatalogSourceStatic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
