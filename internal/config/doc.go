// Package config loads, normalizes, and validates nvrgraph configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NVRGRAPH_VIDEO_PATH. The Config type centralizes the channel counts, model
// settings and catalog source the CLI turns into a pipeline request.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
