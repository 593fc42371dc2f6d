// Package config loads the harness configuration from an optional YAML file
// overlaid with STACKPROBE_* environment variables, and validates the result.
package config
