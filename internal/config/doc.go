// Package config loads, normalizes, and validates ferry's TOML configuration.
package config
