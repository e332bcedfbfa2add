package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ferry/config.toml"
		}
		return fmt.Errorf("store.base_url is required. Edit %s (create with 'ferry config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Store.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("store.base_url must be an absolute URL, got %q", c.Store.BaseURL)
	}
	return nil
}

func (c *Config) validatePolicy() error {
	for _, t := range c.Policy.AllowedTypes {
		if !strings.Contains(t, "/") {
			return fmt.Errorf("policy.allowed_types entry %q is not a MIME type", t)
		}
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if c.Transfer.ChunkSizeMiB > 64 {
		return errors.New("transfer.chunk_size_mib must be 64 or less")
	}
	if c.Transfer.MaxAttempts > 10 {
		return errors.New("transfer.max_attempts must be 10 or less")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	parsed, err := url.Parse(c.Network.ProbeURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("network.probe_url must be an absolute URL, got %q", c.Network.ProbeURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
