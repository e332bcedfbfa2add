package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeIdentity()
	c.normalizePolicy()
	c.normalizeTransfer()
	c.normalizeNetwork()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.BaseURL = strings.TrimRight(strings.TrimSpace(c.Store.BaseURL), "/")
	c.Store.Token = strings.TrimSpace(c.Store.Token)
	if c.Store.RequestTimeout <= 0 {
		c.Store.RequestTimeout = defaultStoreRequestTimeout
	}
}

func (c *Config) normalizeIdentity() {
	c.Identity.DefaultOwner = strings.TrimSpace(c.Identity.DefaultOwner)
	if c.Identity.DefaultOwner == "" {
		c.Identity.DefaultOwner = defaultOwner
	}
}

func (c *Config) normalizePolicy() {
	types := make([]string, 0, len(c.Policy.AllowedTypes))
	for _, t := range c.Policy.AllowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = append(types, defaultAllowedTypes...)
	}
	c.Policy.AllowedTypes = types
	if c.Policy.MaxSizeMiB <= 0 {
		c.Policy.MaxSizeMiB = defaultMaxSizeMiB
	}
}

func (c *Config) normalizeTransfer() {
	if c.Transfer.ChunkSizeMiB <= 0 {
		c.Transfer.ChunkSizeMiB = defaultChunkSizeMiB
	}
	if c.Transfer.MaxAttempts <= 0 {
		c.Transfer.MaxAttempts = defaultMaxAttempts
	}
	if c.Transfer.RetryBackoffSeconds <= 0 {
		c.Transfer.RetryBackoffSeconds = defaultRetryBackoffSeconds
	}
}

func (c *Config) normalizeNetwork() {
	c.Network.ProbeURL = strings.TrimSpace(c.Network.ProbeURL)
	if c.Network.ProbeURL == "" {
		c.Network.ProbeURL = c.Store.BaseURL
	}
	if c.Network.ProbeIntervalSeconds <= 0 {
		c.Network.ProbeIntervalSeconds = defaultProbeIntervalSeconds
	}
	if c.Network.FailureThreshold <= 0 {
		c.Network.FailureThreshold = defaultFailureThreshold
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	if c.Notifications.LiveLimit <= 0 {
		c.Notifications.LiveLimit = defaultNotifyLiveLimit
	}
	if c.Notifications.HistoryLimit < c.Notifications.LiveLimit {
		c.Notifications.HistoryLimit = defaultNotifyHistoryLimit
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Workflow.MetricsWindowSeconds <= 0 {
		c.Workflow.MetricsWindowSeconds = defaultMetricsWindowSeconds
	}
	if c.Workflow.ShutdownGraceSeconds <= 0 {
		c.Workflow.ShutdownGraceSeconds = defaultShutdownGraceSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
