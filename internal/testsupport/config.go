package testsupport

import (
	"path/filepath"
	"testing"

	"ferry/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "ferryd.sock")
	cfg.Store.BaseURL = "https://objects.invalid"
	cfg.Network.ProbeURL = "https://objects.invalid"
	cfg.Transfer.ChunkSizeMiB = 1
	cfg.Transfer.RetryBackoffSeconds = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStoreURL points the config at a (usually fake) object store endpoint.
func WithStoreURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.BaseURL = url
		cfg.Network.ProbeURL = url
	}
}

// WithAllowedTypes overrides the upload policy's permitted MIME types.
func WithAllowedTypes(types ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Policy.AllowedTypes = types
	}
}

// WithMaxAttempts overrides the transfer retry cap.
func WithMaxAttempts(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transfer.MaxAttempts = n
	}
}
