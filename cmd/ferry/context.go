package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"ferry/internal/config"
	"ferry/internal/ipc"
)

// commandContext carries the shared flag state and lazily loaded configuration
// every subcommand needs. Config loading runs at most once per invocation.
type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = c.loadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configValue returns the loaded config or nil when loading failed; callers
// that can degrade gracefully (like `ferry status`) use this form.
func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// socketPath resolves the daemon socket: the --socket flag wins, then the
// configured path, then the conventional per-user location.
func (c *commandContext) socketPath() string {
	if c.socketFlag != nil {
		if flag := strings.TrimSpace(*c.socketFlag); flag != "" {
			return flag
		}
	}
	if cfg := c.configValue(); cfg != nil && cfg.Paths.SocketPath != "" {
		return cfg.Paths.SocketPath
	}
	if path, err := config.ExpandPath("~/.local/share/ferry/ferryd.sock"); err == nil {
		return path
	}
	return filepath.Join(os.TempDir(), "ferryd.sock")
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		switch {
		case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
			return nil, fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `ferry daemon start`", socket)
		case errors.Is(err, syscall.ECONNREFUSED):
			return nil, fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
		default:
			return nil, fmt.Errorf("connect to daemon: %w", err)
		}
	}
	return client, nil
}

// withClient dials the daemon, runs fn, and always closes the connection.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// shouldSkipConfig reports whether cmd or any ancestor opted out of config
// loading (used by `ferry config init`, which must run before a config exists).
func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
