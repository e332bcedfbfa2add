package config

const (
	defaultDataDir              = "~/.local/share/ferry"
	defaultLogDir               = "~/.local/share/ferry/logs"
	defaultSocketPath           = "~/.local/share/ferry/ferryd.sock"
	defaultStoreRequestTimeout  = 30
	defaultOwner                = "anonymous"
	defaultMaxSizeMiB           = 512
	defaultChunkSizeMiB         = 4
	defaultMaxAttempts          = 4
	defaultRetryBackoffSeconds  = 2
	defaultProbeIntervalSeconds = 10
	defaultFailureThreshold     = 2
	defaultNtfyRequestTimeout   = 10
	defaultNotifyLiveLimit      = 5
	defaultNotifyHistoryLimit   = 50
	defaultPollIntervalSeconds  = 1
	defaultMetricsWindowSeconds = 10
	defaultShutdownGraceSeconds = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var defaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
	"application/pdf",
	"video/mp4",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Store: Store{
			RequestTimeout: defaultStoreRequestTimeout,
		},
		Identity: Identity{
			DefaultOwner: defaultOwner,
		},
		Policy: Policy{
			AllowedTypes: append([]string(nil), defaultAllowedTypes...),
			MaxSizeMiB:   defaultMaxSizeMiB,
		},
		Transfer: Transfer{
			ChunkSizeMiB:        defaultChunkSizeMiB,
			MaxAttempts:         defaultMaxAttempts,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
		},
		Network: Network{
			ProbeIntervalSeconds: defaultProbeIntervalSeconds,
			FailureThreshold:     defaultFailureThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			LiveLimit:      defaultNotifyLiveLimit,
			HistoryLimit:   defaultNotifyHistoryLimit,
		},
		Workflow: Workflow{
			PollIntervalSeconds:  defaultPollIntervalSeconds,
			MetricsWindowSeconds: defaultMetricsWindowSeconds,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
