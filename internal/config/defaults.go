package config

// Send formats accepted by the ntfy client.
const (
	SendFormatText = "text"
	SendFormatJSON = "json"
)

const (
	defaultServerURL               = "https://ntfy.sh"
	defaultTopic                   = "herald-notifications"
	defaultPriority                = 3
	defaultNtfyTimeoutSeconds      = 30
	defaultRetryMaxAttempts        = 3
	defaultRetryBaseDelayMillis    = 100
	defaultRetryMaxDelayMillis     = 5000
	defaultRetryBackoffMultiplier  = 2.0
	defaultRetryJitterFactor       = 0.1
	defaultDaemonMaxRetries        = 3
	defaultDaemonRetryDelaySeconds = 5
	defaultQueueCapacity           = 1024
	defaultLogLevel                = "info"
	defaultLogFormat               = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Ntfy: Ntfy{
			ServerURL:       defaultServerURL,
			DefaultTopic:    defaultTopic,
			DefaultPriority: defaultPriority,
			TimeoutSeconds:  defaultNtfyTimeoutSeconds,
			SendFormat:      SendFormatText,
		},
		Retry: Retry{
			MaxAttempts:       defaultRetryMaxAttempts,
			BaseDelayMillis:   defaultRetryBaseDelayMillis,
			MaxDelayMillis:    defaultRetryMaxDelayMillis,
			BackoffMultiplier: defaultRetryBackoffMultiplier,
			JitterFactor:      defaultRetryJitterFactor,
		},
		Daemon: Daemon{
			MaxRetries:        defaultDaemonMaxRetries,
			RetryDelaySeconds: defaultDaemonRetryDelaySeconds,
			QueueCapacity:     defaultQueueCapacity,
			LogLevel:          defaultLogLevel,
			LogFormat:         defaultLogFormat,
		},
		Hooks: Hooks{
			Enabled: true,
		},
	}
}
