package config

const (
	defaultDataDir                  = "~/.local/share/pedidobot"
	defaultLibraryDir               = "~/.local/share/pedidobot/library"
	defaultLogDir                   = "~/.local/share/pedidobot/logs"
	defaultGatewayBind              = "127.0.0.1:7590"
	defaultGatewayRequestTimeout    = 15
	defaultCommandPrefix            = "."
	defaultMinScore                 = 18
	defaultMaxResults               = 5
	defaultGuardWindowSeconds       = 120
	defaultGuardMaxAgeHours         = 6
	defaultGuardSweepAbove          = 2000
	defaultGuardHardLimit           = 3000
	defaultGuardTrimTo              = 1500
	defaultMaxSendMB                = 20
	minSendMB                       = 1
	maxSendMB                       = 500
	defaultClassifierTimeoutSeconds = 10
	defaultClassifierBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierModel          = "google/gemini-3-flash-preview"
	defaultClassifierTitle          = "pedidobot classifier"
	defaultNotifyRequestTimeout     = 10
	defaultRedisChannel             = "pedidobot:events"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Gateway: Gateway{
			Bind:           defaultGatewayBind,
			RequestTimeout: defaultGatewayRequestTimeout,
			CommandPrefix:  defaultCommandPrefix,
		},
		Matching: Matching{
			MinScore:   defaultMinScore,
			MaxResults: defaultMaxResults,
		},
		Guard: Guard{
			WindowSeconds: defaultGuardWindowSeconds,
			MaxAgeHours:   defaultGuardMaxAgeHours,
			SweepAbove:    defaultGuardSweepAbove,
			HardLimit:     defaultGuardHardLimit,
			TrimTo:        defaultGuardTrimTo,
		},
		Files: Files{
			MaxSendMB: defaultMaxSendMB,
		},
		Classifier: Classifier{
			TimeoutSeconds: defaultClassifierTimeoutSeconds,
			BaseURL:        defaultClassifierBaseURL,
			Model:          defaultClassifierModel,
			Title:          defaultClassifierTitle,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RedisChannel:   defaultRedisChannel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
