package config

const (
	defaultDataDir            = "~/.local/share/audiosurv"
	defaultLogDir             = "~/.local/share/audiosurv/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultScanModel          = "gemini-2.5-flash-lite"
	defaultDeepModel          = "gemini-2.5-pro"
	defaultKeywordModel       = "gemini-2.5-flash"
	defaultDeepBackend        = DeepBackendGemini
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-2.5-pro"
	defaultLLMReferer         = "https://github.com/audiosurv/audiosurv"
	defaultLLMTitle           = "AudioSurv Deep Analysis"
	defaultLLMTimeoutSeconds  = 120
	defaultLLMMaxAttempts     = 1
	defaultStorageBackend     = StorageSQLite
	defaultRedisAddr          = "127.0.0.1:6379"
	defaultRedisPrefix        = "audiosurv:"
	defaultNotifyTimeout      = 10
	defaultNotifyMinRating    = "High"
	defaultServerBind         = "127.0.0.1:7488"
	defaultServerMaxUploadMiB = 32
	defaultSeedDemoAlerts     = true
	defaultNotifyFailures     = true
)

// Deep analysis backends.
const (
	DeepBackendGemini     = "gemini"
	DeepBackendOpenRouter = "openrouter"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Gemini: Gemini{
			ScanModel:    defaultScanModel,
			DeepModel:    defaultDeepModel,
			KeywordModel: defaultKeywordModel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxAttempts:    defaultLLMMaxAttempts,
		},
		Analysis: Analysis{
			DeepBackend: defaultDeepBackend,
		},
		Storage: Storage{
			Backend:        defaultStorageBackend,
			RedisAddr:      defaultRedisAddr,
			RedisPrefix:    defaultRedisPrefix,
			SeedDemoAlerts: defaultSeedDemoAlerts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			MinRating:      defaultNotifyMinRating,
			Failures:       defaultNotifyFailures,
		},
		Server: Server{
			Bind:         defaultServerBind,
			MaxUploadMiB: defaultServerMaxUploadMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
