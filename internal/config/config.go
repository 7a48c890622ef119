package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Session
	SessionFile string

	// Poll
	PollInterval    time.Duration
	PollMaxAttempts int
	PollMaxElapsed  time.Duration
	PollMaxFailures int

	// Download
	DownloadDir     string
	DownloadMaxSize int64

	// Rate Limit（クライアント側の送信レート、req/min）
	RateLimitPerMin int
	RateLimitBurst  int

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthCallbackPort  string

	// Metrics
	MetricsAddr string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	cfg.SessionFile = getEnvString("SESSION_FILE", defaultSessionFile())
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 2*time.Second)
	cfg.PollMaxAttempts = getEnvInt("POLL_MAX_ATTEMPTS", 450)
	cfg.PollMaxElapsed = getEnvDuration("POLL_MAX_ELAPSED", 15*time.Minute)
	cfg.PollMaxFailures = getEnvInt("POLL_MAX_FAILURES", 10)
	cfg.DownloadDir = getEnvString("DOWNLOAD_DIR", ".")
	cfg.DownloadMaxSize = getEnvInt64("DOWNLOAD_MAX_SIZE", 104857600)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", 120)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.GoogleClientID = getEnvString("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = getEnvString("GOOGLE_CLIENT_SECRET", "")
	cfg.OAuthCallbackPort = getEnvString("OAUTH_CALLBACK_PORT", "8910")
	cfg.MetricsAddr = getEnvString("METRICS_ADDR", "")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// defaultSessionFile はセッションファイルのデフォルトパスを返す。
// ホームディレクトリが取得できない場合はカレントディレクトリ配下にフォールバックする。
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".projman", "session.json")
	}
	return filepath.Join(home, ".projman", "session.json")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
