package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://localhost:8000")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "http://localhost:8000")
	}
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("必須環境変数が未設定の場合はエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "API_BASE_URL") {
		t.Errorf("エラーメッセージに未設定の変数名が含まれていない: %v", err)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, 30*time.Second)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 2*time.Second)
	}
	if cfg.PollMaxAttempts != 450 {
		t.Errorf("PollMaxAttempts = %d, want %d", cfg.PollMaxAttempts, 450)
	}
	if cfg.PollMaxElapsed != 15*time.Minute {
		t.Errorf("PollMaxElapsed = %v, want %v", cfg.PollMaxElapsed, 15*time.Minute)
	}
	if cfg.PollMaxFailures != 10 {
		t.Errorf("PollMaxFailures = %d, want %d", cfg.PollMaxFailures, 10)
	}
	if cfg.DownloadMaxSize != 104857600 {
		t.Errorf("DownloadMaxSize = %d, want %d", cfg.DownloadMaxSize, 104857600)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Errorf("RateLimitPerMin = %d, want %d", cfg.RateLimitPerMin, 120)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFileのデフォルト値が空になっている")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_OverrideValues(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("POLL_MAX_ATTEMPTS", "20")
	t.Setenv("SESSION_FILE", "/tmp/projman-session.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 5*time.Second)
	}
	if cfg.PollMaxAttempts != 20 {
		t.Errorf("PollMaxAttempts = %d, want %d", cfg.PollMaxAttempts, 20)
	}
	if cfg.SessionFile != "/tmp/projman-session.json" {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, "/tmp/projman-session.json")
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("POLL_MAX_ATTEMPTS", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.PollInterval != 2*time.Second {
		t.Errorf("不正なPOLL_INTERVALはデフォルト値に戻るべき: got %v", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 450 {
		t.Errorf("不正なPOLL_MAX_ATTEMPTSはデフォルト値に戻るべき: got %d", cfg.PollMaxAttempts)
	}
}
