package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "HTTP_ADDR", "TIMEZONE", "SWEEP_TIME", "TELEGRAM_TOKEN",
		"TELEGRAM_CHAT_ID", "REDIS_ADDR", "SWEEP_LOCK_KEY", "NOTIFY_LOG",
		"SHUTDOWN_TIMEOUT_SECONDS", "JOB_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "taskify.db" || cfg.HTTPAddr != "127.0.0.1:8080" || cfg.SweepTime != "10:00" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location != time.Local {
		t.Fatalf("expected local zone, got %v", cfg.Location)
	}
	if !cfg.NotifyLog || cfg.SweepLockKey != "taskify:sweep" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 20*time.Second || cfg.JobTimeout != 30*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.ShutdownTimeout, cfg.JobTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SWEEP_TIME", "07:30")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("NOTIFY_LOG", "false")
	t.Setenv("JOB_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Location.String() != "UTC" || cfg.SweepTime != "07:30" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TelegramChatID != -100123 || cfg.NotifyLog {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JobTimeout != 5*time.Second {
		t.Fatalf("expected 5s job timeout, got %v", cfg.JobTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad zone":           {"TIMEZONE": "Mars/Olympus"},
		"bad sweep time":     {"SWEEP_TIME": "25:00"},
		"token without chat": {"TELEGRAM_TOKEN": "token"},
		"bad chat id":        {"TELEGRAM_CHAT_ID": "abc"},
		"bad bool":           {"NOTIFY_LOG": "maybe"},
		"zero shutdown":      {"SHUTDOWN_TIMEOUT_SECONDS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
