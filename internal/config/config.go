package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"taskify/internal/timeutil"
)

// Config keeps runtime settings for the service.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	Location        *time.Location
	SweepTime       string
	TelegramToken   string
	TelegramChatID  int64
	RedisAddr       string
	SweepLockKey    string
	NotifyLog       bool
	ShutdownTimeout time.Duration
	JobTimeout      time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   getEnv("DATABASE_URL", "taskify.db"),
		HTTPAddr:      getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		SweepTime:     getEnv("SWEEP_TIME", "10:00"),
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		SweepLockKey:  getEnv("SWEEP_LOCK_KEY", "taskify:sweep"),
	}

	loc, err := loadLocation(getEnv("TIMEZONE", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if _, err := timeutil.ParseMinutes(cfg.SweepTime); err != nil {
		return cfg, fmt.Errorf("SWEEP_TIME: %w", err)
	}

	if cfg.TelegramChatID, err = getEnvAsInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		return cfg, err
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if cfg.NotifyLog, err = getEnvAsBool("NOTIFY_LOG", true); err != nil {
		return cfg, err
	}

	shutdown, err := getEnvAsInt64("SHUTDOWN_TIMEOUT_SECONDS", 20)
	if err != nil {
		return cfg, err
	}
	jobTimeout, err := getEnvAsInt64("JOB_TIMEOUT_SECONDS", 30)
	if err != nil {
		return cfg, err
	}
	if shutdown <= 0 {
		return cfg, fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	if jobTimeout <= 0 {
		return cfg, fmt.Errorf("JOB_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.ShutdownTimeout = time.Duration(shutdown) * time.Second
	cfg.JobTimeout = time.Duration(jobTimeout) * time.Second

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func getEnv(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s", key)
	}
	return i, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s", key)
	}
	return b, nil
}
