package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the trip binary needs to start
type Config struct {
	DBPath          string
	RemoteURL       string
	APIBind         string
	AuthSecret      string
	LogLevel        string
	LogFile         string
	ReorderDebounce time.Duration
	AnthropicModel  string
	AnthropicKey    string
	RedisURL        string
	AssistantRate   int // requests per minute per client on the AI endpoints
}

const (
	defaultConfigPath     = "~/.config/trip/config.toml"
	defaultDBPath         = "~/.trip/trip.db"
	defaultAPIBind        = "127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.trip/trip.log"
	defaultDebounce       = time.Second
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultAssistantRate  = 10
)

// DefaultPath returns the config file used when none is given
func DefaultPath() string {
	return defaultConfigPath
}

// Defaults returns a config with every field at its default value
func Defaults() Config {
	return Config{
		DBPath:          mustExpand(defaultDBPath),
		APIBind:         defaultAPIBind,
		LogLevel:        defaultLogLevel,
		LogFile:         mustExpand(defaultLogFile),
		ReorderDebounce: defaultDebounce,
		AnthropicModel:  defaultAnthropicModel,
		AssistantRate:   defaultAssistantRate,
	}
}

type fileConfig struct {
	DBPath            string `toml:"db_path"`
	RemoteURL         string `toml:"remote_url"`
	APIBind           string `toml:"api_bind"`
	AuthSecret        string `toml:"auth_secret"`
	LogLevel          string `toml:"log_level"`
	LogFile           string `toml:"log_file"`
	ReorderDebounceMS int    `toml:"reorder_debounce_ms"`
	AnthropicModel    string `toml:"anthropic_model"`
	RedisURL          string `toml:"redis_url"`
	AssistantRate     int    `toml:"assistant_rate_per_minute"`
}

// Load reads the TOML config at path, falling back to defaults when the file
// is missing, then applies environment overrides. A .env file in the working
// directory is loaded first if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DBPath); v != "" {
		cfg.DBPath = mustExpand(v)
	}
	cfg.RemoteURL = strings.TrimSpace(raw.RemoteURL)
	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	cfg.AuthSecret = strings.TrimSpace(raw.AuthSecret)
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.ReorderDebounceMS > 0 {
		cfg.ReorderDebounce = time.Duration(raw.ReorderDebounceMS) * time.Millisecond
	}
	if v := strings.TrimSpace(raw.AnthropicModel); v != "" {
		cfg.AnthropicModel = v
	}
	cfg.RedisURL = strings.TrimSpace(raw.RedisURL)
	if raw.AssistantRate > 0 {
		cfg.AssistantRate = raw.AssistantRate
	}

	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.AnthropicKey = v
	}
	if v := strings.TrimSpace(getenv("TRIP_REMOTE_URL")); v != "" {
		cfg.RemoteURL = v
	}
	if v := strings.TrimSpace(getenv("TRIP_AUTH_SECRET")); v != "" {
		cfg.AuthSecret = v
	}
	if v := strings.TrimSpace(getenv("TRIP_DB")); v != "" {
		cfg.DBPath = mustExpand(v)
	}
	if v := strings.TrimSpace(getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
}

// ExpandPath resolves a leading ~ and makes the path absolute
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
