// Package config reads server settings from the environment, after loading
// a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/engine"
)

type Config struct {
	Addr          string
	LogLevel      string
	TimerInterval time.Duration
	SpawnInterval time.Duration
	KeepAlive     time.Duration
	Rules         engine.Rules
	Seed          int64
}

func Default() Config {
	return Config{
		Addr:          ":8080",
		LogLevel:      "info",
		TimerInterval: time.Second,
		SpawnInterval: time.Second,
		KeepAlive:     30 * time.Second,
		Rules:         engine.DefaultRules(),
	}
}

// Load reads the given .env files (".env" when none are named; a missing file
// is not an error) and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, keeping defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if port := getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if cfg.TimerInterval, err = duration(getenv, "TIMER_INTERVAL", cfg.TimerInterval); err != nil {
		return Config{}, err
	}
	if cfg.SpawnInterval, err = duration(getenv, "SPAWN_INTERVAL", cfg.SpawnInterval); err != nil {
		return Config{}, err
	}
	if cfg.KeepAlive, err = duration(getenv, "WS_KEEPALIVE", cfg.KeepAlive); err != nil {
		return Config{}, err
	}
	if cfg.Rules.BoardSize, err = positive(getenv, "BOARD_SIZE", cfg.Rules.BoardSize); err != nil {
		return Config{}, err
	}
	if cfg.Rules.MaxMoles, err = positive(getenv, "MAX_MOLES", cfg.Rules.MaxMoles); err != nil {
		return Config{}, err
	}
	if cfg.Rules.RoundSeconds, err = positive(getenv, "ROUND_SECONDS", cfg.Rules.RoundSeconds); err != nil {
		return Config{}, err
	}
	if v := getenv("RNG_SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("RNG_SEED: %w", err)
		}
	}
	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

func positive(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
