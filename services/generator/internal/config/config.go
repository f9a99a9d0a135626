package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/music-odyssey/internal/platform/config"
	"github.com/example/music-odyssey/internal/schedule"
)

type Config struct {
	LogLevel    string
	LogFormat   string
	Output      string
	Start       time.Time
	TargetCount int
	SeedList    string
	// RandomSeed is set when GENERATOR_RANDOM_SEED is; shuffles are then
	// reproducible.
	RandomSeed *uint64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		LogLevel:    config.EnvString("LOG_LEVEL", "info"),
		LogFormat:   config.EnvString("LOG_FORMAT", "console"),
		Output:      config.EnvString("GENERATOR_OUTPUT", "schedule_seed.json"),
		TargetCount: 365,
		SeedList:    strings.TrimSpace(os.Getenv("GENERATOR_SEED_LIST")),
	}
	if raw := strings.TrimSpace(os.Getenv("GENERATOR_TARGET_COUNT")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("GENERATOR_TARGET_COUNT must be a positive integer, got %q", raw)
		}
		cfg.TargetCount = n
	}

	startRaw := config.EnvString("GENERATOR_START_DATE", "2026-01-01")
	start, err := time.Parse(schedule.DateLayout, startRaw)
	if err != nil {
		return Config{}, fmt.Errorf("GENERATOR_START_DATE: %w", err)
	}
	cfg.Start = start

	if v := strings.TrimSpace(os.Getenv("GENERATOR_RANDOM_SEED")); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GENERATOR_RANDOM_SEED: %w", err)
		}
		cfg.RandomSeed = &seed
	}
	return cfg, nil
}
