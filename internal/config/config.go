// Package config loads and validates the simulation configuration from the
// environment, with an optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MemoryCaps are the per-tier retention limits.
type MemoryCaps struct {
	Working  int
	Recent   int
	Longterm int
}

// Config is the full configuration surface of the core.
type Config struct {
	TickIntervalSeconds int     // Real seconds between tick boundaries; 1:1 in-world minutes
	DayStartHour        float64 // Morning wake window start
	DayEndHour          float64 // Evening sleep boundary

	UseLLM             bool
	LLMModel           string
	LLMAPIKey          string
	LLMCacheSize       int
	LLMCacheTTLSeconds int

	Memory          MemoryCaps
	EventHistoryCap int

	HTTPPort           int
	DBPath             string
	Seed               int64
	SnapshotEveryTicks uint64
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (Config, error) {
	_ = godotenv.Load() // Missing .env is fine

	cfg := Config{
		TickIntervalSeconds: envInt("VILLAGE_TICK_INTERVAL_SECONDS", 30),
		DayStartHour:        envFloat("VILLAGE_DAY_START_HOUR", 6.0),
		DayEndHour:          envFloat("VILLAGE_DAY_END_HOUR", 22.0),
		UseLLM:              envBool("VILLAGE_USE_LLM", true),
		LLMModel:            os.Getenv("VILLAGE_LLM_MODEL"),
		LLMAPIKey:           os.Getenv("ANTHROPIC_API_KEY"),
		LLMCacheSize:        envInt("VILLAGE_LLM_CACHE_SIZE", 1000),
		LLMCacheTTLSeconds:  envInt("VILLAGE_LLM_CACHE_TTL_SECONDS", 3600),
		Memory: MemoryCaps{
			Working:  envInt("VILLAGE_MEMORY_CAP_WORKING", 10),
			Recent:   envInt("VILLAGE_MEMORY_CAP_RECENT", 7),
			Longterm: envInt("VILLAGE_MEMORY_CAP_LONGTERM", 50),
		},
		EventHistoryCap:    envInt("VILLAGE_EVENT_HISTORY_CAP", 1000),
		HTTPPort:           envInt("VILLAGE_HTTP_PORT", 8080),
		DBPath:             envString("VILLAGE_DB_PATH", "data/village.db"),
		Seed:               int64(envInt("VILLAGE_SEED", 42)),
		SnapshotEveryTicks: uint64(envInt("VILLAGE_SNAPSHOT_EVERY_TICKS", 20)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the scheduler must not start with.
func (c Config) Validate() error {
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick_interval_seconds must be positive, got %d", c.TickIntervalSeconds)
	}
	if c.DayStartHour < 0 || c.DayStartHour >= 24 {
		return fmt.Errorf("day_start_hour out of range: %v", c.DayStartHour)
	}
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour >= 24 {
		return fmt.Errorf("day_end_hour must be inside (day_start_hour, 24): %v", c.DayEndHour)
	}
	if c.Memory.Working <= 0 || c.Memory.Recent <= 0 || c.Memory.Longterm <= 0 {
		return fmt.Errorf("memory caps must be positive: %+v", c.Memory)
	}
	if c.EventHistoryCap <= 0 {
		return fmt.Errorf("event_history_cap must be positive, got %d", c.EventHistoryCap)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port out of range: %d", c.HTTPPort)
	}
	if c.LLMCacheSize <= 0 || c.LLMCacheTTLSeconds <= 0 {
		return fmt.Errorf("llm cache size and ttl must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
