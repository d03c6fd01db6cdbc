package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TickIntervalSeconds)
	assert.Equal(t, 6.0, cfg.DayStartHour)
	assert.Equal(t, 22.0, cfg.DayEndHour)
	assert.Equal(t, 10, cfg.Memory.Working)
	assert.Equal(t, 7, cfg.Memory.Recent)
	assert.Equal(t, 50, cfg.Memory.Longterm)
	assert.Equal(t, 1000, cfg.EventHistoryCap)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VILLAGE_TICK_INTERVAL_SECONDS", "10")
	t.Setenv("VILLAGE_USE_LLM", "false")
	t.Setenv("VILLAGE_HTTP_PORT", "9000")
	t.Setenv("VILLAGE_DAY_START_HOUR", "7.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TickIntervalSeconds)
	assert.False(t, cfg.UseLLM)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 7.5, cfg.DayStartHour)
}

func TestMalformedEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("VILLAGE_TICK_INTERVAL_SECONDS", "soon")
	t.Setenv("VILLAGE_USE_LLM", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickIntervalSeconds)
	assert.True(t, cfg.UseLLM)
}

func TestValidateRejections(t *testing.T) {
	valid := func() Config {
		return Config{
			TickIntervalSeconds: 30,
			DayStartHour:        6, DayEndHour: 22,
			LLMCacheSize: 100, LLMCacheTTLSeconds: 60,
			Memory:          MemoryCaps{Working: 10, Recent: 7, Longterm: 50},
			EventHistoryCap: 1000,
			HTTPPort:        8080,
		}
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick interval", func(c *Config) { c.TickIntervalSeconds = 0 }},
		{"negative day start", func(c *Config) { c.DayStartHour = -1 }},
		{"day end before start", func(c *Config) { c.DayEndHour = 5 }},
		{"day end past midnight", func(c *Config) { c.DayEndHour = 24 }},
		{"zero memory cap", func(c *Config) { c.Memory.Recent = 0 }},
		{"zero history cap", func(c *Config) { c.EventHistoryCap = 0 }},
		{"port out of range", func(c *Config) { c.HTTPPort = 70000 }},
		{"zero cache size", func(c *Config) { c.LLMCacheSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
