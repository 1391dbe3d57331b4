package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAreValid(t *testing.T) {
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate(), "the shipped defaults must pass validation")

	assert.Equal(t, int64(5), cfg.Viral.ShareThreshold)
	assert.Equal(t, int64(10), cfg.Viral.MilestoneReferrals)
	assert.Len(t, cfg.Viral.PlatformWeights, 5)
	assert.Len(t, cfg.Commission.Breakpoints, 3)
}

func TestValidateRejectsBadViralParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero share threshold", func(c *Config) { c.Viral.ShareThreshold = 0 }},
		{"negative share threshold", func(c *Config) { c.Viral.ShareThreshold = -5 }},
		{"zero milestone threshold", func(c *Config) { c.Viral.MilestoneReferrals = 0 }},
		{"zero half-life", func(c *Config) { c.Viral.DecayHalfLifeHours = 0 }},
		{"pro multiplier below 1", func(c *Config) { c.Viral.TierMultiplierPro = 0.5 }},
		{"negative pageview weight", func(c *Config) { c.Viral.PageviewWeight = -1 }},
		{"zero featuring duration", func(c *Config) { c.Viral.FeatureDurationFree = 0 }},
		{"negative platform weight", func(c *Config) { c.Viral.PlatformWeights["twitter"] = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidThreshold)
		})
	}
}

func TestValidateRejectsBrokenCommissionSchedule(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty schedule", func(c *Config) { c.Commission.Breakpoints = nil }},
		{"first breakpoint not at age zero", func(c *Config) { c.Commission.Breakpoints[0].MinAgeYears = 0.5 }},
		{"rate above 100 percent", func(c *Config) { c.Commission.Breakpoints[1].RateBps = 10001 }},
		{"negative rate", func(c *Config) { c.Commission.Breakpoints[0].RateBps = -1 }},
		{"decreasing rate", func(c *Config) { c.Commission.Breakpoints[2].RateBps = 100 }},
		{"duplicate breakpoint age", func(c *Config) { c.Commission.Breakpoints[1].MinAgeYears = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidThreshold)
		})
	}
}
