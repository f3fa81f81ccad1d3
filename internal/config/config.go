package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Simulation SimulationConfig
	Log        LogConfig
	Redis      RedisConfig
	Discord    DiscordConfig
	SRD        SRDConfig
}

// SimulationConfig controls the tick driver
type SimulationConfig struct {
	TickRate            int           `env:"SIM_TICK_RATE" envDefault:"20"`
	Duration            time.Duration `env:"SIM_DURATION" envDefault:"5s"`
	MaxTagRemovalPasses int           `env:"SIM_MAX_TAG_REMOVAL_PASSES" envDefault:"256"`
	WorldID             string        `env:"SIM_WORLD_ID" envDefault:"default"`
}

// TickInterval is the simulated time covered by one tick
func (c SimulationConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRate)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// RedisConfig holds Redis-specific configuration. Snapshots stay in memory
// when URL is empty.
type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

// DiscordConfig holds Discord-specific configuration. Notifications are
// mirrored only when both values are set.
type DiscordConfig struct {
	Token     string `env:"DISCORD_TOKEN"`
	ChannelID string `env:"DISCORD_CHANNEL_ID"`
}

// Enabled reports whether notifications should be mirrored to Discord
func (c DiscordConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

// SRDConfig holds D&D 5e SRD import configuration
type SRDConfig struct {
	Import  bool          `env:"SRD_IMPORT" envDefault:"false"`
	Timeout time.Duration `env:"SRD_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file, then parses configuration from the
// environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("SIM_TICK_RATE must be positive, got %d", c.Simulation.TickRate)
	}
	if c.Simulation.Duration < 0 {
		return fmt.Errorf("SIM_DURATION must not be negative, got %s", c.Simulation.Duration)
	}
	if c.Simulation.MaxTagRemovalPasses <= 0 {
		return fmt.Errorf("SIM_MAX_TAG_REMOVAL_PASSES must be positive, got %d", c.Simulation.MaxTagRemovalPasses)
	}
	if (c.Discord.Token == "") != (c.Discord.ChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}
