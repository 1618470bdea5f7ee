// Package config loads room configuration from HCL files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardroom/cardroom/internal/game"
)

// Config is the full runtime configuration.
type Config struct {
	Room  RoomConfig   `hcl:"room,block"`
	Redis *RedisConfig `hcl:"redis,block"`
}

// RoomConfig defines one room's stakes and timing.
type RoomConfig struct {
	Name         string `hcl:"name,label"`
	SmallBlind   int    `hcl:"small_blind"`
	BigBlind     int    `hcl:"big_blind"`
	EntryFee     int    `hcl:"entry_fee,optional"`
	MinPlayers   int    `hcl:"min_players,optional"`
	TurnSeconds  int    `hcl:"turn_seconds,optional"`
	PollMillis   int    `hcl:"poll_ms,optional"`
	LeaseSeconds int    `hcl:"lease_seconds,optional"`
}

// RedisConfig points at the shared record store.
type RedisConfig struct {
	Addr     string `hcl:"addr,optional"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Room: RoomConfig{
			Name:        "main",
			SmallBlind:  1,
			BigBlind:    2,
			MinPlayers:  2,
			TurnSeconds: 30,
			PollMillis:  250,
		},
		Redis: &RedisConfig{Addr: "localhost:6379"},
	}
}

// Load reads configuration from an HCL file, applying defaults for missing
// values. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if cfg.Room.MinPlayers == 0 {
		cfg.Room.MinPlayers = 2
	}
	if cfg.Room.TurnSeconds == 0 {
		cfg.Room.TurnSeconds = 30
	}
	if cfg.Room.PollMillis == 0 {
		cfg.Room.PollMillis = 250
	}
	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Room.Name == "" {
		return fmt.Errorf("room name is required")
	}
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("room %s: %w", c.Room.Name, err)
	}
	if c.Room.PollMillis < 50 || c.Room.PollMillis > 1000 {
		return fmt.Errorf("room %s: poll_ms must be between 50 and 1000", c.Room.Name)
	}
	return nil
}

// Rules returns the table stakes as engine rules.
func (c *Config) Rules() game.Rules {
	return game.Rules{
		SmallBlind:  c.Room.SmallBlind,
		BigBlind:    c.Room.BigBlind,
		EntryFee:    c.Room.EntryFee,
		MinPlayers:  c.Room.MinPlayers,
		TurnTimeout: time.Duration(c.Room.TurnSeconds) * time.Second,
	}
}

// PollInterval returns the coordinator poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Room.PollMillis) * time.Millisecond
}

// LeaseTTL returns the leader lease duration. It defaults to several poll
// periods so a leader survives a missed tick without losing the room.
func (c *Config) LeaseTTL() time.Duration {
	if c.Room.LeaseSeconds > 0 {
		return time.Duration(c.Room.LeaseSeconds) * time.Second
	}
	return 12 * c.PollInterval()
}
