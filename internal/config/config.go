package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/golang/geo/r3"

	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
)

// Config holds all configuration for the simulator
type Config struct {
	// Core settings
	SimulatorName string
	OPCUAPort     int
	HealthPort    int
	LogLevel      string
	ConfigFile    string

	// Timing settings
	FrameInterval   time.Duration
	PublishInterval time.Duration

	// Arm geometry
	Link1 kinematics.LinkParams
	Link2 kinematics.LinkParams

	// Mission settings
	Home         r3.Vector
	Start        r3.Vector
	Goal         r3.Vector
	Speed        float64 // end-effector speed, units/s
	PickDwell    time.Duration
	PlaceDwell   time.Duration
	ResetWait    time.Duration
	ObjectOffset float64
	AutoStart    bool

	// Event reporting, disabled when EventEndpoint is empty
	EventEndpoint string
	EventPath     string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		SimulatorName: "PickPlaceArm-01",
		OPCUAPort:     4840,
		HealthPort:    8081,
		LogLevel:      "info",

		FrameInterval:   16 * time.Millisecond,
		PublishInterval: 250 * time.Millisecond,

		Link1: kinematics.LinkParams{Length: 3.0, Mass: 2.0},
		Link2: kinematics.LinkParams{Length: 2.6, Mass: 1.6},

		Home:         r3.Vector{X: 2, Y: 2, Z: 2},
		Start:        r3.Vector{X: 1, Y: 2, Z: 1},
		Goal:         r3.Vector{X: 2, Y: 3, Z: 2},
		Speed:        1.75,
		PickDwell:    450 * time.Millisecond,
		PlaceDwell:   350 * time.Millisecond,
		ResetWait:    1500 * time.Millisecond,
		ObjectOffset: 0.22,

		EventPath: "/api/simulator/events",
	}
}

// Load reads configuration with precedence: env > CONFIG_FILE > defaults
func Load() (*Config, error) {
	cfg := Default()

	cfg.ConfigFile = getEnvOrDefault("CONFIG_FILE", "")
	if cfg.ConfigFile != "" {
		fileCfg, err := loadFile(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		if err := fileCfg.apply(cfg); err != nil {
			return nil, fmt.Errorf("merge config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// Core settings
	cfg.SimulatorName = getEnvOrDefault("SIMULATOR_NAME", cfg.SimulatorName)
	cfg.OPCUAPort = getEnvAsIntOrDefault("OPCUA_PORT", cfg.OPCUAPort)
	cfg.HealthPort = getEnvAsIntOrDefault("HEALTH_PORT", cfg.HealthPort)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	// Timing settings
	cfg.FrameInterval = getDurationOrDefault("FRAME_INTERVAL", cfg.FrameInterval)
	cfg.PublishInterval = getDurationOrDefault("PUBLISH_INTERVAL", cfg.PublishInterval)

	// Arm geometry
	cfg.Link1.Length = getEnvAsFloatOrDefault("LINK1_LENGTH", cfg.Link1.Length)
	cfg.Link1.Mass = getEnvAsFloatOrDefault("LINK1_MASS", cfg.Link1.Mass)
	cfg.Link2.Length = getEnvAsFloatOrDefault("LINK2_LENGTH", cfg.Link2.Length)
	cfg.Link2.Mass = getEnvAsFloatOrDefault("LINK2_MASS", cfg.Link2.Mass)

	// Mission settings
	var err error
	if cfg.Home, err = getEnvAsPointOrDefault("HOME_POINT", cfg.Home); err != nil {
		return err
	}
	if cfg.Start, err = getEnvAsPointOrDefault("START_POINT", cfg.Start); err != nil {
		return err
	}
	if cfg.Goal, err = getEnvAsPointOrDefault("GOAL_POINT", cfg.Goal); err != nil {
		return err
	}
	cfg.Speed = getEnvAsFloatOrDefault("EE_SPEED", cfg.Speed)
	cfg.PickDwell = getDurationOrDefault("PICK_DWELL", cfg.PickDwell)
	cfg.PlaceDwell = getDurationOrDefault("PLACE_DWELL", cfg.PlaceDwell)
	cfg.ResetWait = getDurationOrDefault("RESET_WAIT", cfg.ResetWait)
	cfg.ObjectOffset = getEnvAsFloatOrDefault("OBJECT_OFFSET", cfg.ObjectOffset)
	cfg.AutoStart = getEnvAsBoolOrDefault("AUTO_START", cfg.AutoStart)

	// Event reporting
	cfg.EventEndpoint = getEnvOrDefault("EVENT_ENDPOINT", cfg.EventEndpoint)
	cfg.EventPath = getEnvOrDefault("EVENT_PATH", cfg.EventPath)

	return nil
}

// Validate rejects values the simulator cannot run with
func (c *Config) Validate() error {
	if c.OPCUAPort < 1 || c.OPCUAPort > 65535 {
		return fmt.Errorf("OPC UA port must be between 1 and 65535, got %d", c.OPCUAPort)
	}
	if c.HealthPort < 1 || c.HealthPort > 65535 {
		return fmt.Errorf("health port must be between 1 and 65535, got %d", c.HealthPort)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %s", c.FrameInterval)
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be positive, got %s", c.PublishInterval)
	}
	if !positive(c.Link1.Length) || !positive(c.Link2.Length) {
		return fmt.Errorf("link lengths must be positive and finite, got %g and %g", c.Link1.Length, c.Link2.Length)
	}
	if !nonNegative(c.Link1.Mass) || !nonNegative(c.Link2.Mass) {
		return fmt.Errorf("link masses must be finite and not negative, got %g and %g", c.Link1.Mass, c.Link2.Mass)
	}
	if !inRange(c.Speed, MinSpeed, MaxSpeed) {
		return fmt.Errorf("speed must be between %g and %g, got %g", MinSpeed, MaxSpeed, c.Speed)
	}
	if c.PickDwell < 0 || c.PlaceDwell < 0 || c.ResetWait < 0 {
		return fmt.Errorf("dwell times must not be negative")
	}
	if !nonNegative(c.ObjectOffset) {
		return fmt.Errorf("object offset must be finite and not negative, got %g", c.ObjectOffset)
	}
	return nil
}

// The helpers below are written so that NaN fails every check

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// SequencerParams returns the mission timing for the sequencer
func (c *Config) SequencerParams() sequencer.Params {
	return sequencer.Params{
		PickDwell:    c.PickDwell,
		PlaceDwell:   c.PlaceDwell,
		ResetWait:    c.ResetWait,
		ObjectOffset: c.ObjectOffset,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Points are operator input, so a malformed value fails loudly instead of
// silently falling back like the numeric helpers.
func getEnvAsPointOrDefault(key string, defaultValue r3.Vector) (r3.Vector, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	p, err := core.ParsePoint(value)
	if err != nil {
		return r3.Vector{}, fmt.Errorf("%s: %w", key, err)
	}
	return p, nil
}
