package config

import (
	"fmt"
	"sync"
)

// Runtime limits for speed and time scale
const (
	MinSpeed     = 0.05
	MaxSpeed     = 20.0
	MinTimeScale = 0.1
	MaxTimeScale = 10.0
)

// RuntimeConfig holds configuration values that can be changed at runtime.
// All methods are thread-safe.
type RuntimeConfig struct {
	mu        sync.RWMutex
	speed     float64 // end-effector speed for new legs: 0.05 - 20.0
	timeScale float64 // simulation time multiplier: 0.1 - 10.0 (default 1.0)
	baseSpeed float64 // configured speed before runtime changes
}

// NewRuntimeConfig creates a new RuntimeConfig from the static Config.
func NewRuntimeConfig(cfg *Config) *RuntimeConfig {
	return &RuntimeConfig{
		speed:     cfg.Speed,
		timeScale: 1.0,
		baseSpeed: cfg.Speed,
	}
}

// GetSpeed returns the end-effector speed used for new missions.
func (rc *RuntimeConfig) GetSpeed() float64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.speed
}

// GetTimeScale returns the current simulation time multiplier.
func (rc *RuntimeConfig) GetTimeScale() float64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.timeScale
}

// SetSpeed sets the end-effector speed.
// Valid range: 0.05 - 20.0
func (rc *RuntimeConfig) SetSpeed(speed float64) error {
	if !inRange(speed, MinSpeed, MaxSpeed) {
		return fmt.Errorf("speed must be between %g and %g, got %f", MinSpeed, MaxSpeed, speed)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.speed = speed
	return nil
}

// SetTimeScale sets the simulation time multiplier.
// Valid range: 0.1 - 10.0
func (rc *RuntimeConfig) SetTimeScale(scale float64) error {
	if !inRange(scale, MinTimeScale, MaxTimeScale) {
		return fmt.Errorf("time scale must be between %g and %g, got %f", MinTimeScale, MaxTimeScale, scale)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.timeScale = scale
	return nil
}

// RuntimeConfigSnapshot is a copy of all current values for safe reading.
type RuntimeConfigSnapshot struct {
	Speed     float64
	BaseSpeed float64
	TimeScale float64
}

// Snapshot returns a point-in-time copy of all runtime config values.
func (rc *RuntimeConfig) Snapshot() RuntimeConfigSnapshot {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return RuntimeConfigSnapshot{
		Speed:     rc.speed,
		BaseSpeed: rc.baseSpeed,
		TimeScale: rc.timeScale,
	}
}
