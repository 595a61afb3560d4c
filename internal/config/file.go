package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/sebastiankruger/pickplace-simulator/internal/core"
)

// FileConfig is the YAML layout of CONFIG_FILE. Unset keys keep their
// defaults, so every field is optional.
type FileConfig struct {
	SimulatorName   string `yaml:"simulatorName"`
	OPCUAPort       int    `yaml:"opcuaPort"`
	HealthPort      int    `yaml:"healthPort"`
	LogLevel        string `yaml:"logLevel"`
	FrameInterval   string `yaml:"frameInterval"`
	PublishInterval string `yaml:"publishInterval"`

	Arm     ArmFileConfig     `yaml:"arm"`
	Mission MissionFileConfig `yaml:"mission"`
	Events  EventsFileConfig  `yaml:"events"`
}

// EventsFileConfig holds the event reporting section
type EventsFileConfig struct {
	Endpoint string `yaml:"endpoint"`
	Path     string `yaml:"path"`
}

// ArmFileConfig holds the link geometry section
type ArmFileConfig struct {
	Link1 LinkFileConfig `yaml:"link1"`
	Link2 LinkFileConfig `yaml:"link2"`
}

// LinkFileConfig holds one link
type LinkFileConfig struct {
	Length *float64 `yaml:"length"`
	Mass   *float64 `yaml:"mass"`
}

// MissionFileConfig holds the default mission section
type MissionFileConfig struct {
	Home         string   `yaml:"home"`
	Start        string   `yaml:"start"`
	Goal         string   `yaml:"goal"`
	Speed        *float64 `yaml:"speed"`
	PickDwell    string   `yaml:"pickDwell"`
	PlaceDwell   string   `yaml:"placeDwell"`
	ResetWait    string   `yaml:"resetWait"`
	ObjectOffset *float64 `yaml:"objectOffset"`
	AutoStart    *bool    `yaml:"autoStart"`
}

func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// apply copies every set file value onto cfg
func (f *FileConfig) apply(cfg *Config) error {
	if f.SimulatorName != "" {
		cfg.SimulatorName = f.SimulatorName
	}
	if f.OPCUAPort != 0 {
		cfg.OPCUAPort = f.OPCUAPort
	}
	if f.HealthPort != 0 {
		cfg.HealthPort = f.HealthPort
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if err := mergeDuration("frameInterval", f.FrameInterval, &cfg.FrameInterval); err != nil {
		return err
	}
	if err := mergeDuration("publishInterval", f.PublishInterval, &cfg.PublishInterval); err != nil {
		return err
	}

	if f.Events.Endpoint != "" {
		cfg.EventEndpoint = f.Events.Endpoint
	}
	if f.Events.Path != "" {
		cfg.EventPath = f.Events.Path
	}

	mergeFloat(f.Arm.Link1.Length, &cfg.Link1.Length)
	mergeFloat(f.Arm.Link1.Mass, &cfg.Link1.Mass)
	mergeFloat(f.Arm.Link2.Length, &cfg.Link2.Length)
	mergeFloat(f.Arm.Link2.Mass, &cfg.Link2.Mass)

	m := f.Mission
	for _, p := range []struct {
		key  string
		text string
		dst  *r3.Vector
	}{
		{"mission.home", m.Home, &cfg.Home},
		{"mission.start", m.Start, &cfg.Start},
		{"mission.goal", m.Goal, &cfg.Goal},
	} {
		if p.text == "" {
			continue
		}
		v, err := core.ParsePoint(p.text)
		if err != nil {
			return fmt.Errorf("%s: %w", p.key, err)
		}
		*p.dst = v
	}

	mergeFloat(m.Speed, &cfg.Speed)
	mergeFloat(m.ObjectOffset, &cfg.ObjectOffset)
	if m.AutoStart != nil {
		cfg.AutoStart = *m.AutoStart
	}
	if err := mergeDuration("mission.pickDwell", m.PickDwell, &cfg.PickDwell); err != nil {
		return err
	}
	if err := mergeDuration("mission.placeDwell", m.PlaceDwell, &cfg.PlaceDwell); err != nil {
		return err
	}
	return mergeDuration("mission.resetWait", m.ResetWait, &cfg.ResetWait)
}

func mergeFloat(src *float64, dst *float64) {
	if src != nil {
		*dst = *src
	}
}

func mergeDuration(key, src string, dst *time.Duration) error {
	if src == "" {
		return nil
	}
	d, err := time.ParseDuration(src)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
