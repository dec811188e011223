package main

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/boardview"
	"github.com/gogpu/boardview/board"
)

// Config is the CLI configuration file.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Camera CameraConfig `yaml:"camera"`
	Engine EngineConfig `yaml:"engine"`
	Store  StoreConfig  `yaml:"store"`
}

// OutputConfig controls rendered images.
type OutputConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Labels bool   `yaml:"labels"`
	Clear  string `yaml:"clear"`
}

// CameraConfig places the look-at camera. A zero eye frames the board.
type CameraConfig struct {
	Eye    [3]float64 `yaml:"eye"`
	Target [3]float64 `yaml:"target"`
	FOV    float64    `yaml:"fov"` // degrees
}

// EngineConfig maps onto the engine options.
type EngineConfig struct {
	LayerOffset float64             `yaml:"layer_offset"`
	StackOffset float64             `yaml:"stack_offset"`
	HoleSlack   float64             `yaml:"hole_slack"`
	GizmoRadius float64             `yaml:"gizmo_radius"`
	Materials   boardview.Materials `yaml:"materials"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Width: 1024, Height: 768},
		Camera: CameraConfig{FOV: 45},
		Store:  StoreConfig{Path: "boardview.db"},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults; an empty path skips reading.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Output.Width <= 0 || cfg.Output.Height <= 0 {
		return nil, fmt.Errorf("config: output size %dx%d must be positive", cfg.Output.Width, cfg.Output.Height)
	}
	return cfg, nil
}

// Options returns the engine options the configuration selects.
func (c *Config) Options() []boardview.Option {
	return []boardview.Option{
		boardview.WithLayerOffsets(c.Engine.LayerOffset, c.Engine.StackOffset),
		boardview.WithHoleSlack(c.Engine.HoleSlack),
		boardview.WithGizmoRadius(c.Engine.GizmoRadius),
		boardview.WithMaterials(c.Engine.Materials),
		boardview.WithSnapshotLabels(c.Output.Labels),
		boardview.WithClearColor(c.Output.Clear),
	}
}

// CameraFor returns the configured camera for a board.
func (c *Config) CameraFor(cfg board.BoardConfig) *boardview.LookAtCamera {
	w, h := float64(c.Output.Width), float64(c.Output.Height)
	if c.Camera.Eye == ([3]float64{}) {
		return boardview.DefaultCamera(cfg, w, h)
	}
	fov := c.Camera.FOV
	if fov <= 0 {
		fov = 45
	}
	return boardview.NewLookAtCamera(c.Camera.Eye, c.Camera.Target, fov*math.Pi/180, w, h)
}
