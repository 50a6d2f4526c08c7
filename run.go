package pane

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pelletier/go-toml/v2"
)

// RunConfig configures the window opened by Run. It can be loaded from a
// TOML file with LoadRunConfig:
//
//	title = "Windows"
//	width = 816
//	height = 624
//	show_fps = true
type RunConfig struct {
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	ShowFPS bool   `toml:"show_fps"`
	// TPS is the logical update rate. Zero keeps Ebitengine's default (60).
	TPS int `toml:"tps"`
	// Debug turns on Scene debug mode.
	Debug bool `toml:"debug"`
}

// Defaults for zero RunConfig fields.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrInvalidConfig is wrapped by configuration validation errors.
var ErrInvalidConfig = errors.New("pane: invalid run config")

// withDefaults fills zero fields.
func (c RunConfig) withDefaults() RunConfig {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	return c
}

// Validate reports negative sizes or update rates.
func (c RunConfig) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.TPS < 0 {
		return fmt.Errorf("%w: tps %d", ErrInvalidConfig, c.TPS)
	}
	return nil
}

// LoadRunConfig parses TOML data into a RunConfig with defaults applied.
// Unknown keys are rejected.
func LoadRunConfig(data []byte) (RunConfig, error) {
	var cfg RunConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse run config: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// LoadRunConfigFile reads and parses a TOML config file.
func LoadRunConfigFile(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read run config: %w", err)
	}
	return LoadRunConfig(data)
}

// gameShell adapts a Scene to ebiten.Game.
type gameShell struct {
	scene *Scene
	w, h  int
}

func (g *gameShell) Update() error              { return g.scene.Update() }
func (g *gameShell) Draw(screen *ebiten.Image)  { g.scene.Draw(screen) }
func (g *gameShell) Layout(_, _ int) (int, int) { return g.w, g.h }

// Run opens a window and drives scene until the window closes or the scene
// update func returns an error.
func Run(scene *Scene, cfg RunConfig) error {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if cfg.Debug {
		scene.SetDebugMode(true)
	}
	if cfg.ShowFPS {
		scene.Root().AddChild(NewFPSWidget())
	}
	defer scene.Dispose()
	return ebiten.RunGame(&gameShell{scene: scene, w: cfg.Width, h: cfg.Height})
}
