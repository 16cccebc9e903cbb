package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Window struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
	Resizable bool   `yaml:"resizable"`
}

// Viewport is the off-screen scene size the framebuffers are allocated with.
type Viewport struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Scaling string `yaml:"scaling"`
}

type Render struct {
	BatchCapacity   int        `yaml:"batch_capacity"`
	MaxDebugLines   int        `yaml:"max_debug_lines"`
	PickingCooldown Duration   `yaml:"picking_cooldown"`
	TextureFilter   string     `yaml:"texture_filter"`
	ClearColor      [4]float32 `yaml:"clear_color"`
	LineWidth       float32    `yaml:"line_width"`
}

type Shaders struct {
	Default string `yaml:"default"`
	Picking string `yaml:"picking"`
	Line    string `yaml:"line"`
}

type Assets struct {
	Root       string   `yaml:"root"`
	Package    string   `yaml:"package"`
	ExtractDir string   `yaml:"extract_dir"`
	Preload    []string `yaml:"preload"`
	Shaders    Shaders  `yaml:"shaders"`
}

type Log struct {
	Level      string `yaml:"level"`
	RaylibInfo bool   `yaml:"raylib_info"`
}

type Editor struct {
	Grid      bool    `yaml:"grid"`
	GridSize  float32 `yaml:"grid_size"`
	Cursor    string  `yaml:"cursor"`
	ShowStats bool    `yaml:"show_stats"`
}

type Config struct {
	Window   Window   `yaml:"window"`
	Viewport Viewport `yaml:"viewport"`
	Render   Render   `yaml:"render"`
	Assets   Assets   `yaml:"assets"`
	Log      Log      `yaml:"log"`
	Editor   Editor   `yaml:"editor"`
}

// Duration accepts "200ms" style strings in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: Window{
			Width:     1280,
			Height:    720,
			Title:     "Sprite Editor",
			TargetFPS: 60,
			Resizable: true,
		},
		Viewport: Viewport{
			Width:   1920,
			Height:  1080,
			Scaling: "fit",
		},
		Render: Render{
			BatchCapacity:   1000,
			MaxDebugLines:   10000,
			PickingCooldown: Duration{200 * time.Millisecond},
			TextureFilter:   "nearest",
			ClearColor:      [4]float32{0.12, 0.12, 0.14, 1},
			LineWidth:       1,
		},
		Assets: Assets{
			Root:       "assets",
			ExtractDir: "tmp",
			Shaders: Shaders{
				Default: "shaders/default.glsl",
				Picking: "shaders/picking.glsl",
				Line:    "shaders/line2d.glsl",
			},
		},
		Log: Log{
			Level: "warn",
		},
		Editor: Editor{
			Grid:      true,
			GridSize:  32,
			Cursor:    "raylib",
			ShowStats: true,
		},
	}
}

// Load overlays the YAML file at path onto Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport size must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Viewport.Scaling != "fit" && c.Viewport.Scaling != "fill" {
		errs = append(errs, fmt.Errorf("viewport.scaling must be fit or fill, got %q", c.Viewport.Scaling))
	}
	if c.Render.BatchCapacity <= 0 {
		errs = append(errs, fmt.Errorf("render.batch_capacity must be positive, got %d", c.Render.BatchCapacity))
	}
	if c.Render.MaxDebugLines < 0 {
		errs = append(errs, fmt.Errorf("render.max_debug_lines must not be negative, got %d", c.Render.MaxDebugLines))
	}
	if c.Render.PickingCooldown.Duration < 0 {
		errs = append(errs, errors.New("render.picking_cooldown must not be negative"))
	}
	if c.Render.TextureFilter != "nearest" && c.Render.TextureFilter != "linear" {
		errs = append(errs, fmt.Errorf("render.texture_filter must be nearest or linear, got %q", c.Render.TextureFilter))
	}
	if c.Editor.Cursor != "raylib" && c.Editor.Cursor != "x11" {
		errs = append(errs, fmt.Errorf("editor.cursor must be raylib or x11, got %q", c.Editor.Cursor))
	}
	return errors.Join(errs...)
}
