// Package config loads the renderer configuration from YAML, layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Common validation errors
var (
	ErrInvalidWindowSize = errors.New("window width and height must be positive")
	ErrInvalidGrid       = errors.New("grid size and spacing must be positive")
	ErrInvalidCamera     = errors.New("camera requires 0 < fovy < 180 and 0 < znear < zfar")
	ErrInvalidPresent    = errors.New("present mode must be \"vsync\" or \"uncapped\"")
)

// Config is the root of the configuration document.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Scene    SceneConfig    `yaml:"scene"`
	Camera   CameraConfig   `yaml:"camera"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// WindowConfig describes the application window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig holds surface and frame options.
type RendererConfig struct {
	// PresentMode is either "vsync" or "uncapped".
	PresentMode          string     `yaml:"present_mode"`
	ForceFallbackAdapter bool       `yaml:"force_fallback_adapter"`
	ClearColor           ClearColor `yaml:"clear_color"`
	Profiling            bool       `yaml:"profiling"`
}

// SceneConfig controls the instanced model and the grid it is laid out on.
type SceneConfig struct {
	Model    string  `yaml:"model"`
	GridSize int     `yaml:"grid_size"`
	Spacing  float32 `yaml:"spacing"`
}

// CameraConfig holds the initial camera placement, projection and controller speed.
type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	Up     [3]float32 `yaml:"up"`
	// FovY is the vertical field of view in degrees.
	FovY  float32 `yaml:"fovy"`
	ZNear float32 `yaml:"znear"`
	ZFar  float32 `yaml:"zfar"`
	Speed float32 `yaml:"speed"`
}

// AssetsConfig locates the asset directory.
type AssetsConfig struct {
	Dir           string `yaml:"dir"`
	DecodeWorkers int    `yaml:"decode_workers"`
	Progress      bool   `yaml:"progress"`
}

// ClearColor is an RGBA clear colour. In YAML it is either a list of 3 or 4 floats
// or a hex string such as "#1a334d".
type ClearColor struct {
	R, G, B, A float64
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ClearColor) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		col, err := colorful.Hex(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: clear_color: %w", value.Line, err)
		}
		*c = ClearColor{R: col.R, G: col.G, B: col.B, A: 1}
		return nil
	case yaml.SequenceNode:
		var parts []float64
		if err := value.Decode(&parts); err != nil {
			return fmt.Errorf("line %d: clear_color: %w", value.Line, err)
		}
		switch len(parts) {
		case 3:
			*c = ClearColor{R: parts[0], G: parts[1], B: parts[2], A: 1}
		case 4:
			*c = ClearColor{R: parts[0], G: parts[1], B: parts[2], A: parts[3]}
		default:
			return fmt.Errorf("line %d: clear_color needs 3 or 4 components, got %d", value.Line, len(parts))
		}
		return nil
	default:
		return fmt.Errorf("line %d: clear_color must be a hex string or a list", value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler, emitting the list form.
func (c ClearColor) MarshalYAML() (any, error) {
	return []float64{c.R, c.G, c.B, c.A}, nil
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "wgpu glfw instancing",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			ClearColor:  ClearColor{R: 0.1, G: 0.2, B: 0.3, A: 1.0},
		},
		Scene: SceneConfig{
			Model:    "cube.obj",
			GridSize: 10,
			Spacing:  3.0,
		},
		Camera: CameraConfig{
			Eye:   [3]float32{0, 5, 10},
			Up:    [3]float32{0, 1, 0},
			FovY:  45,
			ZNear: 0.1,
			ZFar:  100,
			Speed: 0.2,
		},
		Assets: AssetsConfig{
			Dir:           "res",
			DecodeWorkers: 4,
		},
	}
}

// Load reads the YAML file at path over Default and validates the result.
// An empty path returns the defaults.
//
// Parameters:
//   - path: the YAML file to read, or "" for defaults only
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read, parsed, or fails validation
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside renderer initialization.
//
// Returns:
//   - error: the first violated constraint, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return ErrInvalidWindowSize
	}
	if c.Scene.GridSize <= 0 || c.Scene.Spacing <= 0 {
		return ErrInvalidGrid
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 || c.Camera.ZNear <= 0 || c.Camera.ZNear >= c.Camera.ZFar {
		return ErrInvalidCamera
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return ErrInvalidPresent
	}
	return nil
}
