// Package config loads viewer settings from an optional YAML or TOML file
// and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/toxichemicals/GO/shaderview/camera"
	"github.com/toxichemicals/GO/shaderview/input"
)

// MaxFileSize caps the config file size.
const MaxFileSize = 1024 * 1024

// DefaultPath is read from the working directory when -config is not given.
const DefaultPath = "shaderview.yml"

// Window sizes and titles the GLFW window.
type Window struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Title  string `yaml:"title" toml:"title"`
	VSync  bool   `yaml:"vsync" toml:"vsync"`
}

// Shaders names the vertex and fragment source files.
type Shaders struct {
	Vertex   string `yaml:"vertex" toml:"vertex"`
	Fragment string `yaml:"fragment" toml:"fragment"`
}

// Mesh names the model file to display.
type Mesh struct {
	Path string `yaml:"path" toml:"path"`
}

// Camera holds the initial camera state and scroll behavior.
type Camera struct {
	ZoomMode string  `yaml:"zoom_mode" toml:"zoom_mode"`
	Radius   float32 `yaml:"radius" toml:"radius"`
	FOV      float32 `yaml:"fov" toml:"fov"`
}

// Render holds per-frame drawing settings.
type Render struct {
	ClearColor [4]float32 `yaml:"clear_color" toml:"clear_color"`
}

// Input names the reload key, e.g. "r" or "f5".
type Input struct {
	ReloadKey string `yaml:"reload_key" toml:"reload_key"`
}

// Config is the full viewer configuration.
type Config struct {
	Window  Window  `yaml:"window" toml:"window"`
	Shaders Shaders `yaml:"shaders" toml:"shaders"`
	Mesh    Mesh    `yaml:"mesh" toml:"mesh"`
	Camera  Camera  `yaml:"camera" toml:"camera"`
	Render  Render  `yaml:"render" toml:"render"`
	Input   Input   `yaml:"input" toml:"input"`

	// Watch adds filesystem notifications on top of mtime polling.
	Watch bool `yaml:"watch" toml:"watch"`
	Debug bool `yaml:"debug" toml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "ShaderViewer",
			VSync:  true,
		},
		Shaders: Shaders{
			Vertex:   "shaders/default.vert",
			Fragment: "shaders/default.frag",
		},
		Mesh: Mesh{Path: "assets/cube.obj"},
		Camera: Camera{
			ZoomMode: camera.ZoomOrbit.String(),
			Radius:   camera.DefaultRadius,
			FOV:      camera.DefaultFOV,
		},
		Render: Render{ClearColor: [4]float32{0.2, 0.2, 0.2, 1}},
		Input:  Input{ReloadKey: "r"},
	}
}

// Load reads path over the defaults. Files ending in .toml are decoded as
// TOML, anything else as YAML. Keys missing from the file keep their default
// values.
func Load(path string) (Config, error) {
	cfg := Default()

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return cfg, fmt.Errorf("config file %s too large: %d bytes", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	if err := unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and names that would otherwise fail later.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		errs = append(errs, errors.New("both shader paths are required"))
	}
	if c.Mesh.Path == "" {
		errs = append(errs, errors.New("mesh path is required"))
	}
	if _, err := camera.ParseZoomMode(c.Camera.ZoomMode); err != nil {
		errs = append(errs, err)
	}
	if c.Camera.Radius < camera.MinRadius || c.Camera.Radius > camera.MaxRadius {
		errs = append(errs, fmt.Errorf("camera radius %v outside [%v, %v]", c.Camera.Radius, camera.MinRadius, camera.MaxRadius))
	}
	if c.Camera.FOV < camera.MinFOV || c.Camera.FOV > camera.MaxFOV {
		errs = append(errs, fmt.Errorf("camera fov %v outside [%v, %v]", c.Camera.FOV, camera.MinFOV, camera.MaxFOV))
	}
	if _, err := input.ParseKey(c.Input.ReloadKey); err != nil {
		errs = append(errs, fmt.Errorf("reload key: %w", err))
	}
	return errors.Join(errs...)
}

// CameraOptions converts the camera section. Call Validate first.
func (c Config) CameraOptions() camera.Options {
	mode, _ := camera.ParseZoomMode(c.Camera.ZoomMode)
	return camera.Options{
		ZoomMode: mode,
		Radius:   c.Camera.Radius,
		FOV:      c.Camera.FOV,
	}
}

// ReloadKey returns the parsed reload key. Call Validate first.
func (c Config) ReloadKey() input.Key {
	k, _ := input.ParseKey(c.Input.ReloadKey)
	return k
}

// Flags holds command-line overrides. Empty values leave the config alone.
type Flags struct {
	ConfigPath string
	Vertex     string
	Fragment   string
	Mesh       string
	Zoom       string
	Debug      bool
	Watch      bool
}

// RegisterFlags defines the viewer's flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML or TOML config file (default "+DefaultPath+" if present)")
	fs.StringVar(&f.Vertex, "vert", "", "vertex shader source")
	fs.StringVar(&f.Fragment, "frag", "", "fragment shader source")
	fs.StringVar(&f.Mesh, "mesh", "", "mesh file (.obj, .gltf, .glb)")
	fs.StringVar(&f.Zoom, "zoom", "", "scroll zoom mode: orbit or fov")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	fs.BoolVar(&f.Watch, "watch", false, "watch shader files for changes")
	return f
}

// Resolve loads the config file named by the flags and applies the
// overrides. Without -config, DefaultPath is loaded if it exists.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	path := f.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	f.Apply(&cfg)
	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ExpandPaths replaces a leading ~ in the shader and mesh paths with the
// user's home directory.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Shaders.Vertex, &c.Shaders.Fragment, &c.Mesh.Path} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Apply copies every set flag onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Vertex != "" {
		cfg.Shaders.Vertex = f.Vertex
	}
	if f.Fragment != "" {
		cfg.Shaders.Fragment = f.Fragment
	}
	if f.Mesh != "" {
		cfg.Mesh.Path = f.Mesh
	}
	if f.Zoom != "" {
		cfg.Camera.ZoomMode = f.Zoom
	}
	if f.Debug {
		cfg.Debug = true
	}
	if f.Watch {
		cfg.Watch = true
	}
}
