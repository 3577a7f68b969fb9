// Package config loads engine settings from TOML or YAML files.
//
// A file only needs the keys it overrides; everything else keeps the value from Default. Keys
// the Config does not define are rejected so a typo never silently falls back to a default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownBackend is returned by Validate when the backend names no known device.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnknownFormat is returned when a file extension maps to no supported format.
	ErrUnknownFormat = errors.New("unknown config format")
)

// Format is the encoding of a config document.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromPath picks the format from a file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the format for the extension
//   - error: ErrUnknownFormat if the extension is not .toml, .yaml or .yml
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Backend names the device implementation the engine renders with.
type Backend string

const (
	BackendOpenGL   Backend = "opengl"
	BackendWebGPU   Backend = "webgpu"
	BackendHeadless Backend = "headless"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendOpenGL, BackendWebGPU, BackendHeadless:
		return true
	}
	return false
}

// Config is the complete set of engine settings.
type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Backend  Backend        `toml:"backend" yaml:"backend"`
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Shadow   ShadowConfig   `toml:"shadow" yaml:"shadow"`
	Engine   EngineConfig   `toml:"engine" yaml:"engine"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// WindowConfig describes the platform window.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`
}

// RendererConfig holds the frame-level renderer state.
type RendererConfig struct {
	ClearColor     [4]float32 `toml:"clear_color" yaml:"clear_color"`
	Ambient        [3]float32 `toml:"ambient" yaml:"ambient"`
	AutoClear      bool       `toml:"auto_clear" yaml:"auto_clear"`
	FrustumCulling bool       `toml:"frustum_culling" yaml:"frustum_culling"`
	PostEffect     bool       `toml:"post_effect" yaml:"post_effect"`
	Exposure       float32    `toml:"exposure" yaml:"exposure"`
	// MSAA is the WebGPU surface sample count; 1 or 4.
	MSAA int `toml:"msaa" yaml:"msaa"`
}

// ShadowConfig holds the defaults applied to every shadow-casting light.
type ShadowConfig struct {
	TileSize   int     `toml:"tile_size" yaml:"tile_size"`
	Cascades   int     `toml:"cascades" yaml:"cascades"`
	Lambda     float32 `toml:"lambda" yaml:"lambda"`
	Bias       float32 `toml:"bias" yaml:"bias"`
	NormalBias float32 `toml:"normal_bias" yaml:"normal_bias"`
	PCFSamples int     `toml:"pcf_samples" yaml:"pcf_samples"`
	PCFRadius  float32 `toml:"pcf_radius" yaml:"pcf_radius"`
}

// EngineConfig holds the loop timing.
type EngineConfig struct {
	// TickRate is the game-logic rate in ticks per second.
	TickRate float64 `toml:"tick_rate" yaml:"tick_rate"`
	// FrameLimit caps rendered frames per second; 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit" yaml:"frame_limit"`
	Profile    bool    `toml:"profile" yaml:"profile"`
}

// LogConfig selects the zap logger built by Logger.
type LogConfig struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// Shadow and window limits enforced by Validate.
const (
	MinTileSize   = 64
	MaxTileSize   = 8192
	MaxPCFSamples = 8
	MinWindowSize = 64
	MaxTickRate   = 1000
)

// Default returns the settings used for every key a file leaves out.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-forward",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Backend: BackendOpenGL,
		Renderer: RendererConfig{
			ClearColor: [4]float32{0, 0, 0, 1},
			Ambient:    [3]float32{0.1, 0.1, 0.1},
			AutoClear:  true,
			Exposure:   1,
			MSAA:       1,
		},
		Shadow: ShadowConfig{
			TileSize:   light.DefaultTileSize,
			Cascades:   1,
			Lambda:     light.DefaultCascadeLambda,
			Bias:       light.DefaultShadowBias,
			NormalBias: light.DefaultNormalBias,
			PCFSamples: light.DefaultPCFSamples,
			PCFRadius:  light.DefaultPCFRadius,
		},
		Engine: EngineConfig{
			TickRate: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and validates a config file, choosing the decoder from its extension.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - Config: the defaults overlaid with the file's values
//   - error: the file could not be read, decoded or validated
func Load(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document over Default and validates the result.
//
// Parameters:
//   - data: the document
//   - format: its encoding
//
// Returns:
//   - Config: the decoded settings
//   - error: the document is malformed, names an unknown key or an unknown backend
func Parse(data []byte, format Format) (Config, error) {
	cfg := Default()
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return Config{}, fmt.Errorf("decode toml: %w\n%s", err, strict.String())
			}
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate clamps out-of-range values into range, logging a warning for each, and rejects
// settings that have no sensible substitute.
//
// Returns:
//   - error: wraps ErrUnknownBackend if the backend is not recognized
func (c *Config) Validate() error {
	c.Backend = Backend(strings.ToLower(string(c.Backend)))
	if !c.Backend.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	c.Window.Width = clampInt("window.width", c.Window.Width, MinWindowSize, 7680)
	c.Window.Height = clampInt("window.height", c.Window.Height, MinWindowSize, 4320)

	for i := range c.Renderer.ClearColor {
		c.Renderer.ClearColor[i] = clampFloat("renderer.clear_color", c.Renderer.ClearColor[i], 0, 1)
	}
	for i := range c.Renderer.Ambient {
		c.Renderer.Ambient[i] = clampFloat("renderer.ambient", c.Renderer.Ambient[i], 0, 1)
	}
	if c.Renderer.Exposure <= 0 {
		warn("renderer.exposure", c.Renderer.Exposure, 1)
		c.Renderer.Exposure = 1
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		fixed := 1
		if c.Renderer.MSAA > 1 {
			fixed = 4
		}
		warn("renderer.msaa", c.Renderer.MSAA, fixed)
		c.Renderer.MSAA = fixed
	}

	c.Shadow.TileSize = clampInt("shadow.tile_size", c.Shadow.TileSize, MinTileSize, MaxTileSize)
	c.Shadow.Cascades = clampInt("shadow.cascades", c.Shadow.Cascades, 1, light.MaxCascades)
	c.Shadow.Lambda = clampFloat("shadow.lambda", c.Shadow.Lambda, 0, 1)
	c.Shadow.Bias = clampFloat("shadow.bias", c.Shadow.Bias, 0, 1)
	c.Shadow.NormalBias = clampFloat("shadow.normal_bias", c.Shadow.NormalBias, 0, 10)
	c.Shadow.PCFSamples = clampInt("shadow.pcf_samples", c.Shadow.PCFSamples, 1, MaxPCFSamples)
	c.Shadow.PCFRadius = clampFloat("shadow.pcf_radius", c.Shadow.PCFRadius, 0, 16)

	if c.Engine.TickRate <= 0 || c.Engine.TickRate > MaxTickRate {
		fixed := common.Clamp(c.Engine.TickRate, 1, MaxTickRate)
		if c.Engine.TickRate <= 0 {
			fixed = 60
		}
		warn("engine.tick_rate", c.Engine.TickRate, fixed)
		c.Engine.TickRate = fixed
	}
	if c.Engine.FrameLimit < 0 {
		warn("engine.frame_limit", c.Engine.FrameLimit, 0)
		c.Engine.FrameLimit = 0
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		warn("log.level", c.Log.Level, "info")
		c.Log.Level = "info"
	}
	return nil
}

// ShadowOptions converts the shadow section into options for light.WithShadow.
func (c Config) ShadowOptions() []light.ShadowBuilderOption {
	s := c.Shadow
	return []light.ShadowBuilderOption{
		light.WithTileSize(s.TileSize),
		light.WithCascades(s.Cascades),
		light.WithCascadeLambda(s.Lambda),
		light.WithBias(s.Bias, s.NormalBias),
		light.WithPCF(s.PCFSamples, s.PCFRadius),
	}
}

// Logger builds the zap logger the log section describes.
//
// Returns:
//   - *zap.Logger: a production (JSON) or development (console) logger at the configured level
//   - error: the logger could not be built
func (c Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func warn(key string, got, used any) {
	common.Logger().Warn("config value out of range",
		zap.String("key", key),
		zap.Any("value", got),
		zap.Any("using", used))
}

func clampInt(key string, v, lo, hi int) int {
	c := common.Clamp(v, lo, hi)
	if c != v {
		warn(key, v, c)
	}
	return c
}

func clampFloat(key string, v, lo, hi float32) float32 {
	c := common.Clamp(v, lo, hi)
	if c != v {
		warn(key, v, c)
	}
	return c
}
