package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	prev := common.Logger()
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(prev) })
	return logs
}

func TestDefaultIsValid(t *testing.T) {
	logs := observeWarnings(t)
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
	assert.Zero(t, logs.Len())
}

const tomlDoc = `
backend = "webgpu"

[window]
title = "demo"
width = 800

[shadow]
cascades = 3
lambda = 0.8

[engine]
tick_rate = 30.0
profile = true
`

const yamlDoc = `
backend: webgpu
window:
  title: demo
  width: 800
shadow:
  cascades: 3
  lambda: 0.8
engine:
  tick_rate: 30.0
  profile: true
`

func TestParseOverlaysDefaults(t *testing.T) {
	for _, tc := range []struct {
		name   string
		doc    string
		format Format
	}{
		{"toml", tomlDoc, FormatTOML},
		{"yaml", yamlDoc, FormatYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.doc), tc.format)
			require.NoError(t, err)

			assert.Equal(t, BackendWebGPU, cfg.Backend)
			assert.Equal(t, "demo", cfg.Window.Title)
			assert.Equal(t, 800, cfg.Window.Width)
			assert.Equal(t, 720, cfg.Window.Height)
			assert.True(t, cfg.Window.VSync)
			assert.Equal(t, 3, cfg.Shadow.Cascades)
			assert.InDelta(t, 0.8, cfg.Shadow.Lambda, 1e-6)
			assert.Equal(t, light.DefaultTileSize, cfg.Shadow.TileSize)
			assert.InDelta(t, 30, cfg.Engine.TickRate, 1e-9)
			assert.True(t, cfg.Engine.Profile)
			assert.Equal(t, Default().Renderer, cfg.Renderer)
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatYAML} {
		cfg, err := Parse(nil, f)
		require.NoError(t, err, f.String())
		assert.Equal(t, Default(), cfg)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[window]\ntitel = \"x\"\n"), FormatTOML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")

	_, err = Parse([]byte("window:\n  titel: x\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")
}

func TestParseUnknownBackend(t *testing.T) {
	_, err := Parse([]byte(`backend = "vulkan"`), FormatTOML)
	require.ErrorIs(t, err, ErrUnknownBackend)

	cfg, err := Parse([]byte("backend: Headless\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, BackendHeadless, cfg.Backend)
}

func TestValidateClamps(t *testing.T) {
	logs := observeWarnings(t)

	cfg := Default()
	cfg.Shadow.Cascades = 9
	cfg.Shadow.TileSize = 10
	cfg.Shadow.Lambda = 2
	cfg.Shadow.PCFSamples = 0
	cfg.Renderer.MSAA = 2
	cfg.Renderer.Exposure = 0
	cfg.Renderer.ClearColor = [4]float32{2, 0, 0, 1}
	cfg.Engine.TickRate = -5
	cfg.Engine.FrameLimit = -1
	cfg.Log.Level = "loud"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, light.MaxCascades, cfg.Shadow.Cascades)
	assert.Equal(t, MinTileSize, cfg.Shadow.TileSize)
	assert.Equal(t, float32(1), cfg.Shadow.Lambda)
	assert.Equal(t, 1, cfg.Shadow.PCFSamples)
	assert.Equal(t, 4, cfg.Renderer.MSAA)
	assert.Equal(t, float32(1), cfg.Renderer.Exposure)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.InDelta(t, 60, cfg.Engine.TickRate, 1e-9)
	assert.Zero(t, cfg.Engine.FrameLimit)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 10, logs.Len())
	keys := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		keys = append(keys, e.ContextMap()["key"].(string))
	}
	assert.Contains(t, keys, "shadow.cascades")
	assert.Contains(t, keys, "renderer.msaa")
	assert.Contains(t, keys, "log.level")
}

func TestValidateTickRateCeiling(t *testing.T) {
	observeWarnings(t)
	cfg := Default()
	cfg.Engine.TickRate = 5000
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, MaxTickRate, cfg.Engine.TickRate, 1e-9)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "engine.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlDoc), 0o600))
	cfg, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, BackendWebGPU, cfg.Backend)

	ymlPath := filepath.Join(dir, "engine.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte(yamlDoc), 0o600))
	cfg, err = Load(ymlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Shadow.Cascades)

	_, err = Load(filepath.Join(dir, "engine.json"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadExampleSettings(t *testing.T) {
	logs := observeWarnings(t)

	cfg, err := Load(filepath.Join("..", "..", "examples", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, BackendOpenGL, cfg.Backend)
	assert.Equal(t, 3, cfg.Shadow.Cascades)
	assert.True(t, cfg.Renderer.PostEffect)

	cfg, err = Load(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendWebGPU, cfg.Backend)
	assert.Equal(t, 4, cfg.Renderer.MSAA)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Zero(t, logs.Len(), "sample settings are within range")
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("a/b/C.TOML")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, f)

	f, err = FormatFromPath("c.yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("noext")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestShadowOptions(t *testing.T) {
	cfg := Default()
	cfg.Shadow.Cascades = 4
	cfg.Shadow.TileSize = 512
	cfg.Shadow.Bias = 0.001
	cfg.Shadow.PCFSamples = 5

	l := light.NewLight(light.WithType(light.LightTypeDirectional), light.WithShadow(cfg.ShadowOptions()...))
	sh := l.Shadow()
	require.NotNil(t, sh)
	assert.Equal(t, 4, sh.CascadeCount())
	assert.Equal(t, 512, sh.TileSize())
	assert.Equal(t, float32(0.001), sh.Bias())
	assert.Equal(t, 5, sh.PCFSamples())
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Development = true
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Log.Level = "nope"
	_, err = cfg.Logger()
	assert.Error(t, err)
}
