package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/config"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	s := config.Default()
	assert.Equal(t, "custom", s.Charset)
	assert.Equal(t, "@#%xo-+:.", s.CustomCharacters)
	assert.Equal(t, 50, s.Density)
	assert.InDelta(t, 0.5, s.AspectScale, 1e-9)
	assert.False(t, s.Color)
	assert.Zero(t, s.Brightness)
	assert.Zero(t, s.Contrast)
	assert.Equal(t, 1024, s.MaxWidth)
	assert.Equal(t, "@#%xo-+:.", s.Characters())
}

func TestNormalizeClamps(t *testing.T) {
	t.Parallel()

	s := config.Settings{
		Charset:     "  DETAILED ",
		Density:     1000,
		AspectScale: 3,
		Brightness:  -400,
		Contrast:    999,
		MaxWidth:    -1,
	}
	warnings, err := s.Normalize()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "detailed", s.Charset)
	assert.Equal(t, ascii.MaxDensity, s.Density)
	assert.InDelta(t, 1.0, s.AspectScale, 1e-9)
	assert.Equal(t, -255, s.Brightness)
	assert.Equal(t, 255, s.Contrast)
	assert.Zero(t, s.MaxWidth)
	assert.Equal(t, "info", s.LogLevel)

	s.Density = 0
	s.AspectScale = math.NaN()
	_, err = s.Normalize()
	require.NoError(t, err)
	assert.Equal(t, ascii.MinDensity, s.Density)
	assert.Zero(t, s.AspectScale)
}

func TestNormalizeUnknownCharset(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.Charset = "braille"
	_, err := s.Normalize()
	require.ErrorIs(t, err, config.ErrUnknownCharset)
}

func TestNormalizeEmptyCustomFallsBack(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.CustomCharacters = ""
	warnings, err := s.Normalize()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "empty custom character set")
	assert.Equal(t, ascii.DefaultCustomCharacters, s.Characters())

	// A preset ignores the custom field entirely.
	s = config.Default()
	s.Charset = "block"
	s.CustomCharacters = ""
	warnings, err = s.Normalize()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "█▓▒░ ", s.Characters())
}

func TestNormalizeUnknownLogLevel(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.LogLevel = "chatty"
	warnings, err := s.Normalize()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "info", s.LogLevel)
}

func TestConverterConfig(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.Charset = "minimal"
	s.Density = 80
	s.Color = true
	_, err := s.Normalize()
	require.NoError(t, err)

	cfg := s.ConverterConfig()
	assert.Equal(t, "#. ", cfg.CharacterSet)
	assert.Equal(t, 80, cfg.Density)
	assert.True(t, cfg.Color)
	assert.InDelta(t, 0.5, cfg.AspectScale, 1e-9)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := "charset: simple\ndensity: 120\ncolor: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, used, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "simple", s.Charset)
	assert.Equal(t, 120, s.Density)
	assert.True(t, s.Color)
	// Unset keys keep their defaults.
	assert.InDelta(t, 0.5, s.AspectScale, 1e-9)
	assert.Equal(t, 1024, s.MaxWidth)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("density: [1, 2\n"), 0o600))

	_, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadDiscovery(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Nothing there yet: defaults and no file.
	s, used, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, config.Default(), s)

	appDir := filepath.Join(dir, "image-ascii")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	path := filepath.Join(appDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contrast: 40\n"), 0o600))

	s, used, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 40, s.Contrast)
	assert.Equal(t, path, config.UserConfigPath())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IMAGE_ASCII_CHARSET", "block")
	t.Setenv("IMAGE_ASCII_DENSITY", "150")
	t.Setenv("IMAGE_ASCII_ASPECT_SCALE", "-0.25")
	t.Setenv("IMAGE_ASCII_COLOR", "true")
	t.Setenv("IMAGE_ASCII_BRIGHTNESS", "12")
	t.Setenv("IMAGE_ASCII_LOG_LEVEL", "debug")

	s := config.Default()
	require.NoError(t, s.ApplyEnv())

	assert.Equal(t, "block", s.Charset)
	assert.Equal(t, 150, s.Density)
	assert.InDelta(t, -0.25, s.AspectScale, 1e-9)
	assert.True(t, s.Color)
	assert.Equal(t, 12, s.Brightness)
	assert.Equal(t, "debug", s.LogLevel)
	// Untouched.
	assert.Equal(t, 0, s.Contrast)
}

func TestApplyEnvMalformed(t *testing.T) {
	t.Setenv("IMAGE_ASCII_DENSITY", "lots")

	s := config.Default()
	err := s.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAGE_ASCII_DENSITY")
}

func TestApplyEnvReportsFirstMalformedByName(t *testing.T) {
	t.Setenv("IMAGE_ASCII_DENSITY", "lots")
	t.Setenv("IMAGE_ASCII_ASPECT_SCALE", "wide")
	t.Setenv("IMAGE_ASCII_MAX_WIDTH", "huge")

	// Same variable every time, regardless of map iteration order.
	for i := 0; i < 20; i++ {
		s := config.Default()
		err := s.ApplyEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "IMAGE_ASCII_ASPECT_SCALE")
		assert.NotContains(t, err.Error(), "IMAGE_ASCII_DENSITY")
	}
}

func TestSet(t *testing.T) {
	t.Parallel()

	s := config.Default()
	require.NoError(t, s.Set("density", "80"))
	require.NoError(t, s.Set("Aspect_Scale", "0.25"))
	require.NoError(t, s.Set(" color ", "true"))
	require.NoError(t, s.Set("custom_characters", " .:"))

	assert.Equal(t, 80, s.Density)
	assert.InDelta(t, 0.25, s.AspectScale, 1e-9)
	assert.True(t, s.Color)
	assert.Equal(t, " .:", s.CustomCharacters)

	err := s.Set("sharpness", "3")
	require.ErrorIs(t, err, config.ErrUnknownSetting)

	err = s.Set("contrast", "high")
	require.Error(t, err)
	assert.Equal(t, 0, s.Contrast)
}

func TestToYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.Charset = "detailed"
	s.Contrast = -30

	data, err := s.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "charset: detailed")

	var back config.Settings
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
