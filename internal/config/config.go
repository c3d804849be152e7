// Package config holds the user-facing conversion settings and resolves them
// from defaults, a YAML file, IMAGE_ASCII_* environment variables and flags.
//
// Settings is the only place numeric ranges are enforced: Normalize clamps every
// field so the converter can assume valid input.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
)

// ErrUnknownCharset is returned by Normalize for preset names that do not exist.
var ErrUnknownCharset = errors.New("unknown character set")

// Bounds for aspect scale.
const (
	MinAspectScale = -1.0
	MaxAspectScale = 1.0
)

// Settings is the full set of knobs a conversion takes.
type Settings struct {
	// Charset names a preset; "custom" uses CustomCharacters.
	Charset string `yaml:"charset" json:"charset"`

	// CustomCharacters is the ramp used with the custom preset, densest first.
	CustomCharacters string `yaml:"custom_characters" json:"custom_characters"`

	// Density in [5, 200]; higher means smaller cells.
	Density int `yaml:"density" json:"density"`

	// AspectScale in [-1, 1]; rows are stretched by 1+AspectScale.
	AspectScale float64 `yaml:"aspect_scale" json:"aspect_scale"`

	// Color annotates every cell with its block's average colour.
	Color bool `yaml:"color" json:"color"`

	// Brightness and Contrast in [-255, 255], applied before conversion.
	Brightness int `yaml:"brightness" json:"brightness"`
	Contrast   int `yaml:"contrast" json:"contrast"`

	// MaxWidth downscales wider images before conversion; 0 disables.
	MaxWidth int `yaml:"max_width" json:"max_width"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"-"`
}

// Default returns the settings a fresh session starts with.
func Default() Settings {
	return Settings{
		Charset:          ascii.CharsetCustom,
		CustomCharacters: ascii.DefaultCustomCharacters,
		Density:          50,
		AspectScale:      0.5,
		Color:            false,
		Brightness:       0,
		Contrast:         0,
		MaxWidth:         imaging.DefaultMaxWidth,
		LogLevel:         "info",
	}
}

// Normalize clamps every numeric field into range, canonicalises the preset
// name and substitutes the default ramp when the effective character set is
// empty. It returns a human-readable warning for every substitution.
func (s *Settings) Normalize() ([]string, error) {
	var warnings []string

	s.Charset = strings.ToLower(strings.TrimSpace(s.Charset))
	if s.Charset == "" {
		s.Charset = ascii.CharsetCustom
	}
	ramp, ok := ascii.Preset(s.Charset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, s.Charset)
	}
	if ramp == "" && s.CustomCharacters == "" {
		s.CustomCharacters = ascii.DefaultCustomCharacters
		warnings = append(warnings, fmt.Sprintf("empty custom character set, using %q", ascii.DefaultCustomCharacters))
	}

	s.Density = clampInt(s.Density, ascii.MinDensity, ascii.MaxDensity)
	if math.IsNaN(s.AspectScale) {
		s.AspectScale = 0
	}
	s.AspectScale = math.Min(MaxAspectScale, math.Max(MinAspectScale, s.AspectScale))
	s.Brightness = clampInt(s.Brightness, imaging.MinBrightness, imaging.MaxBrightness)
	s.Contrast = clampInt(s.Contrast, imaging.MinContrast, imaging.MaxContrast)
	if s.MaxWidth < 0 {
		s.MaxWidth = 0
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
	} else if !logging.ValidLevel(s.LogLevel) {
		warnings = append(warnings, fmt.Sprintf("unknown log level %q, using info", s.LogLevel))
		s.LogLevel = "info"
	}

	return warnings, nil
}

// ConverterConfig returns the converter's view of the settings. Call Normalize
// first.
func (s Settings) ConverterConfig() ascii.Config {
	ramp, _ := ascii.Preset(s.Charset)
	return ascii.Config{
		CharacterSet:     ramp,
		CustomCharacters: s.CustomCharacters,
		Density:          s.Density,
		AspectScale:      s.AspectScale,
		Color:            s.Color,
	}
}

// Characters returns the effective ramp.
func (s Settings) Characters() string {
	return string(s.ConverterConfig().Characters())
}

// ToYAML serializes the settings.
func (s Settings) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(s); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
