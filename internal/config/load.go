package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPrefix is the prefix for all environment overrides.
const envVarPrefix = "IMAGE_ASCII_"

// appDirName is the directory under the user config root.
const appDirName = "image-ascii"

// configFileName is the file looked up inside appDirName.
const configFileName = "config.yaml"

// Load returns the defaults overlaid with a YAML file.
//
// An explicit path must exist. With an empty path the user config
// ($XDG_CONFIG_HOME/image-ascii/config.yaml, then
// ~/.config/image-ascii/config.yaml) is used when present. The second return
// value names the file that was read, or is empty.
func Load(path string) (Settings, string, error) {
	s := Default()

	if path == "" {
		path = discover()
		if path == "" {
			return s, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, "", fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, "", fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, path, nil
}

// UserConfigPath returns where the user config file is expected, or "" when
// no home directory can be determined.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", appDirName, configFileName)
}

func discover() string {
	p := UserConfigPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return p // let Load surface the permission error
		}
		return ""
	}
	return p
}

type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeFloat
)

type envMapping struct {
	typ   envFieldType
	apply func(s *Settings, v any)
}

// fieldMappings is keyed by the upper-cased YAML name, which is also the
// environment variable suffix.
var fieldMappings = map[string]envMapping{
	"CHARSET":           {envTypeString, func(s *Settings, v any) { s.Charset = v.(string) }},
	"CUSTOM_CHARACTERS": {envTypeString, func(s *Settings, v any) { s.CustomCharacters = v.(string) }},
	"DENSITY":           {envTypeInt, func(s *Settings, v any) { s.Density = v.(int) }},
	"ASPECT_SCALE":      {envTypeFloat, func(s *Settings, v any) { s.AspectScale = v.(float64) }},
	"COLOR":             {envTypeBool, func(s *Settings, v any) { s.Color = v.(bool) }},
	"BRIGHTNESS":        {envTypeInt, func(s *Settings, v any) { s.Brightness = v.(int) }},
	"CONTRAST":          {envTypeInt, func(s *Settings, v any) { s.Contrast = v.(int) }},
	"MAX_WIDTH":         {envTypeInt, func(s *Settings, v any) { s.MaxWidth = v.(int) }},
	"LOG_LEVEL":         {envTypeString, func(s *Settings, v any) { s.LogLevel = v.(string) }},
}

// ErrUnknownSetting is returned by Set for names that are not settings.
var ErrUnknownSetting = errors.New("unknown setting")

// ApplyEnv overrides fields from IMAGE_ASCII_* environment variables. Unset or
// empty variables are ignored; malformed values are reported with the
// variable's name. Variables are read in name order.
func (s *Settings) ApplyEnv() error {
	for _, suffix := range slices.Sorted(maps.Keys(fieldMappings)) {
		name := envVarPrefix + suffix
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := s.Set(suffix, raw); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// Set assigns one field from its text form. name is the field's YAML key,
// e.g. "density" or "aspect_scale"; case is ignored.
func (s *Settings) Set(name, raw string) error {
	mapping, ok := fieldMappings[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	value, err := parseEnvValue(raw, mapping.typ)
	if err != nil {
		return err
	}
	mapping.apply(s, value)
	return nil
}

func parseEnvValue(raw string, typ envFieldType) (any, error) {
	switch typ {
	case envTypeBool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case envTypeInt:
		return strconv.Atoi(strings.TrimSpace(raw))
	case envTypeFloat:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	default:
		return raw, nil
	}
}
