package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
)

// settingsFlags are the per-conversion flags shared by convert and serve.
type settingsFlags struct {
	charset    string
	custom     string
	density    int
	aspect     float64
	color      bool
	brightness int
	contrast   int
	maxWidth   int
}

func addSettingsFlags(cmd *cobra.Command, flags *settingsFlags) {
	def := config.Default()

	f := cmd.Flags()
	f.StringVar(&flags.charset, "charset", def.Charset, "character set preset: simple, detailed, block, minimal, custom")
	f.StringVar(&flags.custom, "custom", def.CustomCharacters, "ramp used with the custom preset, densest first")
	f.IntVar(&flags.density, "density", def.Density, "detail level 5-200; higher means smaller cells")
	f.Float64Var(&flags.aspect, "aspect", def.AspectScale, "vertical stretch -1..1; rows are scaled by 1+aspect")
	f.BoolVar(&flags.color, "colored", def.Color, "annotate characters with their average colour")
	f.IntVar(&flags.brightness, "brightness", def.Brightness, "brightness adjustment -255..255")
	f.IntVar(&flags.contrast, "contrast", def.Contrast, "contrast adjustment -255..255")
	f.IntVar(&flags.maxWidth, "max-width", def.MaxWidth, "downscale wider images to this width first (0 disables)")
}

// apply copies every flag the user set explicitly onto s.
func (flags *settingsFlags) apply(cmd *cobra.Command, s *config.Settings) {
	changed := cmd.Flags().Changed

	if changed("charset") {
		s.Charset = flags.charset
	}
	if changed("custom") {
		s.CustomCharacters = flags.custom
	}
	if changed("density") {
		s.Density = flags.density
	}
	if changed("aspect") {
		s.AspectScale = flags.aspect
	}
	if changed("colored") {
		s.Color = flags.color
	}
	if changed("brightness") {
		s.Brightness = flags.brightness
	}
	if changed("contrast") {
		s.Contrast = flags.contrast
	}
	if changed("max-width") {
		s.MaxWidth = flags.maxWidth
	}
}

// loadSettings resolves defaults, the config file, the environment and flags,
// in that order, and normalizes the result. flags may be nil.
func loadSettings(cmd *cobra.Command, flags *settingsFlags) (config.Settings, error) {
	logger := logging.Default()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Settings{}, fmt.Errorf("get config flag: %w", err)
	}

	settings, loadedFrom, err := config.Load(configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load configuration: %w", err)
	}
	if loadedFrom != "" {
		logger.Debug("loaded configuration", logging.FieldConfig, loadedFrom)
	}

	if err := settings.ApplyEnv(); err != nil {
		return config.Settings{}, err
	}
	if flags != nil {
		flags.apply(cmd, &settings)
	}

	warnings, err := settings.Normalize()
	if err != nil {
		return config.Settings{}, err
	}

	// --debug wins over the configured level.
	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		logging.SetLevel(settings.LogLevel)
	}
	for _, w := range warnings {
		logger.Warn("settings adjusted", logging.FieldWarning, w)
	}

	logger.Debug("settings resolved",
		logging.FieldCharset, settings.Charset,
		logging.FieldDensity, settings.Density,
		logging.FieldAspect, settings.AspectScale,
		logging.FieldColor, settings.Color,
		logging.FieldBrightness, settings.Brightness,
		logging.FieldContrast, settings.Contrast,
		logging.FieldWidth, settings.MaxWidth,
	)

	return settings, nil
}
