package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/config"
)

func newConfigCommand() *cobra.Command {
	flags := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as YAML",
		Long: `Print the settings a conversion would use after applying the config file,
IMAGE_ASCII_* environment variables and any conversion flags given here.
The output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}

			data, err := settings.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	addSettingsFlags(cmd, flags)

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print where the user config file is looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := config.UserConfigPath()
			if p == "" {
				return fmt.Errorf("cannot determine user config directory")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	})

	return cmd
}
