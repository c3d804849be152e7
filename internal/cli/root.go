// Package cli provides the Cobra command structure for image-ascii.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/render"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root image-ascii command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "image-ascii",
		Short: "Turn images into character art",
		Long: `image-ascii renders images as text, one character per block of pixels,
optionally annotated with each block's average colour.

It runs either as a command-line converter or as an MCP server on stdio so
that assistants can convert images through tool calls. Settings come from
built-in defaults, then the config file, then IMAGE_ASCII_* environment
variables, then flags.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if debug {
				logging.SetLevel("debug")
			}
			if !render.ValidMode(color) {
				return fmt.Errorf("invalid --color %q: want auto, always or never", color)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", render.ModeAuto,
		"colorize terminal output: auto, always, never")

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newServeCommand(info))
	rootCmd.AddCommand(newCharsetsCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}
