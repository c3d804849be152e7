package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/render"
)

const formatJSON = "json"

func newCharsetsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "charsets",
		Short: "List character set presets",
		Long: `List the character set presets and their ramps, densest character first.
The custom preset uses --custom (or custom_characters in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets := ascii.Presets()
			out := cmd.OutOrStdout()

			if format == formatJSON {
				data, err := json.MarshalIndent(presets, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal charsets: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			colorMode, err := cmd.Flags().GetString("color")
			if err != nil {
				return fmt.Errorf("get color flag: %w", err)
			}
			term := render.NewTerminal(out, render.ColorEnabled(colorMode, out))

			for _, p := range presets {
				chars := p.Characters
				if chars == "" {
					chars = term.Dim.Render("(from --custom)")
				} else {
					chars = fmt.Sprintf("%q", chars)
				}
				if _, err := fmt.Fprintf(out, "%s %s\n", term.Header.Render(fmt.Sprintf("%-9s", p.Name)), chars); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")

	return cmd
}
