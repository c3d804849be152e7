package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/render"
	"github.com/ironsheep/image-ascii-mcp/internal/session"
)

// Output formats for convert.
const (
	formatTerminal = "terminal"
	formatMarkup   = "markup"
	formatPlain    = "plain"
)

// ErrInvalidFormat is returned for unknown --format values.
var ErrInvalidFormat = errors.New("invalid output format")

type convertFlags struct {
	settings    settingsFlags
	format      string
	output      string
	concurrency int
}

func newConvertCommand() *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <image>...",
		Short: "Convert images to character art",
		Long:  convertLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, flags)
		},
	}

	addSettingsFlags(cmd, &flags.settings)
	cmd.Flags().StringVar(&flags.format, "format", formatTerminal,
		"output format: terminal, markup, plain")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0,
		"images converted in parallel (0 = number of CPUs)")

	return cmd
}

const convertLongDescription = `Convert one or more images to character art.

Images are converted in parallel and printed in the order given. PNG, JPEG,
GIF, BMP, TIFF and WebP are supported.

Formats:
  terminal  characters, coloured with ANSI true colour when --colored is set
            and the output is a terminal (see --color)
  markup    coloured characters wrapped in <span style="color: #rrggbb">
  plain     characters only

Examples:
  image-ascii convert cat.png
  image-ascii convert --charset block --density 120 cat.png
  image-ascii convert --colored --format markup -o cat.html cat.png
  image-ascii convert --format plain *.jpg`

func runConvert(cmd *cobra.Command, args []string, flags *convertFlags) error {
	switch flags.format {
	case formatTerminal, formatMarkup, formatPlain:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, flags.format)
	}

	settings, err := loadSettings(cmd, &flags.settings)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Default()
	ctx = logging.WithLogger(ctx, logger)

	logger.Debug("converting",
		logging.FieldConcurrency, flags.concurrency,
		logging.FieldOutput, flags.output)

	results, convErr := session.ConvertFiles(ctx, imaging.NewImageCache(), args, settings, flags.concurrency)

	var out io.Writer = cmd.OutOrStdout()
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("get color flag: %w", err)
	}
	term := render.NewTerminal(out, settings.Color && render.ColorEnabled(colorMode, out))

	if err := writeResults(out, term, results, flags.format); err != nil {
		return err
	}
	return convErr
}

// writeResults prints every finished result in order. With more than one
// input each artifact is preceded by a header naming its file.
func writeResults(w io.Writer, term *render.Terminal, results []session.FileResult, format string) error {
	multi := len(results) > 1

	for i, r := range results {
		if r.Result == nil {
			continue
		}
		if multi {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			header := "==> " + r.Path + " <=="
			if format == formatTerminal {
				header = term.Header.Render(header)
			}
			if _, err := fmt.Fprintln(w, header); err != nil {
				return err
			}
		}

		art := r.Result.Artifact
		var err error
		switch format {
		case formatMarkup:
			_, err = fmt.Fprintln(w, art.Markup())
		case formatPlain:
			_, err = fmt.Fprintln(w, art.Plain())
		default:
			err = term.Write(w, art)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", r.Path, err)
		}
	}
	return nil
}
