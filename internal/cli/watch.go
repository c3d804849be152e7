package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/render"
	"github.com/ironsheep/image-ascii-mcp/internal/session"
)

type watchFlags struct {
	settings settingsFlags
	format   string
	throttle time.Duration
}

func newWatchCommand() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch <image>",
		Short: "Re-render an image as settings arrive on stdin",
		Long:  watchLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags)
		},
	}

	addSettingsFlags(cmd, &flags.settings)
	cmd.Flags().StringVar(&flags.format, "format", formatTerminal,
		"output format: terminal, markup, plain")
	cmd.Flags().DurationVar(&flags.throttle, "throttle", session.DefaultThrottle,
		"minimum time between renders; changes arriving faster are merged")

	return cmd
}

const watchLongDescription = `Render an image, then read setting changes from stdin, one per line,
and re-render after each. Lines look like the config file keys:

  density=120
  charset=block
  brightness=-40

Changes that arrive faster than --throttle are merged and only the latest is
rendered. A change that fails (an unknown charset, say) keeps the previous
frame and logs the error. max_width cannot change while watching. Blank
lines and lines starting with # are ignored. The command exits once stdin is
closed and the last change has been rendered.`

func runWatch(cmd *cobra.Command, path string, flags *watchFlags) error {
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
	logger := logging.Default().With(logging.FieldPath, path)

	img, err := imaging.NewImageCache().Load(path)
	if err != nil {
		return err
	}
	sess, err := session.NewFromImage(img, settings.MaxWidth,
		session.WithThrottle(flags.throttle),
		session.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("get color flag: %w", err)
	}
	term := render.NewTerminal(out, render.ColorEnabled(colorMode, out))

	// The first frame is rendered synchronously so later failures always
	// have something to fall back to.
	first, err := sess.Convert(ctx, settings)
	if err != nil {
		return err
	}
	if err := writeFrame(out, term, first, flags.format, false); err != nil {
		return err
	}

	lines := readLines(cmd.InOrStdin())
	current := settings
	var want *config.Settings
	rendered := true // whether want has been rendered

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				if rendered {
					return nil
				}
				lines = nil
				continue
			}
			next, changed := applyWatchLine(logger, current, line)
			if !changed {
				continue
			}
			current = next
			want = &next
			rendered = false
			sess.Submit(next)

		case u, ok := <-sess.Updates():
			if !ok {
				return nil
			}
			if u.Err != nil {
				logger.Warn("render failed", logging.FieldError, u.Err)
			}
			if u.Result != nil {
				if err := writeFrame(out, term, u.Result, flags.format, true); err != nil {
					return err
				}
			}
			if want != nil && u.Requested == *want {
				rendered = true
				if lines == nil {
					return nil
				}
			}
		}
	}
}

// applyWatchLine returns s with the change in line applied. It reports false
// for blank lines, comments and rejected changes.
func applyWatchLine(logger *log.Logger, s config.Settings, line string) (config.Settings, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return s, false
	}

	name, value, ok := strings.Cut(line, "=")
	if !ok {
		logger.Warn("ignoring line, want name=value", logging.FieldSetting, line)
		return s, false
	}
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "max_width") {
		logger.Warn("max_width cannot change while watching", logging.FieldSetting, line)
		return s, false
	}

	next := s
	if err := next.Set(name, strings.TrimSpace(value)); err != nil {
		logger.Warn("ignoring setting", logging.FieldSetting, line, logging.FieldError, err)
		return s, false
	}
	if math.IsNaN(next.AspectScale) {
		logger.Warn("ignoring setting, aspect_scale is not a number", logging.FieldSetting, line)
		return s, false
	}
	return next, true
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// writeFrame prints one rendered result. Frames after the first are preceded
// by a blank line.
func writeFrame(w io.Writer, term *render.Terminal, res *session.Result, format string, separate bool) error {
	if separate {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	art := res.Artifact
	var err error
	switch format {
	case formatMarkup:
		_, err = fmt.Fprintln(w, art.Markup())
	case formatPlain:
		_, err = fmt.Fprintln(w, art.Plain())
	default:
		err = term.Write(w, art)
	}
	return err
}
