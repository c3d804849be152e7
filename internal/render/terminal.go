// Package render writes artifacts to terminals using Lipgloss styles.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
)

// Colour modes accepted by ColorEnabled.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// ValidMode reports whether mode is a recognised colour mode.
func ValidMode(mode string) bool {
	switch mode {
	case ModeAuto, ModeAlways, ModeNever:
		return true
	}
	return false
}

// ColorEnabled determines if color should be enabled based on mode and writer.
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is
// not set.
func ColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}

// Terminal renders artifacts as ANSI-styled text.
type Terminal struct {
	renderer *lipgloss.Renderer
	color    bool
	styles   map[ascii.RGB]lipgloss.Style

	Header lipgloss.Style
	Dim    lipgloss.Style
}

// NewTerminal creates a renderer for w. With color disabled every style is
// plain and cell colours are ignored.
func NewTerminal(w io.Writer, colorEnabled bool) *Terminal {
	r := lipgloss.NewRenderer(w)
	if colorEnabled {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	t := &Terminal{
		renderer: r,
		color:    colorEnabled,
		styles:   make(map[ascii.RGB]lipgloss.Style),
		Header:   r.NewStyle(),
		Dim:      r.NewStyle(),
	}
	if colorEnabled {
		t.Header = r.NewStyle().Bold(true)
		t.Dim = r.NewStyle().Foreground(lipgloss.Color("8"))
	}
	return t
}

// Render returns art as newline-separated rows. Coloured cells get a
// true-colour foreground when color is enabled.
func (t *Terminal) Render(art *ascii.Artifact) string {
	if !t.color {
		return art.Plain()
	}

	var sb strings.Builder
	for i, row := range art.Rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, cell := range row {
			if !cell.HasColor {
				sb.WriteRune(cell.Char)
				continue
			}
			sb.WriteString(t.style(cell.Color).Render(string(cell.Char)))
		}
	}
	return sb.String()
}

// Write renders art to w followed by a newline.
func (t *Terminal) Write(w io.Writer, art *ascii.Artifact) error {
	if _, err := fmt.Fprintln(w, t.Render(art)); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (t *Terminal) style(c ascii.RGB) lipgloss.Style {
	if s, ok := t.styles[c]; ok {
		return s
	}
	s := t.renderer.NewStyle().Foreground(lipgloss.Color(c.Hex()))
	t.styles[c] = s
	return s
}
