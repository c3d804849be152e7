package ascii

import (
	"html"
	"regexp"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit colour without alpha.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the colour as "#rrggbb", lowercase and zero-padded.
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

// Cell is one output character. Color is meaningful only when HasColor is set.
type Cell struct {
	Char     rune `json:"char"`
	Color    RGB  `json:"color"`
	HasColor bool `json:"has_color"`
}

// Row is one line of output.
type Row []Cell

// Artifact is the result of a conversion. Rows are ordered top to bottom.
type Artifact struct {
	Rows []Row

	// Interval is the sampling interval the artifact was produced with.
	Interval int
}

// Dimensions returns the number of rows and the widest row's cell count.
func (a *Artifact) Dimensions() (rows, cols int) {
	for _, r := range a.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return len(a.Rows), cols
}

// Markup renders the artifact as newline-separated rows. Coloured cells are
// wrapped in a span carrying their hex colour; the character inside the span
// is HTML-escaped.
func (a *Artifact) Markup() string {
	var sb strings.Builder
	for i, row := range a.Rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range row {
			if !c.HasColor {
				sb.WriteRune(c.Char)
				continue
			}
			sb.WriteString(`<span style="color: `)
			sb.WriteString(c.Color.Hex())
			sb.WriteString(`">`)
			sb.WriteString(html.EscapeString(string(c.Char)))
			sb.WriteString(`</span>`)
		}
	}
	return sb.String()
}

// Plain renders the artifact without colour annotations.
func (a *Artifact) Plain() string {
	var sb strings.Builder
	for i, row := range a.Rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range row {
			sb.WriteRune(c.Char)
		}
	}
	return sb.String()
}

// String returns Markup.
func (a *Artifact) String() string {
	return a.Markup()
}

var spanPattern = regexp.MustCompile(`<span style="color: #[0-9a-fA-F]{6}">(.*?)</span>`)

// StripMarkup removes colour spans produced by Markup, leaving the characters.
func StripMarkup(s string) string {
	return spanPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := spanPattern.FindStringSubmatch(m)[1]
		return html.UnescapeString(inner)
	})
}
