package ascii

import "strings"

// DefaultCustomCharacters is the ramp substituted when no usable character set
// was configured.
const DefaultCustomCharacters = "@#%xo-+:."

// CharsetCustom is the preset name that defers to Config.CustomCharacters.
const CharsetCustom = "custom"

// Charset is a named character ramp, ordered from densest to sparsest glyph.
type Charset struct {
	Name       string `json:"name" yaml:"name"`
	Characters string `json:"characters" yaml:"characters"`
}

var presets = []Charset{
	{Name: "simple", Characters: "@#%xo-+:."},
	{Name: "detailed", Characters: "@%#*+=-:. "},
	{Name: "block", Characters: "█▓▒░ "},
	{Name: "minimal", Characters: "#. "},
	{Name: CharsetCustom, Characters: ""},
}

// Presets returns the named character sets in display order. The custom preset
// is always last and has an empty ramp.
func Presets() []Charset {
	out := make([]Charset, len(presets))
	copy(out, presets)
	return out
}

// Preset looks up a named ramp, ignoring case and surrounding whitespace.
// The custom preset resolves to an empty ramp with ok set to true.
func Preset(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == name {
			return p.Characters, true
		}
	}
	return "", false
}
