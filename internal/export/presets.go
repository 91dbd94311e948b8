package export

import (
	"sort"
	"strconv"

	"lexdraft/api/internal/doctree"
)

// LineSpacing is the body line-spacing mode of a preset.
type LineSpacing string

const (
	SpacingSingle LineSpacing = "single"
	SpacingDouble LineSpacing = "double"
)

// DefaultPreset is used for unknown or empty preset names.
const DefaultPreset = "court_brief"

// Preset is an immutable bundle of typography and layout defaults.
type Preset struct {
	Name               string
	FontFamily         string
	FontSize           int // points
	LineSpacing        LineSpacing
	MarginInches       float64
	Align              doctree.Align
	NumberedParagraphs bool
}

var presets = map[string]Preset{
	"court_brief": {
		Name:         "court_brief",
		FontFamily:   "Times New Roman",
		FontSize:     12,
		LineSpacing:  SpacingDouble,
		MarginInches: 1.0,
		Align:        doctree.AlignLeft,
	},
	"cover_letter": {
		Name:         "cover_letter",
		FontFamily:   "Times New Roman",
		FontSize:     12,
		LineSpacing:  SpacingSingle,
		MarginInches: 1.0,
		Align:        doctree.AlignLeft,
	},
	"declaration": {
		Name:               "declaration",
		FontFamily:         "Times New Roman",
		FontSize:           12,
		LineSpacing:        SpacingDouble,
		MarginInches:       1.0,
		Align:              doctree.AlignLeft,
		NumberedParagraphs: true,
	},
}

// ResolvePreset returns the named preset, or the court_brief preset when the
// name is not known.
func ResolvePreset(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return presets[DefaultPreset]
}

// PresetNames lists the known preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LineTwips is the w:spacing line value for auto line spacing.
func (p Preset) LineTwips() int {
	if p.LineSpacing == SpacingDouble {
		return 480
	}
	return 240
}

// LineHeight is the CSS line-height for the markup renderer.
func (p Preset) LineHeight() string {
	if p.LineSpacing == SpacingDouble {
		return "2.0"
	}
	return "1.2"
}

// MarginTwips converts the uniform margin to twentieths of a point.
func (p Preset) MarginTwips() int {
	return int(p.MarginInches * 1440)
}

// halfPoints formats a point size the way w:sz expects it.
func halfPoints(points int) string {
	return strconv.Itoa(points * 2)
}
