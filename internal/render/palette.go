package render

import (
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultTheme is used when a config names an unknown theme.
const DefaultTheme = "aurora"

// HueFunc maps a bar's position (0..1 around the circle) and its
// magnitude-derived alpha (0..1) to a fill color.
type HueFunc func(frac, alpha float64) color.RGBA

// Palette is the static set of drawing parameters for one theme.
// Palettes are looked up by name and never mutated.
type Palette struct {
	// Gradient stops for linear bars, ordered bottom to top.
	Gradient [3]color.RGBA
	// Stroke is the waveform line color.
	Stroke color.RGBA
	// Hue colors circular bars.
	Hue HueFunc
	// Background clears the surface; Text draws placeholders.
	Background color.RGBA
	Text       color.RGBA
}

// hsv builds an opaque RGBA from HSV via go-colorful.
func hsv(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(h, s, v).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// hueSweep returns a HueFunc spanning a hue range in degrees, with value
// driven by the bar's alpha.
func hueSweep(from, to float64) HueFunc {
	return func(frac, alpha float64) color.RGBA {
		c := hsv(from+(to-from)*frac, 0.85, 0.35+0.65*clamp01(alpha))
		c.A = uint8(clamp01(alpha) * 255)
		return c
	}
}

var palettes = map[string]Palette{
	"aurora": {
		Gradient:   [3]color.RGBA{{0x0d, 0x47, 0x6b, 0xff}, {0x14, 0xb8, 0xa6, 0xff}, {0x86, 0xef, 0xac, 0xff}},
		Stroke:     color.RGBA{0x2d, 0xd4, 0xbf, 0xff},
		Hue:        hueSweep(150, 270),
		Background: color.RGBA{0x04, 0x0a, 0x12, 0xff},
		Text:       color.RGBA{0xd1, 0xfa, 0xe5, 0xff},
	},
	"ember": {
		Gradient:   [3]color.RGBA{{0x7f, 0x1d, 0x1d, 0xff}, {0xea, 0x58, 0x0c, 0xff}, {0xfa, 0xcc, 0x15, 0xff}},
		Stroke:     color.RGBA{0xf9, 0x73, 0x16, 0xff},
		Hue:        hueSweep(0, 60),
		Background: color.RGBA{0x12, 0x05, 0x02, 0xff},
		Text:       color.RGBA{0xfe, 0xf3, 0xc7, 0xff},
	},
	"mono": {
		Gradient:   [3]color.RGBA{{0x40, 0x40, 0x40, 0xff}, {0xa0, 0xa0, 0xa0, 0xff}, {0xff, 0xff, 0xff, 0xff}},
		Stroke:     color.RGBA{0xe5, 0xe5, 0xe5, 0xff},
		Hue: func(frac, alpha float64) color.RGBA {
			v := uint8(64 + 191*clamp01(alpha))
			return color.RGBA{v, v, v, uint8(clamp01(alpha) * 255)}
		},
		Background: color.RGBA{0x00, 0x00, 0x00, 0xff},
		Text:       color.RGBA{0xff, 0xff, 0xff, 0xff},
	},
	"synthwave": {
		Gradient:   [3]color.RGBA{{0x4c, 0x1d, 0x95, 0xff}, {0xdb, 0x27, 0x77, 0xff}, {0x22, 0xd3, 0xee, 0xff}},
		Stroke:     color.RGBA{0xe8, 0x79, 0xf9, 0xff},
		Hue:        hueSweep(280, 400),
		Background: color.RGBA{0x0b, 0x03, 0x14, 0xff},
		Text:       color.RGBA{0xfb, 0xcf, 0xe8, 0xff},
	},
}

// Lookup returns the palette for a theme name, falling back to the default
// theme for unknown names.
func Lookup(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[DefaultTheme]
}

// Themes returns all theme names in a stable order, for cycling.
func Themes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
