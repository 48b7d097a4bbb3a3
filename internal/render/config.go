package render

import "image"

// Kind selects the overall visualization family.
type Kind uint8

const (
	KindLinear Kind = iota
	KindCircular
)

func (k Kind) String() string {
	if k == KindCircular {
		return "circular"
	}
	return "linear"
}

// LinearStyle selects the sub-style used when Kind is KindLinear.
type LinearStyle uint8

const (
	StyleBars LinearStyle = iota
	StyleWaveform
)

func (s LinearStyle) String() string {
	if s == StyleWaveform {
		return "waveform"
	}
	return "bars"
}

// Config holds the per-frame drawing parameters. It is supplied by the
// caller on every render and never mutated by this package.
type Config struct {
	Kind        Kind
	LinearStyle LinearStyle
	Theme       string

	// Optional center image composited over the visualization.
	Overlay    image.Image
	ImageScale float64 // overlay size multiplier, 1.0 = default fit

	Pulse          bool
	PulseIntensity float64 // 0..1
	Swing          bool
	SwingIntensity float64 // max rotation in degrees

	CornerRadius float64 // overlay corner rounding, 0..50
	DetailScale  float64 // amplitude multiplier, 1.0 = default
}

// DefaultConfig returns the parameters used before the user changes anything.
func DefaultConfig() Config {
	return Config{
		Kind:           KindLinear,
		LinearStyle:    StyleBars,
		Theme:          DefaultTheme,
		ImageScale:     1.0,
		PulseIntensity: 1.0,
		SwingIntensity: 10,
		DetailScale:    1.0,
	}
}

// detail returns the effective detail scale, defaulting to 1 when unset so a
// zero-value Config still draws something sensible.
func (c Config) detail() float64 {
	if c.DetailScale <= 0 {
		return 1
	}
	return c.DetailScale
}

func (c Config) imageScale() float64 {
	if c.ImageScale <= 0 {
		return 1
	}
	return c.ImageScale
}
