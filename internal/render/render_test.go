package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func testFrame() *SpectralFrame {
	f := &SpectralFrame{}
	for i := range f.Freq {
		f.Freq[i] = byte((i * 7) % 256)
	}
	for i := range f.Wave {
		f.Wave[i] = byte(128 + 100*sin01(i))
	}
	return f
}

// sin01 gives a deterministic -1..1 shape without pulling in math in every
// helper.
func sin01(i int) float64 {
	x := float64(i%64)/64*2 - 1
	return x
}

func TestBarCount(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{256, 192},
		{100, 75},
		{4, 3},
		{1, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := BarCount(tt.n); got != tt.want {
			t.Errorf("BarCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRadialBarCount(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{256, 179},
		{100, 70},
		{10, 7},
		{1, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := RadialBarCount(tt.n); got != tt.want {
			t.Errorf("RadialBarCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	frame := testFrame()
	cfg := DefaultConfig()

	for _, kind := range []Kind{KindLinear, KindCircular} {
		cfg.Kind = kind
		a := NewCanvas(120, 80)
		b := NewCanvas(120, 80)
		if err := Render(a, frame, cfg, 1.25); err != nil {
			t.Fatal(err)
		}
		if err := Render(b, frame, cfg, 1.25); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Pix(), b.Pix()) {
			t.Errorf("%v: identical inputs produced different pixels", kind)
		}
	}
}

func TestRenderNilFrameIsBackgroundOnly(t *testing.T) {
	cfg := DefaultConfig()
	c := NewCanvas(40, 30)
	if err := Render(c, nil, cfg, 0); err != nil {
		t.Fatal(err)
	}

	bg := Lookup(cfg.Theme).Background
	pix := c.Pix()
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != bg.R || pix[i+1] != bg.G || pix[i+2] != bg.B {
			t.Fatalf("pixel %d = %v, want background %v", i/4, pix[i:i+4], bg)
		}
	}
}

func TestRenderDrawsSomething(t *testing.T) {
	frame := testFrame()
	configs := []Config{
		{Kind: KindLinear, LinearStyle: StyleBars, Theme: "aurora"},
		{Kind: KindLinear, LinearStyle: StyleWaveform, Theme: "ember"},
		{Kind: KindCircular, Theme: "synthwave"},
	}
	for _, cfg := range configs {
		c := NewCanvas(100, 60)
		if err := Render(c, frame, cfg, 0); err != nil {
			t.Fatal(err)
		}
		bg := Lookup(cfg.Theme).Background
		changed := false
		pix := c.Pix()
		for i := 0; i < len(pix); i += 4 {
			if pix[i] != bg.R || pix[i+1] != bg.G || pix[i+2] != bg.B {
				changed = true
				break
			}
		}
		if !changed {
			t.Errorf("%v/%v: nothing drawn over the background", cfg.Kind, cfg.LinearStyle)
		}
	}
}

func TestRenderUnknownThemeFallsBack(t *testing.T) {
	frame := testFrame()
	a := NewCanvas(50, 40)
	b := NewCanvas(50, 40)

	cfg := DefaultConfig()
	if err := Render(a, frame, cfg, 0); err != nil {
		t.Fatal(err)
	}
	cfg.Theme = "no-such-theme"
	if err := Render(b, frame, cfg, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix(), b.Pix()) {
		t.Error("unknown theme did not fall back to the default")
	}
}

func TestRenderZeroValueConfig(t *testing.T) {
	// A zero DetailScale must not collapse the drawing to nothing.
	c := NewCanvas(64, 48)
	if err := Render(c, testFrame(), Config{}, 0); err != nil {
		t.Fatal(err)
	}
}

func TestMeanMagnitude(t *testing.T) {
	f := &SpectralFrame{}
	if got := f.MeanMagnitude(); got != 0 {
		t.Errorf("silent frame mean = %v, want 0", got)
	}
	for i := range f.Freq {
		f.Freq[i] = 255
	}
	if got := f.MeanMagnitude(); got != 255 {
		t.Errorf("full-scale frame mean = %v, want 255", got)
	}
}

// panicSource fails on any pixel access.
type panicSource struct{}

func (panicSource) ColorModel() color.Model { return color.RGBAModel }
func (panicSource) Bounds() image.Rectangle { return image.Rect(0, 0, 8, 8) }
func (panicSource) At(x, y int) color.Color { panic("bad pixel source") }

func TestRenderRecoversDrawPanic(t *testing.T) {
	c := NewCanvas(40, 30)
	cfg := DefaultConfig()
	cfg.Overlay = panicSource{}

	if err := Render(c, testFrame(), cfg, 0); err == nil {
		t.Fatal("panicking overlay source produced no error")
	}
}
