package render

import (
	"image/color"
	"testing"
)

func pixelRGB(c *Canvas, x, y int) (uint8, uint8, uint8) {
	off := y*c.img.Stride + x*4
	return c.img.Pix[off], c.img.Pix[off+1], c.img.Pix[off+2]
}

func TestCanvasFill(t *testing.T) {
	c := NewCanvas(17, 9)
	c.Fill(color.RGBA{R: 10, G: 20, B: 30})

	for _, pt := range [][2]int{{0, 0}, {16, 0}, {0, 8}, {16, 8}, {8, 4}} {
		r, g, b := pixelRGB(c, pt[0], pt[1])
		if r != 10 || g != 20 || b != 30 {
			t.Errorf("pixel %v = (%d,%d,%d), want (10,20,30)", pt, r, g, b)
		}
	}
}

func TestCanvasMinimumSize(t *testing.T) {
	c := NewCanvas(0, -5)
	if c.Width() != 1 || c.Height() != 1 {
		t.Errorf("canvas size = %dx%d, want 1x1", c.Width(), c.Height())
	}
	if len(c.Pix()) != 4 {
		t.Errorf("pix length = %d, want 4", len(c.Pix()))
	}
}

func TestBlendBoundsAndOpacity(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Fill(color.RGBA{})

	// Out of bounds is a no-op, not a panic.
	c.blend(-1, 0, color.RGBA{R: 255, A: 255}, 1)
	c.blend(0, 99, color.RGBA{R: 255, A: 255}, 1)

	c.blend(1, 1, color.RGBA{R: 200, A: 255}, 1)
	if r, _, _ := pixelRGB(c, 1, 1); r != 200 {
		t.Errorf("opaque blend r = %d, want 200", r)
	}

	c.blend(2, 2, color.RGBA{R: 200, A: 255}, 0.5)
	if r, _, _ := pixelRGB(c, 2, 2); r < 95 || r > 105 {
		t.Errorf("half blend r = %d, want ~100", r)
	}

	// Zero effective alpha leaves the pixel untouched.
	c.blend(3, 3, color.RGBA{R: 200, A: 0}, 1)
	if r, _, _ := pixelRGB(c, 3, 3); r != 0 {
		t.Errorf("zero-alpha blend r = %d, want 0", r)
	}
}

func TestGradientRectStops(t *testing.T) {
	c := NewCanvas(4, 21)
	c.Fill(color.RGBA{})

	stops := [3]color.RGBA{
		{R: 255, A: 255}, // bottom
		{G: 255, A: 255}, // middle
		{B: 255, A: 255}, // top
	}
	c.GradientRect(0, 0, 4, 21, stops, 1)

	if r, _, _ := pixelRGB(c, 1, 20); r != 255 {
		t.Errorf("bottom row r = %d, want 255", r)
	}
	if _, g, _ := pixelRGB(c, 1, 10); g != 255 {
		t.Errorf("middle row g = %d, want 255", g)
	}
	if _, _, b := pixelRGB(c, 1, 0); b != 255 {
		t.Errorf("top row b = %d, want 255", b)
	}
}

func TestStrokeSegmentCoverage(t *testing.T) {
	c := NewCanvas(20, 10)
	c.Fill(color.RGBA{})
	c.StrokeSegment(2, 5, 17, 5, 2, false, color.RGBA{R: 255, A: 255})

	if r, _, _ := pixelRGB(c, 10, 5); r != 255 {
		t.Error("stroke missing on the segment line")
	}
	if r, _, _ := pixelRGB(c, 10, 1); r != 0 {
		t.Error("stroke bled far from the segment")
	}
	// Flat caps stop at the endpoints.
	if r, _, _ := pixelRGB(c, 0, 5); r != 0 {
		t.Error("flat cap extended past the endpoint")
	}
}

func TestStrokeSegmentRoundCap(t *testing.T) {
	flat := NewCanvas(20, 20)
	flat.Fill(color.RGBA{})
	round := NewCanvas(20, 20)
	round.Fill(color.RGBA{})

	col := color.RGBA{R: 255, A: 255}
	flat.StrokeSegment(8, 10, 12, 10, 6, false, col)
	round.StrokeSegment(8, 10, 12, 10, 6, true, col)

	// The capsule covers pixels beyond the flat line's end.
	fr, _, _ := pixelRGB(flat, 14, 10)
	rr, _, _ := pixelRGB(round, 14, 10)
	if fr != 0 || rr != 255 {
		t.Errorf("cap pixels: flat = %d round = %d, want 0 and 255", fr, rr)
	}
}

func TestStrokeSegmentNoDoubleBlend(t *testing.T) {
	// A translucent color must land exactly once per covered pixel.
	c := NewCanvas(20, 10)
	c.Fill(color.RGBA{})
	c.StrokeSegment(2, 5, 17, 5, 3, true, color.RGBA{R: 200, A: 128})

	r, _, _ := pixelRGB(c, 10, 5)
	want := uint8(200 * 128 / 255)
	if diff := int(r) - int(want); diff < -2 || diff > 2 {
		t.Errorf("translucent stroke r = %d, want ~%d", r, want)
	}
}

func TestFillCircle(t *testing.T) {
	c := NewCanvas(21, 21)
	c.Fill(color.RGBA{})
	c.FillCircle(10.5, 10.5, 5, color.RGBA{G: 255, A: 255})

	if _, g, _ := pixelRGB(c, 10, 10); g != 255 {
		t.Error("circle center not filled")
	}
	if _, g, _ := pixelRGB(c, 10, 2); g != 0 {
		t.Error("fill outside the radius")
	}
}

func TestInsideRoundedRect(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 10, 10, true},
		{"edge midpoint", 0.1, 10, true},
		{"corner tip excluded", 0.2, 0.2, false},
		{"inside corner arc", 5, 5, true},
	}
	for _, tt := range tests {
		if got := insideRoundedRect(tt.x, tt.y, 20, 20, 5); got != tt.want {
			t.Errorf("%s: insideRoundedRect(%v, %v) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
	// Zero radius keeps the full rect.
	if !insideRoundedRect(0.01, 0.01, 20, 20, 0) {
		t.Error("zero radius excluded a rect corner")
	}
}

func TestLerpRGBA(t *testing.T) {
	a := color.RGBA{R: 0, G: 100, B: 200, A: 255}
	b := color.RGBA{R: 100, G: 200, B: 0, A: 255}
	mid := lerpRGBA(a, b, 0.5)
	if mid.R != 50 || mid.G != 150 || mid.B != 100 {
		t.Errorf("lerp midpoint = %v", mid)
	}
	if got := lerpRGBA(a, b, -1); got != a {
		t.Errorf("lerp clamps low: got %v", got)
	}
	if got := lerpRGBA(a, b, 2); got != b {
		t.Errorf("lerp clamps high: got %v", got)
	}
}
