package render

import (
	"image"
	"image/color"
	"math"
)

// Canvas is a fixed-size RGBA pixel target. Its dimensions never change for
// the lifetime of the canvas; whichever loop drives it owns it exclusively.
type Canvas struct {
	img *image.RGBA
	w   int
	h   int
}

// NewCanvas allocates a canvas of the given size in pixels.
func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		w:   w,
		h:   h,
	}
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

// Image exposes the backing image for display conversion.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Pix returns the raw RGBA bytes, row-major, 4 bytes per pixel. This is the
// layout the capture sink consumes (rawvideo rgba).
func (c *Canvas) Pix() []byte { return c.img.Pix }

// Fill clears the whole canvas to an opaque color.
func (c *Canvas) Fill(col color.RGBA) {
	col.A = 0xff
	// Fill the first row, then copy it down.
	row := c.img.Pix[:c.w*4]
	for x := 0; x < c.w; x++ {
		row[x*4+0] = col.R
		row[x*4+1] = col.G
		row[x*4+2] = col.B
		row[x*4+3] = 0xff
	}
	for y := 1; y < c.h; y++ {
		copy(c.img.Pix[y*c.img.Stride:y*c.img.Stride+c.w*4], row)
	}
}

// blend composites col over the pixel at (x, y). alpha is 0..1 and is applied
// on top of the color's own alpha channel.
func (c *Canvas) blend(x, y int, col color.RGBA, alpha float64) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	a := alpha * float64(col.A) / 255
	if a <= 0 {
		return
	}
	if a > 1 {
		a = 1
	}
	off := y*c.img.Stride + x*4
	p := c.img.Pix[off : off+4 : off+4]
	p[0] = uint8(float64(col.R)*a + float64(p[0])*(1-a))
	p[1] = uint8(float64(col.G)*a + float64(p[1])*(1-a))
	p[2] = uint8(float64(col.B)*a + float64(p[2])*(1-a))
	p[3] = 0xff
}

// GradientRect fills an axis-aligned rect with a 3-stop vertical gradient,
// stop 0 at the bottom edge and stop 2 at the top, blended at the given
// alpha.
func (c *Canvas) GradientRect(x, y, w, h int, stops [3]color.RGBA, alpha float64) {
	if w <= 0 || h <= 0 {
		return
	}
	for row := 0; row < h; row++ {
		// 0 at the bottom of the rect, 1 at the top.
		t := 0.0
		if h > 1 {
			t = float64(h-1-row) / float64(h-1)
		}
		var col color.RGBA
		if t < 0.5 {
			col = lerpRGBA(stops[0], stops[1], t*2)
		} else {
			col = lerpRGBA(stops[1], stops[2], (t-0.5)*2)
		}
		for px := 0; px < w; px++ {
			c.blend(x+px, y+row, col, alpha)
		}
	}
}

// StrokeSegment draws a line segment of the given thickness. With roundCap
// set, both ends are capped by half-discs (a capsule); otherwise caps are
// flat. Coverage is tested once per pixel so translucent strokes never
// double-blend.
func (c *Canvas) StrokeSegment(x0, y0, x1, y1, thickness float64, roundCap bool, col color.RGBA) {
	half := thickness / 2
	if half <= 0 {
		half = 0.5
	}
	dx := x1 - x0
	dy := y1 - y0
	lenSq := dx*dx + dy*dy

	minX := int(math.Floor(math.Min(x0, x1) - half))
	maxX := int(math.Ceil(math.Max(x0, x1) + half))
	minY := int(math.Floor(math.Min(y0, y1) - half))
	maxY := int(math.Ceil(math.Max(y0, y1) + half))

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx := float64(px) + 0.5
			fy := float64(py) + 0.5
			t := 0.0
			if lenSq > 0 {
				t = ((fx-x0)*dx + (fy-y0)*dy) / lenSq
			}
			if !roundCap {
				if t < 0 || t > 1 {
					continue
				}
			} else if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			cx := x0 + t*dx
			cy := y0 + t*dy
			distSq := (fx-cx)*(fx-cx) + (fy-cy)*(fy-cy)
			if distSq <= half*half {
				c.blend(px, py, col, 1)
			}
		}
	}
}

// FillCircle draws a filled disc.
func (c *Canvas) FillCircle(cx, cy, r float64, col color.RGBA) {
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx := float64(px) + 0.5 - cx
			fy := float64(py) + 0.5 - cy
			if fx*fx+fy*fy <= r*r {
				c.blend(px, py, col, 1)
			}
		}
	}
}

// DrawImageCentered blits src scaled to dw x dh pixels, centered on the
// canvas, rotated by angle radians about the canvas center, clipped to a
// rounded rect of the given corner radius, at the given alpha. Sampling is
// nearest-neighbor over the full source bounds, so source and destination
// rects are independent.
func (c *Canvas) DrawImageCentered(src image.Image, dw, dh int, angle, cornerRadius, alpha float64) {
	if src == nil || dw <= 0 || dh <= 0 {
		return
	}
	sb := src.Bounds()
	sw := sb.Dx()
	sh := sb.Dy()
	if sw == 0 || sh == 0 {
		return
	}

	ccx := float64(c.w) / 2
	ccy := float64(c.h) / 2
	halfW := float64(dw) / 2
	halfH := float64(dh) / 2
	cosA := math.Cos(angle)
	sinA := math.Sin(angle)

	// Bounding box of the rotated rect.
	ext := math.Sqrt(halfW*halfW + halfH*halfH)
	minX := int(math.Floor(ccx - ext))
	maxX := int(math.Ceil(ccx + ext))
	minY := int(math.Floor(ccy - ext))
	maxY := int(math.Ceil(ccy + ext))

	maxR := math.Min(halfW, halfH)
	if cornerRadius > maxR {
		cornerRadius = maxR
	}

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			// Inverse-rotate the pixel into image-local coordinates.
			rx := float64(px) + 0.5 - ccx
			ry := float64(py) + 0.5 - ccy
			lx := rx*cosA + ry*sinA + halfW
			ly := -rx*sinA + ry*cosA + halfH
			if lx < 0 || lx >= float64(dw) || ly < 0 || ly >= float64(dh) {
				continue
			}
			if cornerRadius > 0 && !insideRoundedRect(lx, ly, float64(dw), float64(dh), cornerRadius) {
				continue
			}
			sx := sb.Min.X + int(lx*float64(sw)/float64(dw))
			sy := sb.Min.Y + int(ly*float64(sh)/float64(dh))
			r, g, b, a := src.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			col := color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
			c.blend(px, py, col, alpha)
		}
	}
}

// insideRoundedRect reports whether a point in rect-local coordinates falls
// inside the rect after rounding its four corners with quarter-circle joins.
func insideRoundedRect(x, y, w, h, r float64) bool {
	cx := math.Max(r, math.Min(w-r, x))
	cy := math.Max(r, math.Min(h-r, y))
	dx := x - cx
	dy := y - cy
	return dx*dx+dy*dy <= r*r
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}
