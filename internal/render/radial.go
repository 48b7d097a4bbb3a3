package render

import "math"

// innerRadiusRatio positions the radial bars' inner edge as a fraction of
// the maximum radius.
const innerRadiusRatio = 0.25

// drawRadial renders the circular bar visualization: bars radiate from an
// inner circle outward, colored by the palette's hue function over the bar's
// angular position.
func drawRadial(c *Canvas, frame *SpectralFrame, cfg Config, p Palette) {
	count := RadialBarCount(len(frame.Freq))
	w := float64(c.Width())
	h := float64(c.Height())
	detail := cfg.detail()

	cx := w / 2
	cy := h / 2
	maxRadius := math.Min(w, h) / 2 * 0.9 * detail
	inner := maxRadius * innerRadiusRatio

	// Bar thickness follows the spacing available at the inner radius.
	thickness := 2 * math.Pi * inner / float64(count) * 0.8
	if thickness < 1 {
		thickness = 1
	}

	for i := 0; i < count; i++ {
		v := float64(frame.Freq[i])
		barLen := v / 255 * (maxRadius - inner)
		alpha := v / 255
		if alpha < 0.2 {
			alpha = 0.2
		}
		frac := float64(i) / float64(count)
		col := p.Hue(frac, alpha)

		angle := frac*2*math.Pi - math.Pi/2
		cosA := math.Cos(angle)
		sinA := math.Sin(angle)
		x0 := cx + cosA*inner
		y0 := cy + sinA*inner
		x1 := cx + cosA*(inner+barLen)
		y1 := cy + sinA*(inner+barLen)

		// Rounded outer cap only once the bar is long enough to hold it.
		roundCap := barLen > thickness/2
		c.StrokeSegment(x0, y0, x1, y1, thickness, roundCap, col)
	}
}
