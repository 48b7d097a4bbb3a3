package render

// barSpacing is the fixed gap between adjacent linear bars, in pixels.
const barSpacing = 1.0

// drawBars renders the linear bar visualization: one bar per displayed
// frequency bin, filled with the palette's vertical gradient, alpha scaled by
// magnitude.
func drawBars(c *Canvas, frame *SpectralFrame, cfg Config, p Palette) {
	count := BarCount(len(frame.Freq))
	w := float64(c.Width())
	h := float64(c.Height())
	detail := cfg.detail()

	// Bars plus fixed spacing fill the canvas width.
	barWidth := w/float64(count) - barSpacing
	if barWidth < 1 {
		barWidth = 1
	}

	x := 0.0
	for i := 0; i < count; i++ {
		v := float64(frame.Freq[i])
		barHeight := v / 255 * h * 0.9 * detail
		if barHeight > h {
			barHeight = h
		}
		alpha := v / 255
		if alpha < 0.2 {
			alpha = 0.2
		}
		if barHeight >= 1 {
			c.GradientRect(int(x), int(h-barHeight), int(barWidth), int(barHeight), p.Gradient, alpha)
		}
		x += barWidth + barSpacing
	}
}
