package render

// drawWaveform renders the time-domain waveform as a single stroked polyline
// across the full canvas width, one sample per horizontal slice.
func drawWaveform(c *Canvas, frame *SpectralFrame, cfg Config, p Palette) {
	n := len(frame.Wave)
	w := float64(c.Width())
	h := float64(c.Height())
	detail := cfg.detail()

	// Stroke width follows canvas width, clamped to 1..3 px.
	thickness := w / 320
	if thickness < 1 {
		thickness = 1
	} else if thickness > 3 {
		thickness = 3
	}
	thickness *= detail

	slice := w / float64(n)
	mid := h / 2

	prevX := 0.0
	prevY := mid
	for i := 0; i < n; i++ {
		// Samples are 128-centered; scale the excursion around mid-height.
		v := (float64(frame.Wave[i]) - 128) / 128
		x := float64(i) * slice
		y := mid + v*mid*detail
		if i > 0 {
			c.StrokeSegment(prevX, prevY, x, y, thickness, true, p.Stroke)
		}
		prevX = x
		prevY = y
	}
	// Close the trace to the right edge at mid-height.
	c.StrokeSegment(prevX, prevY, w, mid, thickness, true, p.Stroke)
}
