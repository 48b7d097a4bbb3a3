package render

import "fmt"

// Render draws one frame of the selected visualization onto the canvas,
// followed by the optional center image overlay. It is deterministic: the
// same canvas size, frame, config and elapsed time always produce identical
// pixels. elapsed is in seconds and feeds the swing animation; callers decide
// what clock it comes from.
//
// A nil frame draws the background and a static overlay only (no pulse).
// A panic while drawing is returned as an error and leaves the canvas in
// whatever state the failed tick produced; callers abort the tick.
func Render(c *Canvas, frame *SpectralFrame, cfg Config, elapsed float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render frame: %v", r)
		}
	}()

	p := Lookup(cfg.Theme)
	c.Fill(p.Background)

	if frame != nil {
		switch {
		case cfg.Kind == KindCircular:
			drawRadial(c, frame, cfg, p)
		case cfg.LinearStyle == StyleWaveform:
			drawWaveform(c, frame, cfg, p)
		default:
			drawBars(c, frame, cfg, p)
		}
	}

	drawOverlay(c, frame, cfg, elapsed)
	return nil
}

// BarCount returns the number of linear bars displayed for a frequency array
// of length n.
func BarCount(n int) int {
	count := n * 3 / 4
	if count < 1 {
		count = 1
	}
	return count
}

// RadialBarCount returns the number of circular bars displayed for a
// frequency array of length n.
func RadialBarCount(n int) int {
	count := int(float64(n) * 0.7)
	if count < 1 {
		count = 1
	}
	return count
}
