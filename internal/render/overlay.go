package render

import "math"

const (
	overlayAlpha        = 0.9
	baseScaleCircular   = 3.0
	baseScaleLinear     = 2.5
	pulseScalePerUnit   = 0.2 // scale gain at full-scale mean magnitude
	swingRateRadPerSec  = 0.5
	maxCornerRadiusParm = 50.0
)

// drawOverlay composites the configured center image over the visualization.
// With a nil frame no pulse is applied, so static renders are stable.
func drawOverlay(c *Canvas, frame *SpectralFrame, cfg Config, elapsed float64) {
	if cfg.Overlay == nil {
		return
	}
	sb := cfg.Overlay.Bounds()
	sw := float64(sb.Dx())
	sh := float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return
	}

	base := baseScaleLinear
	if cfg.Kind == KindCircular {
		base = baseScaleCircular
	}
	imgScale := cfg.imageScale()
	maxW := float64(c.Width()) / base * imgScale
	maxH := float64(c.Height()) / base * imgScale

	// Fit within the ceiling, never upscaling past imageScale times the
	// natural size.
	scale := math.Min(maxW/sw, maxH/sh)
	if scale > imgScale {
		scale = imgScale
	}

	if cfg.Pulse && frame != nil {
		scale *= 1 + frame.MeanMagnitude()/255*pulseScalePerUnit*cfg.PulseIntensity
		// The pulse never pushes past the ceiling.
		if scale*sw > maxW || scale*sh > maxH {
			scale = math.Min(maxW/sw, maxH/sh)
		}
	}

	dw := int(sw * scale)
	dh := int(sh * scale)
	if dw < 1 || dh < 1 {
		return
	}

	angle := 0.0
	if cfg.Swing {
		angle = math.Sin(elapsed*swingRateRadPerSec) * cfg.SwingIntensity * math.Pi / 180
	}

	radius := 0.0
	if cfg.CornerRadius > 0 {
		parm := math.Min(cfg.CornerRadius, maxCornerRadiusParm)
		radius = math.Min(float64(dw), float64(dh)) / 2 * parm / maxCornerRadiusParm
	}

	c.DrawImageCentered(cfg.Overlay, dw, dh, angle, radius, overlayAlpha)
}
