package ui

import "github.com/charmbracelet/harmonica"

// springField smooths per-bin spectrum values between ticks so the preview
// does not flicker at low frame rates.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}

// smoothFrame applies the spring field to the frequency bins of a spectral
// frame in place. Waveform samples pass through untouched.
func (s *springField) smoothFreq(freq []byte) {
	s.resize(len(freq))
	for i, v := range freq {
		p := s.step(i, float64(v))
		if p < 0 {
			p = 0
		} else if p > 255 {
			p = 255
		}
		freq[i] = byte(p)
	}
}
