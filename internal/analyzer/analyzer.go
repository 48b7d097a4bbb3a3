// Package analyzer derives spectral snapshots from a PCM stream. One
// Analyzer instance serves either the live playback tap or an export
// session's isolated graph; both use the same fixed analysis window so
// preview and export stay visually comparable.
package analyzer

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/dsp/window"

	"github.com/olivier-w/vizcap/internal/render"
)

// Byte-scaling range for frequency magnitudes, in dBFS. Magnitudes at or
// below minDB map to 0, at or above maxDB to 255.
const (
	minDB = -100.0
	maxDB = 0.0
)

// hannCoherentGain compensates the amplitude loss of the Hann window.
const hannCoherentGain = 0.5

// Analyzer converts interleaved stereo int16 PCM into SpectralFrames over a
// fixed window of render.WindowSize samples.
type Analyzer struct {
	ring *sampleRing
	fft  *fft512
	hann []float64

	// Scratch buffers reused across snapshots.
	stereo []int16
	re     []float64
	im     []float64
}

// New creates an analyzer. The ring holds several windows of history so tap
// writes and snapshot reads need not be in lockstep.
func New() *Analyzer {
	n := render.WindowSize
	hann := make([]float64, n)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)

	return &Analyzer{
		ring:   newSampleRing(n * 2 * 4),
		fft:    newFFT(n),
		hann:   hann,
		stereo: make([]int16, n*2),
		re:     make([]float64, n),
		im:     make([]float64, n),
	}
}

// PushPCM feeds little-endian 16-bit stereo PCM bytes into the analysis
// window. Safe to call from the playback tap goroutine.
func (a *Analyzer) PushPCM(p []byte) {
	n := len(p) / 2
	if n == 0 {
		return
	}
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(p[i*2:]))
	}
	a.ring.Write(samples)
}

// PushSamples feeds interleaved stereo int16 samples directly.
func (a *Analyzer) PushSamples(samples []int16) {
	a.ring.Write(samples)
}

// Reset drops all buffered audio, so the next snapshot starts from silence.
func (a *Analyzer) Reset() {
	a.ring.Clear()
}

// Snapshot computes a SpectralFrame over the most recent window. The frame
// is freshly allocated; callers own it.
func (a *Analyzer) Snapshot() *render.SpectralFrame {
	n := render.WindowSize
	a.ring.ReadLast(a.stereo)

	frame := &render.SpectralFrame{}
	for i := 0; i < n; i++ {
		// Mix to mono, full scale -1..1.
		mono := (float64(a.stereo[i*2]) + float64(a.stereo[i*2+1])) / 2 / 32768

		w := 128 + mono*127
		if w < 0 {
			w = 0
		} else if w > 255 {
			w = 255
		}
		frame.Wave[i] = byte(w)

		a.re[i] = mono * a.hann[i]
		a.im[i] = 0
	}

	a.fft.transform(a.re, a.im)

	for k := 0; k < render.FreqBins; k++ {
		mag := math.Hypot(a.re[k], a.im[k])
		amp := 2 * mag / (float64(n) * hannCoherentGain)
		frame.Freq[k] = byteMagnitude(amp)
	}
	return frame
}

// byteMagnitude maps a linear amplitude to the 0..255 dB-scaled range.
func byteMagnitude(amp float64) byte {
	if amp <= 0 {
		return 0
	}
	db := 20 * math.Log10(amp)
	v := (db - minDB) / (maxDB - minDB) * 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
