package render

// Analysis geometry shared by the live and export paths. Both feed the same
// renderer, so the window must not differ between them.
const (
	// WindowSize is the analysis window in samples.
	WindowSize = 512
	// FreqBins is the number of frequency-domain magnitudes per frame.
	FreqBins = WindowSize / 2
)

// SpectralFrame is one analysis snapshot: frequency-domain magnitudes and
// time-domain samples, both normalized to 0..255. The renderer treats it as
// read-only.
type SpectralFrame struct {
	Freq [FreqBins]byte
	Wave [WindowSize]byte
}

// MeanMagnitude returns the arithmetic mean of the full frequency array.
func (f *SpectralFrame) MeanMagnitude() float64 {
	var sum int
	for _, v := range f.Freq {
		sum += int(v)
	}
	return float64(sum) / float64(len(f.Freq))
}
