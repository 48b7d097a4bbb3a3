package analyzer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/olivier-w/vizcap/internal/render"
)

// pushTone feeds a full analysis window of a stereo sine tone at the given
// bin-aligned frequency fraction (cycles per window).
func pushTone(a *Analyzer, cycles float64, amp float64) {
	n := render.WindowSize
	samples := make([]int16, n*2)
	for i := 0; i < n; i++ {
		v := int16(amp * 32767 * math.Sin(2*math.Pi*cycles*float64(i)/float64(n)))
		samples[i*2] = v
		samples[i*2+1] = v
	}
	a.PushSamples(samples)
}

func TestSnapshotSilence(t *testing.T) {
	a := New()
	frame := a.Snapshot()
	for i, v := range frame.Freq {
		if v != 0 {
			t.Fatalf("freq[%d] = %d on silence, want 0", i, v)
		}
	}
	for i, v := range frame.Wave {
		if v != 128 {
			t.Fatalf("wave[%d] = %d on silence, want 128", i, v)
		}
	}
}

func TestSnapshotTonePeaksAtBin(t *testing.T) {
	a := New()
	pushTone(a, 32, 0.5)
	frame := a.Snapshot()

	peak := frame.Freq[32]
	if peak == 0 {
		t.Fatal("tone bin is silent")
	}
	for _, k := range []int{8, 80, 200} {
		if frame.Freq[k] >= peak {
			t.Errorf("freq[%d] = %d not below tone bin %d", k, frame.Freq[k], peak)
		}
	}
}

func TestSnapshotLouderIsBigger(t *testing.T) {
	quiet := New()
	pushTone(quiet, 16, 0.05)
	loud := New()
	pushTone(loud, 16, 0.8)

	q := quiet.Snapshot().Freq[16]
	l := loud.Snapshot().Freq[16]
	if l <= q {
		t.Errorf("freq at bin 16: loud %d <= quiet %d", l, q)
	}
}

func TestSnapshotWaveMapping(t *testing.T) {
	a := New()
	n := render.WindowSize
	samples := make([]int16, n*2)
	for i := 0; i < n; i++ {
		samples[i*2] = 32767
		samples[i*2+1] = 32767
	}
	a.PushSamples(samples)

	frame := a.Snapshot()
	// Full-scale positive maps near the top of the byte range.
	if frame.Wave[n-1] < 250 {
		t.Errorf("full-scale wave sample = %d, want near 255", frame.Wave[n-1])
	}
}

func TestPushPCMMatchesPushSamples(t *testing.T) {
	samples := make([]int16, render.WindowSize*2)
	for i := range samples {
		samples[i] = int16(i*37 - 16000)
	}
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	a := New()
	a.PushSamples(samples)
	b := New()
	b.PushPCM(raw)

	fa := a.Snapshot()
	fb := b.Snapshot()
	if *fa != *fb {
		t.Error("PushPCM and PushSamples disagree on identical audio")
	}
}

func TestReset(t *testing.T) {
	a := New()
	pushTone(a, 16, 0.8)
	a.Reset()

	frame := a.Snapshot()
	for i, v := range frame.Freq {
		if v != 0 {
			t.Fatalf("freq[%d] = %d after reset, want 0", i, v)
		}
	}
}

func TestSnapshotUsesMostRecentWindow(t *testing.T) {
	a := New()
	pushTone(a, 16, 0.8)
	// Push enough silence to displace the tone entirely.
	for i := 0; i < 8; i++ {
		a.PushSamples(make([]int16, render.WindowSize*2))
	}
	frame := a.Snapshot()
	if frame.Freq[16] != 0 {
		t.Errorf("freq[16] = %d after tone displaced, want 0", frame.Freq[16])
	}
}

func TestByteMagnitudeRange(t *testing.T) {
	tests := []struct {
		amp  float64
		want byte
	}{
		{0, 0},
		{-1, 0},
		{1e-6, 0}, // -120 dB, below floor
		{1, 255},  // 0 dB, full scale
		{2, 255},  // above ceiling
	}
	for _, tt := range tests {
		if got := byteMagnitude(tt.amp); got != tt.want {
			t.Errorf("byteMagnitude(%v) = %d, want %d", tt.amp, got, tt.want)
		}
	}

	// Interior amplitudes must stay distinguishable, not saturate.
	quiet := byteMagnitude(0.001) // -60 dB
	mid := byteMagnitude(0.05)    // -26 dB
	loud := byteMagnitude(0.8)    // -1.9 dB
	if quiet == 0 || loud == 255 {
		t.Errorf("interior amplitudes hit the clamp: quiet %d loud %d", quiet, loud)
	}
	if !(quiet < mid && mid < loud) {
		t.Errorf("magnitudes not monotonic: %d, %d, %d", quiet, mid, loud)
	}
}
