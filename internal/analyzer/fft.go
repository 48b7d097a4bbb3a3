package analyzer

import "math"

// fft512 performs an in-place radix-2 Cooley-Tukey FFT over both slices,
// which must be exactly the analysis window long. Twiddle factors for the
// fixed window size are computed once.
type fft512 struct {
	n   int
	cos []float64
	sin []float64
	rev []int
}

func newFFT(n int) *fft512 {
	f := &fft512{
		n:   n,
		cos: make([]float64, n/2),
		sin: make([]float64, n/2),
		rev: make([]int, n),
	}
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		f.cos[k] = math.Cos(angle)
		f.sin[k] = math.Sin(angle)
	}
	bits := 0
	for 1<<bits < n {
		bits++
	}
	for i := 0; i < n; i++ {
		r := 0
		for b := 0; b < bits; b++ {
			r = r<<1 | (i>>b)&1
		}
		f.rev[i] = r
	}
	return f
}

func (f *fft512) transform(real, imag []float64) {
	n := f.n

	for i := 0; i < n; i++ {
		if j := f.rev[i]; i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for i := 0; i < n; i += size {
			for k := 0; k < half; k++ {
				wr := f.cos[k*step]
				wi := f.sin[k*step]
				a := i + k
				b := a + half
				tr := wr*real[b] - wi*imag[b]
				ti := wr*imag[b] + wi*real[b]
				real[b] = real[a] - tr
				imag[b] = imag[a] - ti
				real[a] += tr
				imag[a] += ti
			}
		}
	}
}
