package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// OfflineEngine is an isolated decode graph over one audio file with no
// playback device attached. An export session owns one exclusively: playback
// time is defined by the samples the session has consumed, which makes the
// engine the session's clock authority.
type OfflineEngine struct {
	file      *os.File
	dec       audioDecoder
	tempClean func()

	framesRead int64 // stereo frames consumed so far
	closed     bool
}

// OpenOffline builds the isolated graph. It shares the decoder stack with
// live playback but is otherwise fully independent of it.
func OpenOffline(path string) (*OfflineEngine, error) {
	srcPath := path
	var tempClean func()
	if needsFFmpegDecode(path) {
		wavPath, cleanup, err := decodeToTempWAV(path)
		if err != nil {
			return nil, err
		}
		srcPath = wavPath
		tempClean = cleanup
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if tempClean != nil {
			tempClean()
		}
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		if tempClean != nil {
			tempClean()
		}
		return nil, err
	}

	return &OfflineEngine{
		file:      f,
		dec:       upmixIfMono(dec),
		tempClean: tempClean,
	}, nil
}

// SampleRate returns the source sample rate in Hz.
func (e *OfflineEngine) SampleRate() int { return e.dec.SampleRate() }

// Duration returns the total track length.
func (e *OfflineEngine) Duration() time.Duration {
	bytesPerSec := e.dec.SampleRate() * 2 * 2
	return time.Duration(float64(e.dec.Length()) / float64(bytesPerSec) * float64(time.Second))
}

// Position returns the playback time corresponding to the samples consumed
// so far.
func (e *OfflineEngine) Position() time.Duration {
	return time.Duration(float64(e.framesRead) / float64(e.dec.SampleRate()) * float64(time.Second))
}

// NextBlock decodes up to frames stereo frames and returns them interleaved.
// At end of stream it returns whatever remains together with io.EOF.
func (e *OfflineEngine) NextBlock(frames int) ([]int16, error) {
	if e.closed {
		return nil, fmt.Errorf("offline engine closed")
	}
	raw := make([]byte, frames*4)
	n, err := io.ReadFull(e.dec, raw)
	got := n / 4
	e.framesRead += int64(got)

	samples := make([]int16, got*2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return samples, io.EOF
	}
	return samples, err
}

// Close releases the decoder, file and any temp storage. Safe to call more
// than once.
func (e *OfflineEngine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.file.Close()
	if e.tempClean != nil {
		e.tempClean()
	}
}
