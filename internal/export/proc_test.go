package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeProc is an in-memory ffmpegProc. Its stdout blocks until stdin is
// closed or the process is killed, mirroring a muxer that flushes its
// container on input EOF.
type fakeProc struct {
	payload []byte
	waitErr error

	writeErr     error
	bytesWritten atomic.Int64
	killed       atomic.Bool

	// waitOnKill makes Wait block until Kill, modeling a child that only
	// dies when signalled.
	waitOnKill bool

	closeOnce sync.Once
	closedCh  chan struct{}
	killOnce  sync.Once
	killedCh  chan struct{}

	mu     sync.Mutex
	reader *bytes.Reader
}

func newFakeProc(payload []byte, waitErr error) *fakeProc {
	return &fakeProc{
		payload:  payload,
		waitErr:  waitErr,
		closedCh: make(chan struct{}),
		killedCh: make(chan struct{}),
	}
}

func (p *fakeProc) closeStdin() {
	p.closeOnce.Do(func() { close(p.closedCh) })
}

type fakeStdin struct{ p *fakeProc }

func (w fakeStdin) Write(b []byte) (int, error) {
	if w.p.writeErr != nil {
		return 0, w.p.writeErr
	}
	w.p.bytesWritten.Add(int64(len(b)))
	return len(b), nil
}

func (w fakeStdin) Close() error {
	w.p.closeStdin()
	return nil
}

type fakeStdout struct{ p *fakeProc }

func (r fakeStdout) Read(b []byte) (int, error) {
	<-r.p.closedCh
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if r.p.reader == nil {
		r.p.reader = bytes.NewReader(r.p.payload)
	}
	return r.p.reader.Read(b)
}

func (p *fakeProc) Stdin() io.WriteCloser { return fakeStdin{p} }
func (p *fakeProc) Stdout() io.Reader     { return fakeStdout{p} }

func (p *fakeProc) Wait() error {
	<-p.closedCh
	if p.waitOnKill {
		<-p.killedCh
	}
	return p.waitErr
}

func (p *fakeProc) Kill() {
	p.killed.Store(true)
	p.killOnce.Do(func() { close(p.killedCh) })
	p.closeStdin()
}

// encoder listings as `ffmpeg -hide_banner -encoders` prints them
const (
	listingFull = ` Encoders:
 V....D libvpx             libvpx VP8 (codec vp8)
 V....D libvpx-vp9         libvpx VP9 (codec vp9)
 V....D libx264            libx264 H.264 / AVC / MPEG-4 AVC
 A....D aac                AAC (Advanced Audio Coding)
 A....D libopus            libopus Opus
`
	listingX264Only = ` Encoders:
 V....D libx264            libx264 H.264 / AVC / MPEG-4 AVC
 A....D aac                AAC (Advanced Audio Coding)
`
	listingAudioOnly = ` Encoders:
 A....D aac                AAC (Advanced Audio Coding)
 A....D libopus            libopus Opus
`
)

func stubEncoders(t *testing.T, listing string) {
	t.Helper()
	orig := listEncoders
	listEncoders = func() ([]byte, error) { return []byte(listing), nil }
	t.Cleanup(func() { listEncoders = orig })
}

func stubStartFFmpeg(t *testing.T, fn func(args ...string) (ffmpegProc, error)) {
	t.Helper()
	orig := startFFmpeg
	startFFmpeg = fn
	t.Cleanup(func() { startFFmpeg = orig })
}

func stubProbe(t *testing.T, fn func(path string) (ffprobeResult, error)) {
	t.Helper()
	orig := probeFile
	probeFile = fn
	t.Cleanup(func() { probeFile = orig })
}

// writeTestWAV creates a stereo 16-bit PCM file carrying a 440 Hz tone.
func writeTestWAV(t *testing.T, seconds float64, rate int) string {
	t.Helper()
	frames := int(seconds * float64(rate))
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(data[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(v))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	path := filepath.Join(t.TempDir(), "track.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// errWrite forces recorder failures.
var errWrite = fmt.Errorf("broken pipe")
