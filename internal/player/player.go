// Package player decodes audio files and drives live playback. PCM flowing
// to the output device is mirrored into an analyzer, so the visualizer sees
// exactly what is heard. Export sessions use OfflineEngine instead, which
// shares the decoder stack but never touches the playback device.
package player

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/olivier-w/vizcap/internal/analyzer"
)

const defaultVolume = 0.8

// tapReader tracks bytes read for the playback clock and mirrors PCM into
// the analyzer ring.
type tapReader struct {
	reader io.ReadSeeker
	an     *analyzer.Analyzer
	pos    int64
	mu     sync.Mutex
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if n > 0 && t.an != nil {
		t.an.PushPCM(p[:n])
	}
	t.mu.Lock()
	t.pos += int64(n)
	t.mu.Unlock()
	return n, err
}

func (t *tapReader) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// The process gets one oto context; its rate is fixed by the first file.
var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func initOto(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return otoCtx, otoInitErr
}

// Player manages live audio playback of one file.
type Player struct {
	file      *os.File
	dec       audioDecoder
	tap       *tapReader
	otoPlayer *oto.Player
	an        *analyzer.Analyzer

	duration    time.Duration
	bytesPerSec int
	tempClean   func()

	done   chan struct{}
	mu     sync.Mutex
	paused bool
	closed bool
}

// Open starts playback of the given audio file, mirroring PCM into an.
// Formats without a native decoder are transcoded to a temp WAV first.
func Open(path string, an *analyzer.Analyzer) (*Player, error) {
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

	fail := func(err error) (*Player, error) {
		if tempClean != nil {
			tempClean()
		}
		return nil, err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return fail(err)
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return fail(err)
	}
	dec = upmixIfMono(dec)

	ctx, err := initOto(dec.SampleRate())
	if err != nil {
		f.Close()
		return fail(err)
	}

	bytesPerSec := dec.SampleRate() * 2 * 2
	p := &Player{
		file:        f,
		dec:         dec,
		tap:         &tapReader{reader: dec, an: an},
		an:          an,
		duration:    time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second)),
		bytesPerSec: bytesPerSec,
		tempClean:   tempClean,
		done:        make(chan struct{}),
	}

	p.otoPlayer = ctx.NewPlayer(p.tap)
	p.otoPlayer.SetVolume(defaultVolume)
	p.otoPlayer.Play()

	go p.monitor()

	return p, nil
}

// monitor polls for end of stream and closes the done channel.
func (p *Player) monitor() {
	total := p.dec.Length()
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		pos := p.tap.Pos()
		paused := p.paused
		p.mu.Unlock()

		if !paused && pos >= total {
			close(p.done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Done closes when playback reaches the end of the stream.
func (p *Player) Done() <-chan struct{} { return p.done }

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	return time.Duration(float64(p.tap.Pos()) / float64(p.bytesPerSec) * float64(time.Second))
}

// Duration returns the track length.
func (p *Player) Duration() time.Duration { return p.duration }

// TogglePause flips between playing and paused.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.paused {
		p.otoPlayer.Play()
	} else {
		p.otoPlayer.Pause()
	}
	p.paused = !p.paused
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Close stops playback and releases the decoder, file and any temp storage.
// Safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.otoPlayer.Close()
	p.file.Close()
	if p.tempClean != nil {
		p.tempClean()
	}
}
