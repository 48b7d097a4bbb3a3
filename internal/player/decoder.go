package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder yields 16-bit little-endian interleaved PCM at the source
// sample rate. Length and Seek are in output bytes.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, err
		}
		return &mp3Decoder{dec: dec}, nil
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", filepath.Ext(f.Name()))
	}
}

// pcmQueue carries PCM bytes produced in decoder-sized bursts across
// smaller Read calls.
type pcmQueue struct {
	buf []byte
}

func (q *pcmQueue) drain(p []byte) int {
	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	return n
}

func (q *pcmQueue) keep(raw []byte, written int) {
	if written < len(raw) {
		q.buf = raw[written:]
	}
}

func (q *pcmQueue) reset() { q.buf = nil }

// clampPCM converts an int sample to int16 range.
func clampPCM(s int) int16 {
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}

// clampSeek bounds a whence-resolved position to 0..length.
func clampSeek(pos, offset, length int64, whence int) int64 {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = pos + offset
	case io.SeekEnd:
		next = length + offset
	}
	if next < 0 {
		next = 0
	}
	if next > length {
		next = length
	}
	return next
}

// --- MP3 ---

type mp3Decoder struct {
	dec *mp3.Decoder
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

type wavDecoder struct {
	file       *os.File
	queue      pcmQueue
	pos        int64
	length     int64
	pcmStart   int64
	sampleRate int
	channels   int
	bitDepth   int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels == 0 || bitDepth == 0 {
		return nil, fmt.Errorf("invalid WAV header")
	}
	srcFrame := int64(channels * bitDepth / 8)
	frames := dec.PCMLen() / srcFrame

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &wavDecoder{
		file:       f,
		length:     frames * int64(channels) * 2,
		pcmStart:   pcmStart,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n := d.queue.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	srcBytes := d.bitDepth / 8
	want := len(p) / 2
	if want == 0 {
		want = 1
	}
	src := make([]byte, want*srcBytes)
	n, err := io.ReadFull(d.file, src)
	samples := n / srcBytes
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		off := i * srcBytes
		var s int
		switch d.bitDepth {
		case 8:
			s = (int(src[off]) - 128) << 8
		case 16:
			s = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			v := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF)
			}
			s = int(v >> 8)
		case 32:
			s = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clampPCM(s)))
	}

	written := copy(p, raw)
	d.queue.keep(raw, written)
	d.pos += int64(written)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return written, err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.length, whence)
	frame := next / (int64(d.channels) * 2)
	srcOff := frame * int64(d.channels*d.bitDepth/8)
	if _, err := d.file.Seek(d.pcmStart+srcOff, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.queue.reset()
	d.pos = next
	return next, nil
}

func (d *wavDecoder) Length() int64     { return d.length }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	stream     *flac.Stream
	queue      pcmQueue
	pos        int64
	length     int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream:     stream,
		length:     int64(info.NSamples) * int64(channels) * 2,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n := d.queue.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	samples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, samples*d.channels*2)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			s := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				s >>= d.bps - 16
			case d.bps < 16:
				s <<= 16 - d.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*d.channels+ch)*2:], uint16(clampPCM(s)))
		}
	}

	written := copy(p, raw)
	d.queue.keep(raw, written)
	d.pos += int64(written)
	return written, nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.length, whence)
	sample := uint64(next / (int64(d.channels) * 2))
	if _, err := d.stream.Seek(sample); err != nil {
		return d.pos, err
	}
	d.queue.reset()
	d.pos = next
	return next, nil
}

func (d *flacDecoder) Length() int64     { return d.length }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggDecoder struct {
	reader     *oggvorbis.Reader
	queue      pcmQueue
	pos        int64
	length     int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		reader:     reader,
		length:     reader.Length() * int64(channels) * 2,
		sampleRate: reader.SampleRate(),
		channels:   channels,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n := d.queue.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	samples := make([]float32, len(p)/2)
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := samples[i]
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, raw)
	d.queue.keep(raw, written)
	d.pos += int64(written)
	return written, err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.length, whence)
	d.reader.SetPosition(next / (int64(d.channels) * 2))
	d.queue.reset()
	d.pos = next
	return next, nil
}

func (d *oggDecoder) Length() int64     { return d.length }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }

// --- mono upmix ---

// stereoUpmix duplicates a mono decoder's samples into both channels so the
// rest of the pipeline only ever sees interleaved stereo.
type stereoUpmix struct {
	src   audioDecoder
	queue pcmQueue
	pos   int64
}

func upmixIfMono(dec audioDecoder) audioDecoder {
	if dec.ChannelCount() != 1 {
		return dec
	}
	return &stereoUpmix{src: dec}
}

func (u *stereoUpmix) Read(p []byte) (int, error) {
	if n := u.queue.drain(p); n > 0 {
		u.pos += int64(n)
		return n, nil
	}

	mono := make([]byte, len(p)/2+2)
	n, err := u.src.Read(mono)
	samples := n / 2
	if samples == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		copy(raw[i*4:], mono[i*2:i*2+2])
		copy(raw[i*4+2:], mono[i*2:i*2+2])
	}

	written := copy(p, raw)
	u.queue.keep(raw, written)
	u.pos += int64(written)
	return written, err
}

func (u *stereoUpmix) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(u.pos, offset, u.Length(), whence)
	if _, err := u.src.Seek(next/2, io.SeekStart); err != nil {
		return u.pos, err
	}
	u.queue.reset()
	u.pos = next
	return next, nil
}

func (u *stereoUpmix) Length() int64     { return u.src.Length() * 2 }
func (u *stereoUpmix) SampleRate() int   { return u.src.SampleRate() }
func (u *stereoUpmix) ChannelCount() int { return 2 }
