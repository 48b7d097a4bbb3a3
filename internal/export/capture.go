package export

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

// sinkEvent is one message from the capture sink: either a data chunk or the
// terminal stop signal. The stop event always follows the last data event,
// because both are emitted by the same reader goroutine.
type sinkEvent struct {
	data []byte
	err  error
	done bool
}

// captureSink feeds raw RGBA frames into an ffmpeg child that muxes them
// with the source audio into the negotiated container, streamed back as
// chunks.
type captureSink struct {
	proc      ffmpegProc
	events    chan sinkEvent
	recording atomic.Bool
	stopOnce  sync.Once
	aborted   atomic.Bool
}

// startCapture launches the muxer for the negotiated codec pair. Frames are
// accepted only between a successful start and the terminal event.
func startCapture(audioPath string, choice codecChoice, w, h, fps int) (*captureSink, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", choice.Encoder,
		"-c:a", choice.AudioCodec,
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-f", choice.Container,
		"pipe:1",
	}

	proc, err := startFFmpeg(args...)
	if err != nil {
		return nil, err
	}

	s := &captureSink{
		proc:   proc,
		events: make(chan sinkEvent, 64),
	}
	s.recording.Store(true)
	go s.readLoop()
	return s, nil
}

// readLoop pulls container chunks off the muxer's stdout until it exits,
// then emits the terminal event. Chunks the consumer has not picked up yet
// are held in a local backlog so reading the muxer never stalls on the
// events channel while frames are still being fed.
func (s *captureSink) readLoop() {
	buf := make([]byte, 64*1024)
	var backlog []sinkEvent
	flush := func() {
		for len(backlog) > 0 {
			select {
			case s.events <- backlog[0]:
				backlog = backlog[1:]
			default:
				return
			}
		}
	}

	for {
		n, err := s.proc.Stdout().Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			backlog = append(backlog, sinkEvent{data: chunk})
		}
		flush()
		if err != nil {
			break
		}
	}

	werr := s.proc.Wait()
	s.recording.Store(false)
	if s.aborted.Load() {
		// The session killed the process; its exit status is noise.
		werr = nil
	}
	backlog = append(backlog, sinkEvent{done: true, err: werr})
	for _, ev := range backlog {
		s.events <- ev
	}
	close(s.events)
}

// Recording reports whether the sink still accepts frames. The drive loop
// must stop submitting as soon as this turns false.
func (s *captureSink) Recording() bool { return s.recording.Load() }

// WriteFrame submits one raw RGBA frame.
func (s *captureSink) WriteFrame(pix []byte) error {
	if !s.recording.Load() {
		return fmt.Errorf("capture sink not recording")
	}
	_, err := s.proc.Stdin().Write(pix)
	return err
}

// StopFeed closes the frame stream so the muxer can finalize the container.
func (s *captureSink) StopFeed() {
	s.stopOnce.Do(func() {
		s.proc.Stdin().Close()
	})
}

// Abort kills the muxer. Remaining events drain through the usual channel,
// ending with the terminal event.
func (s *captureSink) Abort() {
	s.aborted.Store(true)
	s.recording.Store(false)
	s.stopOnce.Do(func() {
		s.proc.Stdin().Close()
	})
	s.proc.Kill()
}

// Events returns the chunk/stop stream.
func (s *captureSink) Events() <-chan sinkEvent { return s.events }
