// Package export drives video export sessions: an isolated audio decode and
// analysis graph feeds an off-screen frame renderer whose output is muxed
// with the source audio by a capture sink, optionally re-encoded into a
// second container. All session state is owned by one dispatcher goroutine;
// the UI communicates only through Start, Cancel and the Updates stream.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/olivier-w/vizcap/internal/analyzer"
	"github.com/olivier-w/vizcap/internal/player"
	"github.com/olivier-w/vizcap/internal/render"
)

// stopTolerance ends the drive loop once playback time is within this margin
// of the total duration.
const stopTolerance = time.Millisecond

// Phase is the session state machine's current step.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseAwaitingAudioMetadata
	PhaseRecording
	PhaseFinalizingPrimary
	PhaseTranscodingSecondary
	PhaseComplete
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseAwaitingAudioMetadata:
		return "awaiting audio metadata"
	case PhaseRecording:
		return "recording"
	case PhaseFinalizingPrimary:
		return "finalizing"
	case PhaseTranscodingSecondary:
		return "transcoding"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool { return p >= PhaseComplete }

// Settings are fixed for the whole session at Start. Target resolution and
// fps are independent of the live preview surface.
type Settings struct {
	AudioPath string
	Width     int
	Height    int
	FPS       int
	// SecondaryMP4 requests the two-phase re-encode into mp4/h264.
	SecondaryMP4 bool
	// Render holds the visualization parameters captured at session start.
	Render render.Config
}

// Artifact is the finished, downloadable video. A session produces either a
// complete artifact or nothing.
type Artifact struct {
	Name string
	Data []byte
}

// Update is one progress/status message from the session. The final Update
// carries a terminal phase and, on success, the artifact.
type Update struct {
	Phase    Phase
	Progress float64 // 0..100, non-decreasing
	Status   string
	Err      error
	Artifact *Artifact
}

// Session is one export run. At most one session exists at a time.
type Session struct {
	settings Settings

	// Owned by the run goroutine.
	phase           Phase
	progress        float64
	duration        time.Duration
	estimatedFrames int
	framesDone      int

	engine   *player.OfflineEngine
	an       *analyzer.Analyzer
	canvas   *render.Canvas
	sink     *captureSink
	store    *workStore
	chunks   [][]byte
	sinkDone bool

	updates    chan Update
	cancelCh   chan struct{}
	cancelOnce sync.Once

	cleanedUp bool
	cleanups  int // times cleanup actually ran; invariant: exactly 1
}

var (
	activeMu      sync.Mutex
	activeSession *Session
)

// Start begins an export session. It fails with ErrSessionActive while
// another session exists, leaving that session untouched.
func Start(settings Settings) (*Session, error) {
	if settings.AudioPath == "" {
		return nil, fmt.Errorf("%w: no audio file", ErrInput)
	}
	if settings.Width <= 0 || settings.Height <= 0 || settings.FPS <= 0 {
		return nil, fmt.Errorf("%w: bad target parameters", ErrInput)
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	if activeSession != nil {
		return nil, ErrSessionActive
	}

	s := &Session{
		settings: settings,
		phase:    PhaseIdle,
		updates:  make(chan Update, 128),
		cancelCh: make(chan struct{}),
	}
	activeSession = s
	go s.run()
	return s, nil
}

// Updates streams phase transitions and progress. The channel closes after
// the terminal update.
func (s *Session) Updates() <-chan Update { return s.updates }

// Cancel requests a stop. The session reaches PhaseCancelled before any
// resource is released, and no success update fires afterwards.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

func (s *Session) cancelled() bool {
	select {
	case <-s.cancelCh:
		return true
	default:
		return false
	}
}

// run is the session dispatcher: every state transition and every field
// mutation happens here.
func (s *Session) run() {
	artifact, err := s.execute()
	// A cancel initiated while the artifact was being assembled still
	// wins; no success update may follow it.
	if err == nil && s.cancelled() {
		artifact, err = nil, ErrCancelled
	}

	// One shared cleanup step on every exit path, before the terminal
	// phase is announced and the idle slot is released.
	s.cleanup()

	activeMu.Lock()
	activeSession = nil
	activeMu.Unlock()

	switch {
	case errors.Is(err, ErrCancelled):
		s.phase = PhaseCancelled
		s.emit(Update{Phase: PhaseCancelled, Status: "Export cancelled", Err: ErrCancelled})
	case err != nil:
		s.phase = PhaseFailed
		s.emit(Update{Phase: PhaseFailed, Status: "Export failed: " + err.Error(), Err: err})
	default:
		s.setProgress(100)
		s.phase = PhaseComplete
		s.emit(Update{Phase: PhaseComplete, Status: "Export complete: " + artifact.Name, Artifact: artifact})
	}
	close(s.updates)
}

func (s *Session) emit(u Update) {
	u.Progress = s.progress
	s.updates <- u
}

func (s *Session) setPhase(p Phase, status string) {
	s.phase = p
	s.emit(Update{Phase: p, Status: status})
}

// setProgress clamps to 0..100 and never moves backwards.
func (s *Session) setProgress(v float64) {
	if v > 100 {
		v = 100
	}
	if v > s.progress {
		s.progress = v
	}
}

// execute walks the state machine up to (not including) the terminal phase.
func (s *Session) execute() (*Artifact, error) {
	set := s.settings

	s.setPhase(PhaseInitializing, "Preparing export")
	if s.cancelled() {
		return nil, ErrCancelled
	}

	// No capture format, no session: fail before any frame is drawn.
	choice, err := negotiateCodec()
	if err != nil {
		return nil, err
	}

	engine, err := player.OpenOffline(set.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioGraph, err)
	}
	s.engine = engine

	s.setPhase(PhaseAwaitingAudioMetadata, "Reading audio metadata")
	duration := engine.Duration()
	if duration <= 0 {
		if d, perr := probeDuration(set.AudioPath); perr == nil {
			duration = d
		}
	}
	if duration <= 0 {
		return nil, ErrDuration
	}
	s.duration = duration
	// Display estimate only; the drive loop stops on playback time.
	s.estimatedFrames = int(duration.Seconds() * float64(set.FPS))

	s.canvas = render.NewCanvas(set.Width, set.Height)
	s.an = analyzer.New()

	if s.cancelled() {
		return nil, ErrCancelled
	}

	sink, err := startCapture(set.AudioPath, choice, set.Width, set.Height, set.FPS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecorder, err)
	}
	s.sink = sink

	s.setPhase(PhaseRecording, "Recording frames")
	if err := s.driveLoop(); err != nil {
		return nil, err
	}

	s.setPhase(PhaseFinalizingPrimary, "Finalizing capture")
	primary, err := s.finalizePrimary()
	if err != nil {
		return nil, err
	}

	base := artifactBase(set.AudioPath)
	if !set.SecondaryMP4 {
		return &Artifact{
			Name: artifactName(base, set.Width, set.Height, set.FPS, choice.Ext),
			Data: primary,
		}, nil
	}

	s.setPhase(PhaseTranscodingSecondary, "Converting to mp4")
	data, err := s.transcodeSecondary(primary)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Name: artifactName(base, set.Width, set.Height, set.FPS, "mp4"),
		Data: data,
	}, nil
}

// driveLoop renders and submits frames until playback time reaches the
// track duration. Frame pacing is defined by the audio samples consumed from
// the isolated engine, never by wall time or the frame estimate.
func (s *Session) driveLoop() error {
	set := s.settings
	rate := s.engine.SampleRate()

	// Recording spans half the progress bar when a secondary encode
	// follows, all of it otherwise.
	span := 100.0
	if set.SecondaryMP4 {
		span = 50.0
	}

	var consumed int64
	lastShown := -1
	eof := false
	for {
		if s.cancelled() {
			return ErrCancelled
		}
		if err := s.drainSink(); err != nil {
			return err
		}
		if !s.sink.Recording() {
			return fmt.Errorf("%w: capture stopped unexpectedly", ErrRecorder)
		}
		if eof || s.engine.Position() >= s.duration-stopTolerance {
			return nil
		}

		// Advance the isolated clock by exactly one frame of audio.
		target := int64(s.framesDone+1) * int64(rate) / int64(set.FPS)
		block, berr := s.engine.NextBlock(int(target - consumed))
		consumed += int64(len(block) / 2)
		switch {
		case berr == io.EOF:
			eof = true
		case berr != nil:
			return fmt.Errorf("%w: %v", ErrAudioGraph, berr)
		}

		s.an.PushSamples(block)
		frame := s.an.Snapshot()
		elapsed := s.engine.Position().Seconds()
		if rerr := render.Render(s.canvas, frame, set.Render, elapsed); rerr != nil {
			return fmt.Errorf("%w: %v", ErrRenderFrame, rerr)
		}
		if werr := s.sink.WriteFrame(s.canvas.Pix()); werr != nil {
			return fmt.Errorf("%w: %v", ErrRecorder, werr)
		}
		s.framesDone++

		if s.estimatedFrames > 0 {
			frac := float64(s.framesDone) / float64(s.estimatedFrames)
			if frac > 1 {
				frac = 1
			}
			s.setProgress(span * frac)
			if shown := int(s.progress); shown != lastShown {
				lastShown = shown
				s.emit(Update{Phase: PhaseRecording, Status: "Recording frames"})
			}
		}
	}
}

// drainSink consumes pending capture events without blocking.
func (s *Session) drainSink() error {
	for {
		select {
		case ev, ok := <-s.sink.Events():
			if !ok {
				return nil
			}
			if ev.done {
				s.sinkDone = true
				if ev.err != nil {
					return fmt.Errorf("%w: %v", ErrRecorder, ev.err)
				}
				return nil
			}
			s.chunks = append(s.chunks, ev.data)
		default:
			return nil
		}
	}
}

// finalizePrimary closes the frame stream, drains the remaining chunks
// through the terminal stop event and assembles the primary capture buffer.
func (s *Session) finalizePrimary() ([]byte, error) {
	s.sink.StopFeed()
	for !s.sinkDone {
		select {
		case <-s.cancelCh:
			return nil, ErrCancelled
		case ev, ok := <-s.sink.Events():
			if !ok {
				s.sinkDone = true
			} else if ev.done {
				s.sinkDone = true
				if ev.err != nil {
					return nil, fmt.Errorf("%w: %v", ErrRecorder, ev.err)
				}
			} else {
				s.chunks = append(s.chunks, ev.data)
			}
		}
	}

	var total int
	for _, c := range s.chunks {
		total += len(c)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: empty capture", ErrRecorder)
	}
	primary := make([]byte, 0, total)
	for _, c := range s.chunks {
		primary = append(primary, c...)
	}
	return primary, nil
}

// transcodeSecondary hands the primary buffer to the transcoder's working
// store and runs the mp4 conversion, mapping its progress onto 50..100.
func (s *Session) transcodeSecondary(primary []byte) ([]byte, error) {
	store, err := newWorkStore()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscode, err)
	}
	s.store = store

	if err := store.put("primary", primary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscode, err)
	}

	job := &transcodeJob{
		store:    store,
		width:    s.settings.Width,
		height:   s.settings.Height,
		fps:      s.settings.FPS,
		duration: s.duration,
	}
	err = job.run("primary", "converted.mp4", func(frac float64) {
		if frac > 1 {
			frac = 1
		}
		s.setProgress(50 + 50*frac)
		s.emit(Update{Phase: PhaseTranscodingSecondary, Status: "Converting to mp4"})
	}, s.cancelCh)
	if err != nil {
		return nil, err
	}

	data, rerr := store.read("converted.mp4")
	if rerr != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrTranscode)
	}
	if !verifyArtifact(store.path("converted.mp4")) {
		return nil, fmt.Errorf("%w: no video stream in output", ErrTranscode)
	}
	return data, nil
}

// cleanup releases everything the session holds: the isolated audio graph,
// the off-screen canvas, the capture handles, the transcoder working store
// and any accumulated chunks. It runs exactly once per session regardless of
// the exit path.
func (s *Session) cleanup() {
	if s.cleanedUp {
		return
	}
	s.cleanedUp = true
	s.cleanups++

	if s.sink != nil {
		s.sink.Abort()
		// Let the reader goroutine flush through its terminal event.
		for range s.sink.Events() {
		}
		s.sink = nil
	}
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
	s.chunks = nil
	s.canvas = nil
	s.an = nil
}

// artifactBase strips the directory and extension from the source path.
func artifactBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// artifactName derives the download filename from the source base name and
// the fixed target parameters.
func artifactName(base string, w, h, fps int, ext string) string {
	return fmt.Sprintf("%s_%dx%d_%dfps.%s", base, w, h, fps, ext)
}

// EstimateFrames returns the progress-display frame estimate for a duration
// and frame rate.
func EstimateFrames(duration time.Duration, fps int) int {
	return int(duration.Seconds() * float64(fps))
}
