package export

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestSink(t *testing.T, proc *fakeProc) (*captureSink, []string) {
	t.Helper()
	var gotArgs []string
	stubStartFFmpeg(t, func(args ...string) (ffmpegProc, error) {
		gotArgs = args
		return proc, nil
	})
	sink, err := startCapture("song.mp3", codecPreference[0], 320, 180, 24)
	if err != nil {
		t.Fatal(err)
	}
	return sink, gotArgs
}

func TestCaptureStopFollowsLastData(t *testing.T) {
	proc := newFakeProc([]byte(strings.Repeat("x", 200*1024)), nil)
	sink, _ := newTestSink(t, proc)

	if !sink.Recording() {
		t.Fatal("sink not recording after start")
	}
	if err := sink.WriteFrame(make([]byte, 320*180*4)); err != nil {
		t.Fatal(err)
	}
	sink.StopFeed()

	var events []sinkEvent
	for ev := range sink.Events() {
		events = append(events, ev)
	}
	if len(events) < 2 {
		t.Fatalf("got %d events, want data then stop", len(events))
	}

	var total int
	for i, ev := range events {
		if ev.done != (i == len(events)-1) {
			t.Fatalf("event %d: done = %v; the stop event must come last", i, ev.done)
		}
		total += len(ev.data)
	}
	if total != 200*1024 {
		t.Errorf("drained %d bytes, want %d", total, 200*1024)
	}
	if sink.Recording() {
		t.Error("sink still recording after terminal event")
	}
}

func TestCaptureReaderNeverBlocksOnBacklog(t *testing.T) {
	// More 64 KiB chunks than the events channel holds.
	payload := strings.Repeat("x", 70*64*1024)
	proc := newFakeProc([]byte(payload), nil)
	sink, _ := newTestSink(t, proc)
	sink.StopFeed()

	// With nobody consuming events yet, the reader must still drain the
	// muxer completely and observe its exit.
	deadline := time.Now().Add(2 * time.Second)
	for sink.Recording() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.Recording() {
		t.Fatal("reader stalled before muxer exit")
	}

	var total int
	sawDone := false
	for ev := range sink.Events() {
		if ev.done {
			sawDone = true
			continue
		}
		total += len(ev.data)
	}
	if !sawDone {
		t.Fatal("no terminal event")
	}
	if total != len(payload) {
		t.Errorf("drained %d bytes, want %d", total, len(payload))
	}
}

func TestCaptureMuxerArgs(t *testing.T) {
	proc := newFakeProc(nil, nil)
	sink, args := newTestSink(t, proc)
	sink.Abort()
	for range sink.Events() {
	}

	joint := strings.Join(args, " ")
	for _, want := range []string{
		"-f rawvideo",
		"-pix_fmt rgba",
		"-video_size 320x180",
		"-framerate 24",
		"-i song.mp3",
		"-c:v libvpx-vp9",
		"-shortest",
		"-f webm pipe:1",
	} {
		if !strings.Contains(joint, want) {
			t.Errorf("muxer args missing %q in %q", want, joint)
		}
	}
}

func TestCaptureAbortSuppressesExitError(t *testing.T) {
	proc := newFakeProc([]byte("tail"), errors.New("signal: killed"))
	sink, _ := newTestSink(t, proc)

	sink.Abort()
	var last sinkEvent
	for ev := range sink.Events() {
		last = ev
	}
	if !last.done {
		t.Fatal("no terminal event after abort")
	}
	if last.err != nil {
		t.Errorf("terminal err = %v, want nil after deliberate abort", last.err)
	}
	if !proc.killed.Load() {
		t.Error("abort did not kill the muxer")
	}
}

func TestCaptureWriteAfterStop(t *testing.T) {
	proc := newFakeProc(nil, nil)
	sink, _ := newTestSink(t, proc)

	sink.Abort()
	for range sink.Events() {
	}
	if err := sink.WriteFrame([]byte{0, 0, 0, 0}); err == nil {
		t.Error("WriteFrame after stop should fail")
	}
}

func TestCaptureExitErrorPropagates(t *testing.T) {
	proc := newFakeProc(nil, errors.New("exit status 1"))
	sink, _ := newTestSink(t, proc)

	// Closing the feed without aborting keeps the exit status meaningful.
	sink.StopFeed()
	var last sinkEvent
	for ev := range sink.Events() {
		last = ev
	}
	if !last.done || last.err == nil {
		t.Errorf("terminal event = %+v, want done with error", last)
	}
}
