package export

import "errors"

// Session failure taxonomy. Every failure is terminal for the session; there
// are no automatic retries.
var (
	// ErrSessionActive rejects a second Start while a session exists.
	ErrSessionActive = errors.New("an export session is already running")
	// ErrInput marks corrupt or unsupported source audio.
	ErrInput = errors.New("unsupported or corrupt input")
	// ErrAudioGraph marks a failure building the isolated decode graph.
	ErrAudioGraph = errors.New("audio graph setup failed")
	// ErrDuration marks a missing or zero audio duration.
	ErrDuration = errors.New("invalid audio duration")
	// ErrCodecUnsupported means no codec/container pair could be negotiated.
	ErrCodecUnsupported = errors.New("no supported capture codec")
	// ErrRecorder marks a capture sink start failure or mid-session fault.
	ErrRecorder = errors.New("capture failed")
	// ErrRenderFrame marks a failure while drawing an export frame.
	ErrRenderFrame = errors.New("frame render failed")
	// ErrTranscode marks a secondary re-encode failure.
	ErrTranscode = errors.New("transcode failed")
	// ErrCancelled marks a user-initiated stop.
	ErrCancelled = errors.New("export cancelled")
)
