package export

import (
	"fmt"
	"strings"
)

// codecChoice is one capture codec/container pairing.
type codecChoice struct {
	Encoder    string // ffmpeg video encoder name
	AudioCodec string
	Container  string // ffmpeg muxer name
	Ext        string
}

// codecPreference is scanned in order; the first pair the sink supports
// wins. WebM variants lead because they stream cleanly to a pipe; matroska
// with x264 is the fallback.
var codecPreference = []codecChoice{
	{Encoder: "libvpx-vp9", AudioCodec: "libopus", Container: "webm", Ext: "webm"},
	{Encoder: "libvpx", AudioCodec: "libopus", Container: "webm", Ext: "webm"},
	{Encoder: "libx264", AudioCodec: "aac", Container: "matroska", Ext: "mkv"},
}

// listEncoders returns the sink's encoder listing. Stubbed in tests.
var listEncoders = func() ([]byte, error) {
	path, err := exportLookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found")
	}
	return exportRunOutput(path, "-hide_banner", "-encoders")
}

// negotiateCodec selects the first preferred pair the sink reports as
// supported. With no supported pair the session must fail before any frame
// is captured.
func negotiateCodec() (codecChoice, error) {
	out, err := listEncoders()
	if err != nil {
		return codecChoice{}, fmt.Errorf("%w: %v", ErrCodecUnsupported, err)
	}

	available := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// Listing lines look like " V....D libvpx-vp9  libvpx VP9 ...".
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "V") {
			available[fields[1]] = true
		}
	}

	for _, choice := range codecPreference {
		if available[choice.Encoder] {
			return choice, nil
		}
	}
	return codecChoice{}, ErrCodecUnsupported
}
