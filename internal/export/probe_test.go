package export

import (
	"errors"
	"testing"
	"time"
)

func probeResultWith(duration string, codecTypes ...string) ffprobeResult {
	var r ffprobeResult
	r.Format.Duration = duration
	for _, ct := range codecTypes {
		r.Streams = append(r.Streams, struct {
			CodecType string `json:"codec_type"`
		}{CodecType: ct})
	}
	return r
}

func TestProbeDuration(t *testing.T) {
	stubProbe(t, func(path string) (ffprobeResult, error) {
		return probeResultWith("187.341", "audio"), nil
	})

	d, err := probeDuration("song.m4a")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Duration(187.341 * float64(time.Second))
	if diff := d - want; diff < -time.Millisecond || diff > time.Millisecond {
		t.Errorf("duration = %v, want ~%v", d, want)
	}
}

func TestProbeDurationError(t *testing.T) {
	stubProbe(t, func(path string) (ffprobeResult, error) {
		return ffprobeResult{}, errors.New("ffprobe failed")
	})
	if _, err := probeDuration("song.m4a"); err == nil {
		t.Error("expected probe error")
	}
}

func TestVerifyArtifact(t *testing.T) {
	tests := []struct {
		name   string
		result ffprobeResult
		err    error
		want   bool
	}{
		{"video present", probeResultWith("1.0", "audio", "video"), nil, true},
		{"audio only", probeResultWith("1.0", "audio"), nil, false},
		{"no streams", probeResultWith("1.0"), nil, false},
		{"probe unavailable", ffprobeResult{}, errors.New("no ffprobe"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProbe(t, func(path string) (ffprobeResult, error) {
				return tt.result, tt.err
			})
			if got := verifyArtifact("out.mp4"); got != tt.want {
				t.Errorf("verifyArtifact() = %v, want %v", got, tt.want)
			}
		})
	}
}
