package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ffprobeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeFile runs ffprobe over a media file. Stubbed in tests.
var probeFile = func(path string) (ffprobeResult, error) {
	ffprobe, err := exportLookPath("ffprobe")
	if err != nil {
		return ffprobeResult{}, fmt.Errorf("ffprobe not found")
	}
	out, err := exportRunOutput(ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	if err != nil {
		return ffprobeResult{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	var result ffprobeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return ffprobeResult{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return result, nil
}

// probeDuration reads a source file's duration, used when the decode graph
// cannot report one itself.
func probeDuration(path string) (time.Duration, error) {
	result, err := probeFile(path)
	if err != nil {
		return 0, err
	}
	sec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	return time.Duration(sec * float64(time.Second)), nil
}

// verifyArtifact checks the transcoded output actually carries a video
// stream. Probe errors are not fatal: the byte-level non-empty check has
// already passed, and a missing ffprobe should not fail a finished export.
func verifyArtifact(path string) bool {
	result, err := probeFile(path)
	if err != nil {
		return true
	}
	for _, s := range result.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}
