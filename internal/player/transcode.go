package player

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Stubbable process/filesystem hooks, swapped out in tests.
var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
	mkdirTemp = os.MkdirTemp
	removeAll = os.RemoveAll
	sleep     = time.Sleep
)

// needsFFmpegDecode reports whether the format has no native Go decoder and
// must go through an ffmpeg transcode to a temporary WAV first.
func needsFFmpegDecode(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aac", ".m4a", ".m4b":
		return true
	default:
		return false
	}
}

// decodeToTempWAV transcodes the file to a temporary WAV and returns its path
// plus a cleanup func that removes the temp dir.
func decodeToTempWAV(path string) (string, func(), error) {
	ffmpeg, err := ffmpegLookPath("ffmpeg")
	if err != nil {
		return "", nil, fmt.Errorf("ffmpeg not found (required for %s input)", filepath.Ext(path))
	}

	tmpDir, err := mkdirTemp("", "vizcap-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() {
		removeTempDirWithRetry(tmpDir)
	}

	outPath := filepath.Join(tmpDir, "audio.wav")
	output, err := ffmpegRun(ffmpeg, "-y", "-i", path, outPath)
	if err != nil {
		cleanup()
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", nil, fmt.Errorf("ffmpeg failed to decode audio: %w", err)
		}
		return "", nil, fmt.Errorf("ffmpeg failed to decode audio: %w\n%s", err, msg)
	}

	return outPath, cleanup, nil
}

// removeTempDirWithRetry retries removal a few times; on some platforms the
// file can still be mapped briefly after playback stops.
func removeTempDirWithRetry(dir string) {
	for attempt := 0; attempt < 5; attempt++ {
		if err := removeAll(dir); err == nil || attempt == 4 {
			return
		}
		sleep(75 * time.Millisecond)
	}
}
