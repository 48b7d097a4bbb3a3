package export

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Stubbable process/filesystem hooks, swapped out in tests so no test ever
// executes ffmpeg or ffprobe.
var (
	exportLookPath  = exec.LookPath
	exportRunOutput = func(name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = nil
		return cmd.Output()
	}
	exportMkdirTemp = os.MkdirTemp
	exportRemoveAll = os.RemoveAll
	exportWriteFile = os.WriteFile
	exportReadFile  = os.ReadFile
)

// ffmpegProc abstracts a running ffmpeg child process so tests can
// substitute an in-memory fake.
type ffmpegProc interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Wait() error
	Kill()
}

// startFFmpeg launches ffmpeg with the given arguments, wired for stdin
// frame feeding and stdout stream reading. Stubbed in tests.
var startFFmpeg = func(args ...string) (ffmpegProc, error) {
	path, err := exportLookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found")
	}

	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	return &execProc{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type execProc struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *execProc) Stdin() io.WriteCloser { return p.stdin }
func (p *execProc) Stdout() io.Reader     { return p.stdout }
func (p *execProc) Wait() error           { return p.cmd.Wait() }

func (p *execProc) Kill() {
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}
