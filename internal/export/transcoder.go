package export

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// workStore is the transcoder's named working storage: a temp dir of named
// entries. The owning session must Close it after use on every exit path.
type workStore struct {
	dir     string
	mu      sync.Mutex
	entries map[string]string
	closed  bool
}

func newWorkStore() (*workStore, error) {
	dir, err := exportMkdirTemp("", "vizcap-export-*")
	if err != nil {
		return nil, fmt.Errorf("creating transcode working store: %w", err)
	}
	return &workStore{dir: dir, entries: make(map[string]string)}, nil
}

// put writes a named entry.
func (w *workStore) put(name string, data []byte) error {
	path := w.reserve(name)
	return exportWriteFile(path, data, 0o644)
}

// reserve names an entry without writing it, for process outputs.
func (w *workStore) reserve(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	path := filepath.Join(w.dir, name)
	w.entries[name] = path
	return path
}

func (w *workStore) path(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entries[name]
}

// read returns an entry's contents.
func (w *workStore) read(name string) ([]byte, error) {
	return exportReadFile(w.path(name))
}

// Close removes every entry. Safe to call more than once.
func (w *workStore) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	exportRemoveAll(w.dir)
}

// transcodeJob re-encodes the primary capture into the secondary container,
// scaling to the target resolution and resampling to the target frame rate.
type transcodeJob struct {
	store    *workStore
	width    int
	height   int
	fps      int
	duration time.Duration
}

// run converts the input entry into the output entry, reporting fractional
// progress (0..1). Cancellation kills the child before returning. Failure is
// detected structurally from the process exit status; there is no log-text
// matching.
func (j *transcodeJob) run(inName, outName string, onProgress func(float64), cancel <-chan struct{}) error {
	in := j.store.path(inName)
	out := j.store.reserve(outName)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", in,
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", j.width, j.height, j.fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-f", "mp4",
		out,
	}

	proc, err := startFFmpeg(args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTranscode, err)
	}
	proc.Stdin().Close()

	progCh := make(chan float64, 16)
	waitCh := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(proc.Stdout())
		for sc.Scan() {
			// -progress emits key=value lines; out_time_us tracks the
			// encoded position.
			v, ok := strings.CutPrefix(sc.Text(), "out_time_us=")
			if !ok {
				continue
			}
			us, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if perr != nil || j.duration <= 0 {
				continue
			}
			frac := float64(us) / float64(j.duration.Microseconds())
			select {
			case progCh <- frac:
			default:
			}
		}
		waitCh <- proc.Wait()
	}()

	for {
		select {
		case <-cancel:
			proc.Kill()
			<-waitCh
			return ErrCancelled
		case frac := <-progCh:
			if onProgress != nil {
				onProgress(frac)
			}
		case werr := <-waitCh:
			// Flush progress reported before the child exited.
			for {
				select {
				case frac := <-progCh:
					if onProgress != nil {
						onProgress(frac)
					}
					continue
				default:
				}
				break
			}
			if werr != nil {
				return fmt.Errorf("%w: %v", ErrTranscode, werr)
			}
			return nil
		}
	}
}
