// Package transcode converts podcast episodes for the device: each source
// file is re-encoded at double tempo with pitch preserved, written to a
// private temporary file, then moved into the device's podcast folder.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dbuxton/simple-podcast-sync/internal/library"
)

// Per-episode error kinds. Each failure is scoped to one episode; callers
// continue the batch.
var (
	ErrTranscoderUnavailable = errors.New("transcoder not found on PATH")
	ErrSourceMissing         = errors.New("source file missing")
	ErrTranscodeFailed       = errors.New("transcode failed")
	ErrCopyFailed            = errors.New("copy to device failed")
	ErrVerificationFailed    = errors.New("verification failed after copy")
)

// Runner invokes an external command and returns its combined output.
// It exists so tests can substitute the transcoder; a future version could
// add timeouts here without touching the engine.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Status classifies the outcome for one episode.
type Status int

const (
	StatusFailed Status = iota
	StatusCopied
	StatusSkipped // already on the device, not re-encoded
)

func (s Status) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is the outcome of processing a single episode.
type Result struct {
	Episode *library.Episode
	Status  Status
	Err     error
}

// Config holds engine settings.
type Config struct {
	Binary string  // transcoder executable, default "ffmpeg"
	Tempo  float64 // playback speed factor, default 2.0
	Runner Runner
	Logger *slog.Logger
}

// Engine transcodes and copies episodes to the device.
type Engine struct {
	binary string
	tempo  float64
	runner Runner
	log    *slog.Logger
}

// NewEngine creates an Engine, applying defaults for unset Config fields.
func NewEngine(cfg Config) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.Tempo == 0 {
		cfg.Tempo = 2.0
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{binary: cfg.Binary, tempo: cfg.Tempo, runner: cfg.Runner, log: cfg.Logger}
}

// Available reports whether the transcoder binary can be resolved on PATH.
func (e *Engine) Available() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%w: %q", ErrTranscoderUnavailable, e.binary)
	}
	return nil
}

// Process transcodes one episode and places it in destDir. It is idempotent:
// a non-empty destination file is treated as already synced. Every failure
// is returned in the Result rather than aborting the caller's batch.
func (e *Engine) Process(ctx context.Context, ep *library.Episode, destDir string) Result {
	fail := func(err error) Result {
		e.log.Error("episode failed", "episode", ep.Title, "error", err)
		return Result{Episode: ep, Status: StatusFailed, Err: err}
	}

	if err := e.Available(); err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrCopyFailed, err))
	}
	dest := filepath.Join(destDir, ep.Filename())

	// Already synced: a non-empty destination means skip, no re-encode.
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		e.log.Info("episode already on device", "episode", ep.Title, "dest", dest)
		return Result{Episode: ep, Status: StatusSkipped}
	}

	if _, err := os.Stat(ep.Path); err != nil {
		return fail(fmt.Errorf("%w: %s", ErrSourceMissing, ep.Path))
	}

	// A zero-length leftover must go before a fresh conversion.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fail(fmt.Errorf("%w: remove stale destination: %v", ErrCopyFailed, err))
		}
	}

	tmp, err := os.CreateTemp("", "podcast-sync-*"+filepath.Ext(dest))
	if err != nil {
		return fail(fmt.Errorf("%w: temp file: %v", ErrTranscodeFailed, err))
	}
	tmpPath := tmp.Name()
	tmp.Close()

	args := []string{
		"-i", ep.Path,
		"-filter:a", fmt.Sprintf("atempo=%g", e.tempo),
		"-vn",
		"-y",
		tmpPath,
	}
	e.log.Info("transcoding", "episode", ep.Title, "command", e.binary+" "+strings.Join(args, " "))

	if out, err := e.runner.Run(ctx, e.binary, args...); err != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("%w: %v: %s", ErrTranscodeFailed, err, lastLine(out)))
	}

	if err := moveFile(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("%w: %v", ErrCopyFailed, err))
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		return fail(fmt.Errorf("%w: %s", ErrVerificationFailed, dest))
	}

	e.log.Info("episode copied", "episode", ep.Title, "dest", dest, "bytes", info.Size())
	return Result{Episode: ep, Status: StatusCopied}
}

// moveFile renames src to dst, falling back to copy+remove when the rename
// crosses filesystems (the temp dir is rarely on the device volume).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// lastLine extracts the final non-empty line of transcoder output, which is
// where ffmpeg puts its error message.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
