package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbuxton/simple-podcast-sync/internal/library"
)

// fakeRunner stands in for the transcoder. By default it writes fake audio
// to the output path (the final argument).
type fakeRunner struct {
	calls   int
	lastOut string
	fail    bool
	noop    bool
}

func (r *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.calls++
	r.lastOut = args[len(args)-1]
	if r.fail {
		return []byte("ffmpeg version x\nsomething: Invalid data found"), errors.New("exit status 1")
	}
	if r.noop {
		return nil, nil
	}
	return nil, os.WriteFile(r.lastOut, []byte("transcoded audio"), 0o644)
}

// newTestEngine uses "sh" as the binary name so the PATH preflight passes
// without a real ffmpeg install; the fake runner never executes it.
func newTestEngine(r Runner) *Engine {
	return NewEngine(Config{Binary: "sh", Runner: r})
}

func sourceEpisode(t *testing.T, title string) *library.Episode {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp3")
	require.NoError(t, os.WriteFile(path, []byte("original audio"), 0o644))
	return &library.Episode{Title: title, Podcast: "Show", Path: path}
}

func TestEngine_Available_Missing(t *testing.T) {
	e := NewEngine(Config{Binary: "definitely-not-a-real-transcoder"})
	require.ErrorIs(t, e.Available(), ErrTranscoderUnavailable)

	res := e.Process(context.Background(), sourceEpisode(t, "Ep"), t.TempDir())
	require.Equal(t, StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, ErrTranscoderUnavailable)
}

func TestEngine_Process_CopiesToDevice(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestEngine(runner)
	ep := sourceEpisode(t, "Great Episode")
	destDir := filepath.Join(t.TempDir(), "Podcasts")

	res := e.Process(context.Background(), ep, destDir)
	require.NoError(t, res.Err)
	require.Equal(t, StatusCopied, res.Status)

	data, err := os.ReadFile(filepath.Join(destDir, "Great_Episode.mp3"))
	require.NoError(t, err)
	require.Equal(t, "transcoded audio", string(data))

	// The transcoder wrote to a private temp file, not the destination,
	// and the temp file is gone after the move.
	require.NotEqual(t, filepath.Join(destDir, "Great_Episode.mp3"), runner.lastOut)
	_, err = os.Stat(runner.lastOut)
	require.True(t, os.IsNotExist(err))
}

func TestEngine_Process_Idempotent(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestEngine(runner)
	ep := sourceEpisode(t, "Ep")
	destDir := t.TempDir()

	first := e.Process(context.Background(), ep, destDir)
	require.Equal(t, StatusCopied, first.Status)
	require.Equal(t, 1, runner.calls)

	info, err := os.Stat(filepath.Join(destDir, "Ep.mp3"))
	require.NoError(t, err)
	mtime := info.ModTime()

	second := e.Process(context.Background(), ep, destDir)
	require.Equal(t, StatusSkipped, second.Status)
	require.Equal(t, 1, runner.calls, "second call must not re-encode")

	info, err = os.Stat(filepath.Join(destDir, "Ep.mp3"))
	require.NoError(t, err)
	require.Equal(t, mtime, info.ModTime(), "destination must be untouched")
}

func TestEngine_Process_SourceMissing(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestEngine(runner)
	ep := &library.Episode{Title: "Gone", Path: filepath.Join(t.TempDir(), "gone.mp3")}

	res := e.Process(context.Background(), ep, t.TempDir())
	require.ErrorIs(t, res.Err, ErrSourceMissing)
	require.Zero(t, runner.calls)
}

func TestEngine_Process_ReplacesZeroLengthDestination(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestEngine(runner)
	ep := sourceEpisode(t, "Ep")
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "Ep.mp3")
	require.NoError(t, os.WriteFile(dest, nil, 0o644))

	res := e.Process(context.Background(), ep, destDir)
	require.NoError(t, res.Err)
	require.Equal(t, StatusCopied, res.Status)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestEngine_Process_TranscodeFailure(t *testing.T) {
	runner := &fakeRunner{fail: true}
	e := newTestEngine(runner)
	ep := sourceEpisode(t, "Ep")

	res := e.Process(context.Background(), ep, t.TempDir())
	require.ErrorIs(t, res.Err, ErrTranscodeFailed)
	require.Contains(t, res.Err.Error(), "Invalid data found")

	_, err := os.Stat(runner.lastOut)
	require.True(t, os.IsNotExist(err), "temp file must be cleaned up")
}

func TestEngine_Process_VerificationFailure(t *testing.T) {
	// Transcoder exits zero but produces no output bytes.
	runner := &fakeRunner{noop: true}
	e := newTestEngine(runner)
	ep := sourceEpisode(t, "Ep")

	res := e.Process(context.Background(), ep, t.TempDir())
	require.ErrorIs(t, res.Err, ErrVerificationFailed)
	require.Equal(t, StatusFailed, res.Status)
}

func TestEngine_Process_BatchIsolation(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestEngine(runner)
	destDir := t.TempDir()

	episodes := []*library.Episode{
		sourceEpisode(t, "First"),
		{Title: "Second", Path: filepath.Join(t.TempDir(), "missing.mp3")},
		sourceEpisode(t, "Third"),
	}

	var results []Result
	for _, ep := range episodes {
		results = append(results, e.Process(context.Background(), ep, destDir))
	}

	require.Equal(t, StatusCopied, results[0].Status)
	require.ErrorIs(t, results[1].Err, ErrSourceMissing)
	require.Equal(t, StatusCopied, results[2].Status)
}
