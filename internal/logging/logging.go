// Package logging sets up the per-run operational log. The log is a plain
// text file truncated at the start of each run; it is a debugging aid, not
// a stable format.
package logging

import (
	"io"
	"log/slog"
	"os"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New opens the log file at path and returns a logger writing to it, plus a
// closer for the underlying file. When the file cannot be opened, logging is
// silently disabled rather than failing the run.
func New(path string) (*slog.Logger, io.Closer) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return slog.New(slog.DiscardHandler), nopCloser{}
	}
	return slog.New(slog.NewTextHandler(f, nil)), f
}
