// Package device manages the mounted audio player volume: presence checks,
// recursive inventory of audio files, pruning, and unmounting.
package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnmountFailed indicates the OS unmount utility reported an error.
var ErrUnmountFailed = errors.New("unmount failed")

// audioExtensions are the file types the player can play back.
var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true,
	".wav": true, ".flac": true,
}

// File is an audio file found on the device.
type File struct {
	Name string // path relative to the volume root
	Path string // absolute path
	Size int64  // size captured at scan time
	Keep bool   // user choice; false means delete during prune
}

// SizeMB returns the file size in megabytes for display.
func (f File) SizeMB() float64 {
	return float64(f.Size) / (1024 * 1024)
}

// Manager operates on a single mounted volume.
type Manager struct {
	root          string
	podcastFolder string
	log           *slog.Logger
}

// NewManager creates a Manager for the volume at root. Episodes are written
// under the named subfolder of the root.
func NewManager(root, podcastFolder string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{root: root, podcastFolder: podcastFolder, log: logger}
}

// Root returns the volume mount point.
func (m *Manager) Root() string {
	return m.root
}

// PodcastDir returns the destination directory for synced episodes.
func (m *Manager) PodcastDir() string {
	return filepath.Join(m.root, m.podcastFolder)
}

// Connected reports whether the volume is mounted. The presence of the mount
// point as a directory is the sole "device connected" signal.
func (m *Manager) Connected() bool {
	info, err := os.Stat(m.root)
	return err == nil && info.IsDir()
}

// Scan recursively lists the audio files on the device, skipping hidden
// entries. Read errors are soft: whatever was gathered before the error is
// returned.
func (m *Manager) Scan() []File {
	if !m.Connected() {
		return nil
	}

	var files []File
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable subtrees, keep what we have.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			rel = d.Name()
		}
		files = append(files, File{Name: rel, Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		m.log.Warn("device scan stopped early", "error", err)
	}

	m.log.Info("device scan", "root", m.root, "files", len(files))
	return files
}

// Delete removes a single file from the device.
func (m *Manager) Delete(f File) error {
	if err := os.Remove(f.Path); err != nil {
		return fmt.Errorf("delete %s: %w", f.Name, err)
	}
	m.log.Info("deleted device file", "name", f.Name)
	return nil
}

// Prune deletes every file not flagged Keep. Per-file failures do not halt
// the remaining deletions. Returns the number of successful deletions and
// the errors encountered.
func (m *Manager) Prune(files []File) (int, []error) {
	deleted := 0
	var errs []error
	for _, f := range files {
		if f.Keep {
			continue
		}
		if err := m.Delete(f); err != nil {
			m.log.Error("prune failed", "name", f.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errs
}

// Unmount ejects the volume via diskutil. Not retried on failure.
func (m *Manager) Unmount(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "diskutil", "unmount", m.root).CombinedOutput()
	if err != nil {
		m.log.Error("unmount failed", "root", m.root, "output", strings.TrimSpace(string(out)))
		return fmt.Errorf("%w: %s", ErrUnmountFailed, strings.TrimSpace(string(out)))
	}
	m.log.Info("device unmounted", "root", m.root)
	return nil
}
