package library

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Episode is a downloaded podcast episode from the Apple Podcasts library.
type Episode struct {
	Title    string
	Podcast  string
	Path     string    // decoded local path of the downloaded asset
	Added    time.Time // download time
	Selected bool
}

func (e *Episode) String() string {
	return e.Podcast + ": " + e.Title
}

// Filename returns the sanitized on-device filename for the episode,
// preserving the source extension (default .mp3).
func (e *Episode) Filename() string {
	ext := filepath.Ext(e.Path)
	if ext == "" {
		ext = ".mp3"
	}
	return SanitizeFilename(e.Title) + ext
}

// maxFilenameLen caps sanitized names to stay well inside FAT32 limits.
const maxFilenameLen = 200

// SanitizeFilename turns an episode title into a safe filename:
// spaces become underscores, characters invalid on FAT/NTFS volumes are
// removed, leading/trailing spaces and dots are trimmed, and the result
// is capped at 200 characters. The result is never empty; a title with
// nothing usable in it falls back to "Unknown_Episode".
func SanitizeFilename(title string) string {
	s := strings.ReplaceAll(title, " ", "_")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, " .")
	if len(s) > maxFilenameLen {
		s = truncateRunes(s, maxFilenameLen)
		s = strings.Trim(s, " .")
	}
	if s == "" {
		return "Unknown_Episode"
	}
	return s
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// appleEpoch is the Core Data reference date. Timestamps in MTLibrary.sqlite
// are seconds since this instant, not since the Unix epoch.
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromAppleTime converts a Core Data timestamp to a time.Time.
func FromAppleTime(seconds float64) time.Time {
	return appleEpoch.Add(time.Duration(seconds * float64(time.Second)))
}
