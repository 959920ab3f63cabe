// Package library reads downloaded episode metadata from the Apple Podcasts
// library database (MTLibrary.sqlite). Access is strictly read-only.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStoreUnavailable indicates the Podcasts database could not be located
// or opened. A run cannot produce episodes without it.
var ErrStoreUnavailable = errors.New("podcasts library database unavailable")

// FindDatabase locates MTLibrary.sqlite in the known Apple container
// locations. Returns an empty string when nothing is found.
func FindDatabase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	// Podcasts stores its library in a Group Container whose ID varies.
	matches, _ := filepath.Glob(filepath.Join(home, "Library", "Group Containers", "*podcasts*"))
	for _, container := range matches {
		path := filepath.Join(container, "Documents", "MTLibrary.sqlite")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	alt := filepath.Join(home, "Library", "Containers", "com.apple.podcasts",
		"Data", "Documents", "MTLibrary.sqlite")
	if _, err := os.Stat(alt); err == nil {
		return alt
	}

	return ""
}

// Store provides read access to the episode catalog.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore wraps an already-open database handle.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, log: logger}
}

// Open opens the catalog database at path read-only.
// Returns ErrStoreUnavailable when path is empty or does not exist.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, ErrStoreUnavailable
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return NewStore(db, logger), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecentEpisodes returns the limit most recently downloaded episodes whose
// asset file still exists on disk, newest first. Rows with a missing file
// are skipped rather than failing the query; a zero or missing download
// timestamp falls back to the current time.
func (s *Store) RecentEpisodes(ctx context.Context, limit int) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.ZTITLE, p.ZTITLE, e.ZASSETURL, e.ZDOWNLOADDATE
		FROM ZMTEPISODE e
		JOIN ZMTPODCAST p ON e.ZPODCAST = p.Z_PK
		WHERE e.ZASSETURL IS NOT NULL
		AND e.ZASSETURL != ''
		AND e.ZDOWNLOADDATE IS NOT NULL
		ORDER BY e.ZDOWNLOADDATE DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		var title, podcast, assetURL sql.NullString
		var downloaded sql.NullFloat64
		if err := rows.Scan(&title, &podcast, &assetURL, &downloaded); err != nil {
			return episodes, fmt.Errorf("scan episode: %w", err)
		}

		path, err := assetPath(assetURL.String)
		if err != nil {
			s.log.Warn("skipping episode with bad asset URL", "url", assetURL.String, "error", err)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			s.log.Info("skipping episode, asset missing", "path", path)
			continue
		}

		added := time.Now()
		if downloaded.Valid && downloaded.Float64 != 0 {
			added = FromAppleTime(downloaded.Float64)
		}

		episodes = append(episodes, &Episode{
			Title:   orDefault(title.String, "Unknown Episode"),
			Podcast: orDefault(podcast.String, "Unknown Podcast"),
			Path:    path,
			Added:   added,
		})
	}
	if err := rows.Err(); err != nil {
		return episodes, fmt.Errorf("read episodes: %w", err)
	}

	s.log.Info("catalog read", "episodes", len(episodes))
	return episodes, nil
}

// assetPath decodes a file:// asset URL into a local filesystem path.
func assetPath(assetURL string) (string, error) {
	if !strings.HasPrefix(assetURL, "file://") {
		return "", fmt.Errorf("not a file URL: %q", assetURL)
	}
	path, err := url.PathUnescape(strings.TrimPrefix(assetURL, "file://"))
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("empty path")
	}
	return path, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
