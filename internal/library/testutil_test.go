package library

import (
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// testSchema mirrors the two MTLibrary.sqlite tables the reader touches.
const testSchema = `
CREATE TABLE ZMTPODCAST (
	Z_PK INTEGER PRIMARY KEY,
	ZTITLE TEXT
);
CREATE TABLE ZMTEPISODE (
	Z_PK INTEGER PRIMARY KEY,
	ZPODCAST INTEGER,
	ZTITLE TEXT,
	ZASSETURL TEXT,
	ZDOWNLOADDATE REAL
);
INSERT INTO ZMTPODCAST (Z_PK, ZTITLE) VALUES (1, 'Test Show');
`

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return NewStore(db, nil)
}

// createAsset writes a dummy episode file and returns its file:// URL.
func createAsset(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

func insertEpisode(t *testing.T, s *Store, title, assetURL string, downloaded float64) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO ZMTEPISODE (ZPODCAST, ZTITLE, ZASSETURL, ZDOWNLOADDATE) VALUES (1, ?, ?, ?)`,
		title, assetURL, downloaded,
	)
	if err != nil {
		t.Fatalf("insert episode: %v", err)
	}
}
