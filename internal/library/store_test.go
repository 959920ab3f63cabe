package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_RecentEpisodes_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	insertEpisode(t, s, "Old", createAsset(t, dir, "old.mp3"), 100)
	insertEpisode(t, s, "New", createAsset(t, dir, "new.mp3"), 300)
	insertEpisode(t, s, "Mid", createAsset(t, dir, "mid.mp3"), 200)

	episodes, err := s.RecentEpisodes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("got %d episodes, want 3", len(episodes))
	}
	for i, want := range []string{"New", "Mid", "Old"} {
		if episodes[i].Title != want {
			t.Errorf("episode %d = %q, want %q", i, episodes[i].Title, want)
		}
	}
}

func TestStore_RecentEpisodes_Limit(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	for i, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		insertEpisode(t, s, name, createAsset(t, dir, name), float64(i))
	}

	episodes, err := s.RecentEpisodes(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 2 {
		t.Errorf("got %d episodes, want 2", len(episodes))
	}
}

func TestStore_RecentEpisodes_SkipsMissingAssets(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	insertEpisode(t, s, "Present", createAsset(t, dir, "here.mp3"), 200)
	insertEpisode(t, s, "Gone", "file://"+filepath.Join(dir, "missing.mp3"), 300)
	insertEpisode(t, s, "NotAFileURL", "https://example.com/ep.mp3", 400)

	episodes, err := s.RecentEpisodes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 1 || episodes[0].Title != "Present" {
		t.Fatalf("got %+v, want only Present", episodes)
	}
}

func TestStore_RecentEpisodes_DecodesEscapedPaths(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	insertEpisode(t, s, "Spaced", createAsset(t, dir, "my episode.mp3"), 100)

	episodes, err := s.RecentEpisodes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	if filepath.Base(episodes[0].Path) != "my episode.mp3" {
		t.Errorf("path = %q, want decoded spaces", episodes[0].Path)
	}
}

func TestStore_RecentEpisodes_ZeroTimestampFallsBackToNow(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	insertEpisode(t, s, "NoDate", createAsset(t, dir, "nodate.mp3"), 0)

	before := time.Now()
	episodes, err := s.RecentEpisodes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	if episodes[0].Added.Before(before) {
		t.Errorf("Added = %v, want fallback to current time", episodes[0].Added)
	}
}

func TestStore_RecentEpisodes_DefaultTitles(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()

	insertEpisode(t, s, "", createAsset(t, dir, "untitled.mp3"), 100)

	episodes, err := s.RecentEpisodes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	if episodes[0].Title != "Unknown Episode" {
		t.Errorf("Title = %q, want default", episodes[0].Title)
	}
}

func TestOpen_MissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.sqlite"), nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Open error = %v, want ErrStoreUnavailable", err)
	}

	_, err = Open("", nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Open(\"\") error = %v, want ErrStoreUnavailable", err)
	}
}
