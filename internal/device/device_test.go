package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestManager_Connected(t *testing.T) {
	m := NewManager(t.TempDir(), "Podcasts", nil)
	require.True(t, m.Connected())

	m = NewManager(filepath.Join(t.TempDir(), "absent"), "Podcasts", nil)
	require.False(t, m.Connected())
	require.Nil(t, m.Scan())
}

func TestManager_Scan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), 10)
	writeFile(t, filepath.Join(root, "Podcasts", "b.M4A"), 20)
	writeFile(t, filepath.Join(root, "Podcasts", "notes.txt"), 5)
	writeFile(t, filepath.Join(root, ".hidden.mp3"), 5)
	writeFile(t, filepath.Join(root, ".Trashes", "c.mp3"), 5)

	m := NewManager(root, "Podcasts", nil)
	files := m.Scan()

	names := make(map[string]int64)
	for _, f := range files {
		names[f.Name] = f.Size
	}
	require.Len(t, files, 2)
	require.Equal(t, int64(10), names["a.mp3"])
	require.Equal(t, int64(20), names[filepath.Join("Podcasts", "b.M4A")])
}

func TestManager_Prune(t *testing.T) {
	root := t.TempDir()
	var files []File
	for i, name := range []string{"1.mp3", "2.mp3", "3.mp3", "4.mp3", "5.mp3"} {
		path := filepath.Join(root, name)
		writeFile(t, path, 8)
		files = append(files, File{Name: name, Path: path, Keep: i < 2})
	}

	m := NewManager(root, "Podcasts", nil)
	deleted, errs := m.Prune(files)

	require.Equal(t, 3, deleted)
	require.Empty(t, errs)
	for i, f := range files {
		_, err := os.Stat(f.Path)
		if i < 2 {
			require.NoError(t, err, "kept file %s should survive", f.Name)
		} else {
			require.True(t, os.IsNotExist(err), "unkept file %s should be gone", f.Name)
		}
	}
}

func TestManager_Prune_VanishedFile(t *testing.T) {
	root := t.TempDir()
	present := filepath.Join(root, "here.mp3")
	writeFile(t, present, 8)

	files := []File{
		{Name: "gone.mp3", Path: filepath.Join(root, "gone.mp3")},
		{Name: "here.mp3", Path: present},
	}

	m := NewManager(root, "Podcasts", nil)
	deleted, errs := m.Prune(files)

	// The vanished file is a reported failure, not a silent success, and it
	// does not stop the remaining deletion.
	require.Equal(t, 1, deleted)
	require.Len(t, errs, 1)
}

func TestFile_SizeMB(t *testing.T) {
	f := File{Size: 3 * 1024 * 1024}
	require.InDelta(t, 3.0, f.SizeMB(), 0.001)
}
