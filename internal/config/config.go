// Package config handles application configuration via TOML files.
// Configuration is stored at ~/.config/podcast-sync/config.toml and covers
// the podcast library, the target device, and the transcoder.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration
type Config struct {
	Library   LibraryConfig   `toml:"library"`
	Device    DeviceConfig    `toml:"device"`
	Transcode TranscodeConfig `toml:"transcode"`
	Log       LogConfig       `toml:"log"`
}

// LibraryConfig holds Apple Podcasts library settings
type LibraryConfig struct {
	// DatabasePath overrides the auto-discovered MTLibrary.sqlite location.
	// Leave empty to search the standard Apple container paths.
	DatabasePath string `toml:"database_path"`

	// Limit is the number of recent episodes offered for syncing.
	Limit int `toml:"limit"`
}

// DeviceConfig holds settings for the target playback device
type DeviceConfig struct {
	// VolumePath is the mount point of the device.
	VolumePath string `toml:"volume_path"`

	// PodcastFolder is the subfolder on the device that receives episodes.
	PodcastFolder string `toml:"podcast_folder"`
}

// TranscodeConfig holds audio conversion settings
type TranscodeConfig struct {
	// FFmpegBinary is the transcoder executable name or path.
	FFmpegBinary string `toml:"ffmpeg_binary"`

	// Tempo is the playback speed factor applied during conversion.
	Tempo float64 `toml:"tempo"`
}

// LogConfig holds operational log settings
type LogConfig struct {
	// Path of the run log. The file is overwritten on each run.
	Path string `toml:"path"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Library: LibraryConfig{
			Limit: 10,
		},
		Device: DeviceConfig{
			VolumePath:    "/Volumes/XTRAINERZ",
			PodcastFolder: "Podcasts",
		},
		Transcode: TranscodeConfig{
			FFmpegBinary: "ffmpeg",
			Tempo:        2.0,
		},
		Log: LogConfig{
			Path: "podcast_sync.log",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "podcast-sync", "config.toml")
}

// Load reads config from disk or returns defaults
func Load() (Config, error) {
	cfg := Default()
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		// No config file, return defaults
		return cfg, nil
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes config to disk
func Save(cfg Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
