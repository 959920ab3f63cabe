package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbuxton/simple-podcast-sync/internal/config"
	"github.com/dbuxton/simple-podcast-sync/internal/device"
	"github.com/dbuxton/simple-podcast-sync/internal/library"
	"github.com/dbuxton/simple-podcast-sync/internal/logging"
	"github.com/dbuxton/simple-podcast-sync/internal/theme"
	"github.com/dbuxton/simple-podcast-sync/internal/transcode"
	"github.com/dbuxton/simple-podcast-sync/internal/tui"
	"github.com/dbuxton/simple-podcast-sync/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dbPath := flag.String("db", "", "path to the Apple Podcasts MTLibrary.sqlite (overrides config)")
	volume := flag.String("volume", "", "device mount point (overrides config)")
	limit := flag.Int("limit", 0, "number of recent episodes to list (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("podcast-sync v%s\n", version.Version)
		return
	}

	if err := run(*dbPath, *volume, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "podcast-sync: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, volume string, limit int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Library.DatabasePath = dbPath
	}
	if volume != "" {
		cfg.Device.VolumePath = volume
	}
	if limit > 0 {
		cfg.Library.Limit = limit
	}

	logger, closer := logging.New(cfg.Log.Path)
	defer closer.Close()
	logger.Info("starting", "version", version.Version)

	// Everything that can fail fast is checked before the TUI takes over
	// the terminal, so failures print as plain messages.
	dev := device.NewManager(cfg.Device.VolumePath, cfg.Device.PodcastFolder, logger)
	if !dev.Connected() {
		fmt.Printf("Device not found at %s. Connect it and try again.\n", dev.Root())
		return nil
	}

	engine := transcode.NewEngine(transcode.Config{
		Binary: cfg.Transcode.FFmpegBinary,
		Tempo:  cfg.Transcode.Tempo,
		Logger: logger,
	})
	// A missing transcoder only blocks copies. Pruning still works, so warn
	// instead of exiting; each selected episode reports the error itself.
	if err := engine.Available(); err != nil {
		fmt.Printf("Warning: %s not found (install with: brew install ffmpeg). Copies will fail; file cleanup still works.\n", cfg.Transcode.FFmpegBinary)
		logger.Warn("transcoder unavailable", "error", err)
	}

	path := cfg.Library.DatabasePath
	if path == "" {
		path = library.FindDatabase()
	}
	store, err := library.Open(path, logger)
	if err != nil {
		if errors.Is(err, library.ErrStoreUnavailable) {
			fmt.Println("Apple Podcasts library not found. Open the Podcasts app at least once, or pass --db.")
			return nil
		}
		return fmt.Errorf("opening podcast library: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	episodes, err := store.RecentEpisodes(ctx, cfg.Library.Limit)
	cancel()
	if err != nil {
		return fmt.Errorf("reading podcast library: %w", err)
	}
	if len(episodes) == 0 {
		fmt.Println("No recently downloaded podcasts found.")
		return nil
	}

	model := tui.NewModel(cfg, logger, episodes, dev, engine)
	p := tea.NewProgram(model, tea.WithAltScreen())

	watcher, err := theme.NewWatcher(func() {
		p.Send(tui.ThemeChangedMsg{})
	})
	if err != nil {
		logger.Warn("theme watcher unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.FinalMessage() != "" {
		fmt.Println(m.FinalMessage())
	}
	return nil
}
