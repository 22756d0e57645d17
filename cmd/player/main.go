// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ceickmeyer/nfc-music-player/internal/app/controller"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/activitylog"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/audio"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/catalog"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/config"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/logger"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/sensor"
)

var (
	app        = kingpin.New("nfc-player", "Tag driven music player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config.json").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: console)").String()

	// albums command
	albumsCmd = app.Command("albums", "List albums and tag mappings, then exit")

	// activity command
	activityCmd   = app.Command("activity", "Show recent activity records, then exit")
	activityLines = activityCmd.Flag("lines", "Number of records to show").Short('n').Default("10").Int()
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	switch command {
	case albumsCmd.FullCommand():
		if err := printAlbums(cfg); err != nil {
			zlog.Fatal().Msgf("Failed to list albums: %v", err)
		}
	case activityCmd.FullCommand():
		if err := printActivity(cfg, *activityLines); err != nil {
			zlog.Fatal().Msgf("Failed to read activity log: %v", err)
		}
	default:
		// Run player (defer ensures cleanup runs on any exit path)
		if err := run(cfg); err != nil {
			zlog.Error().Msgf("Player error: %v", err)
			os.Exit(1)
		}
	}
}

// run executes the daemon. Using a separate function ensures defer
// statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	announceLibrary(cfg)

	alog, err := activitylog.Open(cfg.ActivityLog)
	if err != nil {
		return err
	}
	defer alog.Close()

	player, err := audio.New(audio.Config{
		SampleRate: cfg.Audio.SampleRate,
		Volume:     cfg.Audio.Volume,
		TrackGap:   cfg.Audio.TrackGap(),
	})
	if err != nil {
		return err
	}

	reader, err := sensor.New(cfg.Sensor)
	if err != nil {
		return err
	}
	defer reader.Close()

	ctrl := controller.New(
		reader,
		catalog.New(cfg.MusicPath, cfg.Mappings),
		player,
		alog,
		controller.Config{
			PollInterval: cfg.PollInterval(),
			DetachTicks:  cfg.DetachTicks,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})

	// Wait for shutdown signal or controller failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received signal: %s, shutting down...", sig)
		cancel()
	case <-ctx.Done():
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	zlog.Info().Msg("Player stopped")
	return nil
}

// announceLibrary logs what the player can serve. A missing music path
// is not fatal: the drive may simply not be mounted yet.
func announceLibrary(cfg *config.Config) {
	if _, err := os.Stat(cfg.MusicPath); err != nil {
		zlog.Warn().Msgf("Music path not found: %s (is the drive mounted?)", cfg.MusicPath)
		return
	}
	zlog.Info().Msgf("Music path: %s", cfg.MusicPath)

	albums, err := catalog.New(cfg.MusicPath, cfg.Mappings).Albums()
	if err != nil {
		zlog.Warn().Msgf("Cannot scan music path: %v", err)
		return
	}

	mapped := make([]string, 0, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		mapped = append(mapped, m.String())
	}
	sort.Strings(mapped)
	zlog.Info().Msgf("Found %d albums on disk, %d mapped: %s",
		len(albums), len(mapped), strings.Join(mapped, ", "))
}

// printAlbums prints the album library with tag annotations.
func printAlbums(cfg *config.Config) error {
	albums, err := catalog.New(cfg.MusicPath, cfg.Mappings).Albums()
	if err != nil {
		return err
	}

	byAlbum := make(map[string]tag.ID, len(cfg.Mappings))
	for id, m := range cfg.Mappings {
		byAlbum[m.Album] = id
	}

	fmt.Printf("Albums under %s:\n", cfg.MusicPath)
	known := make(map[string]bool, len(albums))
	for i, a := range albums {
		known[a.Name] = true
		line := fmt.Sprintf("%3d. %s (%d tracks)", i+1, a.Name, a.TrackCount)
		if id, ok := byAlbum[a.Name]; ok {
			if cfg.Mappings[id].Shuffle {
				line += fmt.Sprintf(" [tag %s, shuffled]", id)
			} else {
				line += fmt.Sprintf(" [tag %s]", id)
			}
		}
		fmt.Println(line)
	}

	// Mappings that point at albums the drive does not have.
	var orphans []string
	for id, m := range cfg.Mappings {
		if !known[m.Album] {
			orphans = append(orphans, fmt.Sprintf("  tag %s -> %s", id, m))
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		fmt.Println("\nMappings without a matching album:")
		for _, o := range orphans {
			fmt.Println(o)
		}
	}
	return nil
}

// printActivity prints the most recent activity records.
func printActivity(cfg *config.Config, n int) error {
	lines, err := activitylog.Recent(cfg.ActivityLog, n)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Println("No activity recorded yet.")
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
